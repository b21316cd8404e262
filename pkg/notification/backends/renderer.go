package backends

import (
	"bytes"
	"context"
	"errors"
	htmltemplate "html/template"
	"io/fs"
	"path"
	"strings"
	"sync"
	texttemplate "text/template"
	"time"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Template formats rendered by the built-in backends.
const (
	FormatShort   = "short.txt"
	FormatFull    = "full.txt"
	FormatNotice  = "notice.html"
	FormatHTML    = "full.html"
	FormatSubject = "notification_subject.txt"
)

// TemplateData is what every notification template sees.
type TemplateData struct {
	Recipient  notification.User
	Sender     *notification.User
	NoticeType notification.NoticeType
	Extra      notification.Context
	Language   string
	Now        time.Time
	SiteURL    string
}

// Renderer renders one format of a notice type.
type Renderer interface {
	Render(ctx context.Context, label, format string, data TemplateData) (string, error)
}

type executor interface {
	Execute(w *bytes.Buffer, data any) error
}

type textExec struct{ t *texttemplate.Template }

func (e textExec) Execute(w *bytes.Buffer, data any) error { return e.t.Execute(w, data) }

type htmlExec struct{ t *htmltemplate.Template }

func (e htmlExec) Execute(w *bytes.Buffer, data any) error { return e.t.Execute(w, data) }

// TemplateRenderer loads templates from fsys, first at
// notification/<label>/<format>, then at notification/<format>. Formats
// ending in .txt use text/template, the rest html/template. Parsed templates
// are cached.
type TemplateRenderer struct {
	fsys  fs.FS
	funcs map[string]any
	cache sync.Map // path -> executor
}

func NewTemplateRenderer(fsys fs.FS) *TemplateRenderer {
	return &TemplateRenderer{
		fsys: fsys,
		funcs: map[string]any{
			"upper": strings.ToUpper,
			"lower": strings.ToLower,
			"trim":  strings.TrimSpace,
			"date": func(layout string, t time.Time) string {
				return t.Format(layout)
			},
		},
	}
}

func (r *TemplateRenderer) Render(_ context.Context, label, format string, data TemplateData) (string, error) {
	candidates := []string{
		path.Join("notification", label, format),
		path.Join("notification", format),
	}
	for _, name := range candidates {
		exec, err := r.load(name, format)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		var buf bytes.Buffer
		if err := exec.Execute(&buf, data); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	return "", errors.Join(ErrTemplateNotFound, errors.New(label+"/"+format))
}

func (r *TemplateRenderer) load(name, format string) (executor, error) {
	if cached, ok := r.cache.Load(name); ok {
		return cached.(executor), nil
	}
	raw, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		return nil, err
	}

	var exec executor
	if strings.HasSuffix(format, ".txt") {
		t, err := texttemplate.New(name).Funcs(r.funcs).Parse(string(raw))
		if err != nil {
			return nil, err
		}
		exec = textExec{t}
	} else {
		t, err := htmltemplate.New(name).Funcs(r.funcs).Parse(string(raw))
		if err != nil {
			return nil, err
		}
		exec = htmlExec{t}
	}
	actual, _ := r.cache.LoadOrStore(name, exec)
	return actual.(executor), nil
}

// Data builds the template data for one delivery, using the language and
// location carried on ctx.
func Data(ctx context.Context, recipient notification.User, sender *notification.User, nt notification.NoticeType, extra notification.Context, siteURL string) TemplateData {
	lang, _ := notification.LanguageFromContext(ctx)
	now := time.Now()
	if loc, ok := notification.LocationFromContext(ctx); ok {
		now = now.In(loc)
	}
	return TemplateData{
		Recipient:  recipient,
		Sender:     sender,
		NoticeType: nt,
		Extra:      extra,
		Language:   lang,
		Now:        now,
		SiteURL:    siteURL,
	}
}
