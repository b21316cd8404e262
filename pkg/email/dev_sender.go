package email

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"time"
)

// DevSender writes each message to disk instead of sending it: the body goes
// to <stamp>_<tag>.html or .txt, the envelope to <stamp>_<tag>.json.
type DevSender struct {
	dir string
	seq atomic.Int64
}

func NewDevSender(dir string) *DevSender {
	return &DevSender{dir: dir}
}

type devEnvelope struct {
	Timestamp string `json:"timestamp"`
	SendTo    string `json:"send_to"`
	Subject   string `json:"subject"`
	Tag       string `json:"tag,omitempty"`
}

func (d *DevSender) SendEmail(_ context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create directory: %v", ErrFailedToSendEmail, err)
	}

	now := time.Now()
	name := params.Tag
	if name == "" {
		name = params.Subject
	}
	// The sequence number keeps names unique when several workers write in the same second.
	base := fmt.Sprintf("%s_%04d_%s", now.Format("2006_01_02_150405"), d.seq.Add(1), safeName(name))

	if params.BodyHTML != "" {
		if err := os.WriteFile(filepath.Join(d.dir, base+".html"), []byte(params.BodyHTML), 0o644); err != nil {
			return fmt.Errorf("%w: write html body: %v", ErrFailedToSendEmail, err)
		}
	}
	if params.BodyText != "" {
		if err := os.WriteFile(filepath.Join(d.dir, base+".txt"), []byte(params.BodyText), 0o644); err != nil {
			return fmt.Errorf("%w: write text body: %v", ErrFailedToSendEmail, err)
		}
	}

	meta, err := json.MarshalIndent(devEnvelope{
		Timestamp: now.Format(time.RFC3339),
		SendTo:    params.SendTo,
		Subject:   params.Subject,
		Tag:       params.Tag,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode envelope: %v", ErrFailedToSendEmail, err)
	}
	if err := os.WriteFile(filepath.Join(d.dir, base+".json"), meta, 0o644); err != nil {
		return fmt.Errorf("%w: write envelope: %v", ErrFailedToSendEmail, err)
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

func safeName(s string) string {
	s = unsafeChars.ReplaceAllString(strings.ReplaceAll(s, " ", "_"), "")
	if len(s) > 80 {
		s = s[:80]
	}
	if s == "" {
		return "email"
	}
	return strings.ToLower(s)
}
