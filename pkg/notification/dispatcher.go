package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/language"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

// Dispatcher is the synchronous delivery path.
type Dispatcher struct {
	registry  *Registry
	types     NoticeTypeStore
	uids      UIDStore
	hooks     *Hooks
	perms     PermissionChecker
	languages LanguageStore

	defaultLanguage string
	defaultLocation *time.Location
	logger          *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithHooks sets the extension hooks.
func WithHooks(h *Hooks) DispatcherOption {
	return func(d *Dispatcher) {
		if h != nil {
			d.hooks = h
		}
	}
}

// WithPermissionChecker enables view-permission checks on the context target.
// Without one every recipient may view every target.
func WithPermissionChecker(p PermissionChecker) DispatcherOption {
	return func(d *Dispatcher) { d.perms = p }
}

// WithLanguageStore sets the per-user language lookup.
func WithLanguageStore(s LanguageStore) DispatcherOption {
	return func(d *Dispatcher) { d.languages = s }
}

// WithDefaults sets the process-wide language and time zone used when
// nothing more specific applies.
func WithDefaults(lang string, loc *time.Location) DispatcherOption {
	return func(d *Dispatcher) {
		if tag, err := language.Parse(lang); err == nil {
			d.defaultLanguage = tag.String()
		}
		if loc != nil {
			d.defaultLocation = loc
		}
	}
}

// WithDispatcherLogger sets the logger.
func WithDispatcherLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDispatcher creates a Dispatcher over the given registry.
func NewDispatcher(registry *Registry, types NoticeTypeStore, uids UIDStore, opts ...DispatcherOption) (*Dispatcher, error) {
	if registry == nil || types == nil || uids == nil {
		return nil, errors.New("notification: dispatcher needs a registry, a notice type store and a uid store")
	}
	d := &Dispatcher{
		registry:        registry,
		types:           types,
		uids:            uids,
		defaultLanguage: language.English.String(),
		defaultLocation: time.UTC,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.hooks == nil {
		d.hooks = NewHooks(d.logger)
	}
	return d, nil
}

// Registry returns the configured media.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// SendNow delivers label to each recipient over every medium that accepts it.
//
// Recipients that lack view permission on the context target, that already
// hold the context's notice uid, that a hook vetoes, or whose merged
// configuration disables sending are skipped. Backend delivery failures and
// not-found errors are logged and skipped. Store failures are returned once
// all backends for the affected recipient have been tried; later recipients
// are not processed.
func (d *Dispatcher) SendNow(ctx context.Context, recipients []User, label string, extra Context, onSite bool, sender *User) (Counts, error) {
	sent := Counts{}
	if extra == nil {
		extra = Context{}
	}

	nt, err := d.types.GetNoticeType(ctx, label)
	if err != nil {
		return sent, fmt.Errorf("load notice type %q: %w", label, err)
	}
	uid, hasUID := extra.UID()
	target, hasTarget := extra.Target()

	for _, user := range recipients {
		if hasTarget && d.perms != nil {
			ok, err := d.perms.CanView(ctx, user, target)
			if err != nil {
				return sent, fmt.Errorf("check view permission for user %d: %w", user.ID, err)
			}
			if !ok {
				continue
			}
		}

		if hasUID {
			claimed, err := d.uids.ClaimUID(ctx, user.ID, uid)
			if err != nil {
				return sent, fmt.Errorf("claim notice uid for user %d: %w", user.ID, err)
			}
			if !claimed {
				d.logger.DebugContext(ctx, "notice already delivered",
					logger.UserID(user.ID), logger.NoticeType(label), slog.String("notice_uid", uid))
				continue
			}
		}

		delivery := Delivery{Recipient: user, Label: label, NoticeType: nt, Context: extra, Sender: sender}
		if !d.hooks.ShouldDeliver(ctx, delivery) {
			continue
		}

		cfg := Merge(DeliveryConfig{
			Language: d.language(ctx, user),
			Location: d.location(ctx),
			Send:     true,
		}, d.fragments(ctx, delivery))
		if !cfg.Send {
			continue
		}

		dctx := ContextWithOnSite(WithLocation(WithLanguage(ctx, cfg.Language), cfg.Location), onSite)
		if err := d.deliverAll(dctx, delivery, sent); err != nil {
			return sent, err
		}
	}
	return sent, nil
}

// deliverAll runs every medium for one recipient and returns the joined
// store errors, if any.
func (d *Dispatcher) deliverAll(ctx context.Context, dl Delivery, sent Counts) error {
	var errs []error
	for _, m := range d.registry.media {
		attrs := []slog.Attr{
			logger.UserID(dl.Recipient.ID),
			logger.NoticeType(dl.Label),
			logger.Medium(m.ID),
			logger.Backend(m.Label),
		}

		ok, err := m.Backend.CanSend(ctx, dl.Recipient, dl.NoticeType)
		if err != nil {
			if IsNotFound(err) {
				d.logger.LogAttrs(ctx, slog.LevelWarn, "skipping backend", append(attrs, logger.Error(err))...)
				continue
			}
			errs = append(errs, fmt.Errorf("%s: can send: %w", m.Label, err))
			continue
		}
		if !ok {
			continue
		}

		if err := m.Backend.Deliver(ctx, dl.Recipient, dl.Sender, dl.NoticeType, dl.Context); err != nil {
			level := slog.LevelError
			if IsNotFound(err) {
				level = slog.LevelWarn
			}
			d.logger.LogAttrs(ctx, level, "delivery failed", append(attrs, logger.Error(err))...)
			continue
		}

		sent[m.Label]++
		d.hooks.Delivered(ctx, dl, m.ID, m.Label)
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) language(ctx context.Context, user User) string {
	if d.languages != nil {
		lang, err := d.languages.Language(ctx, user.ID)
		switch {
		case err == nil && lang != "":
			if tag, perr := language.Parse(lang); perr == nil {
				return tag.String()
			}
			d.logger.WarnContext(ctx, "ignoring invalid stored language",
				logger.UserID(user.ID), slog.String("language", lang))
		case err != nil && !errors.Is(err, ErrLanguageStoreNotAvailable):
			d.logger.WarnContext(ctx, "language lookup failed", logger.UserID(user.ID), logger.Error(err))
		}
	}
	if lang, ok := LanguageFromContext(ctx); ok {
		return lang
	}
	return d.defaultLanguage
}

func (d *Dispatcher) location(ctx context.Context) *time.Location {
	if loc, ok := LocationFromContext(ctx); ok {
		return loc
	}
	return d.defaultLocation
}

// fragments collects configure hook results, dropping unparsable languages.
func (d *Dispatcher) fragments(ctx context.Context, dl Delivery) []ConfigFragment {
	frags := d.hooks.Configure(ctx, dl)
	for i := range frags {
		if frags[i].Language == nil {
			continue
		}
		tag, err := language.Parse(*frags[i].Language)
		if err != nil {
			d.logger.WarnContext(ctx, "ignoring invalid language from configure hook",
				logger.UserID(dl.Recipient.ID), slog.String("language", *frags[i].Language), logger.Error(err))
			frags[i].Language = nil
			continue
		}
		canonical := tag.String()
		frags[i].Language = &canonical
	}
	return frags
}
