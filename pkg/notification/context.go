package notification

import (
	"context"
	"time"
)

type (
	languageKey struct{}
	locationKey struct{}
	onSiteKey   struct{}
)

// WithLanguage stores the active notification language on ctx.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, languageKey{}, lang)
}

// LanguageFromContext returns the language set by WithLanguage.
func LanguageFromContext(ctx context.Context) (string, bool) {
	lang, ok := ctx.Value(languageKey{}).(string)
	return lang, ok && lang != ""
}

// WithLocation stores the active time zone on ctx.
func WithLocation(ctx context.Context, loc *time.Location) context.Context {
	return context.WithValue(ctx, locationKey{}, loc)
}

// LocationFromContext returns the time zone set by WithLocation.
func LocationFromContext(ctx context.Context) (*time.Location, bool) {
	loc, ok := ctx.Value(locationKey{}).(*time.Location)
	return loc, ok && loc != nil
}

// ContextWithOnSite marks whether the notice being delivered is shown on site.
func ContextWithOnSite(ctx context.Context, onSite bool) context.Context {
	return context.WithValue(ctx, onSiteKey{}, onSite)
}

// OnSiteFromContext returns the on-site flag, true when unset.
func OnSiteFromContext(ctx context.Context) bool {
	v, ok := ctx.Value(onSiteKey{}).(bool)
	return !ok || v
}
