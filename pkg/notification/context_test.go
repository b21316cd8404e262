package notification_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

func TestContextValues(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	assert.True(t, notification.OnSiteFromContext(ctx), "unset means on site")
	assert.False(t, notification.OnSiteFromContext(notification.ContextWithOnSite(ctx, false)))
	assert.True(t, notification.OnSiteFromContext(notification.ContextWithOnSite(ctx, true)))

	_, ok := notification.LanguageFromContext(ctx)
	assert.False(t, ok)
	lang, ok := notification.LanguageFromContext(notification.WithLanguage(ctx, "de"))
	assert.True(t, ok)
	assert.Equal(t, "de", lang)

	_, ok = notification.LocationFromContext(notification.WithLocation(ctx, nil))
	assert.False(t, ok)
	loc, ok := notification.LocationFromContext(notification.WithLocation(ctx, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, time.UTC, loc)
}
