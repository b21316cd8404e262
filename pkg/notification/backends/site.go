package backends

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/notifykit/pkg/inbox"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

// Site stores notices in the on-site inbox.
type Site struct {
	notification.BaseBackend

	Renderer Renderer
	Inbox    *inbox.Manager
	SiteURL  string
}

func (b *Site) Deliver(ctx context.Context, recipient notification.User, sender *notification.User, nt notification.NoticeType, extra notification.Context) error {
	data := Data(ctx, recipient, sender, nt, extra, b.SiteURL)
	msg, err := b.Renderer.Render(ctx, nt.Label, FormatNotice, data)
	if err != nil {
		return fmt.Errorf("render %s: %w", FormatNotice, err)
	}

	var senderID *int64
	if sender != nil {
		id := sender.ID
		senderID = &id
	}
	n := inbox.New(recipient.ID, senderID, nt.Label, msg, notification.OnSiteFromContext(ctx))
	return b.Inbox.Store(ctx, n)
}
