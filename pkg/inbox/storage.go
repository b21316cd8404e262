package inbox

import (
	"context"

	"github.com/google/uuid"
)

// Storage persists notices.
type Storage interface {
	Create(ctx context.Context, n Notice) error
	Get(ctx context.Context, id uuid.UUID) (Notice, error)
	// List returns notices for userID, newest first.
	List(ctx context.Context, userID int64, opts ListOptions) ([]Notice, error)
	MarkSeen(ctx context.Context, ids ...uuid.UUID) error
	Archive(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	// CountUnseen counts unseen, unarchived notices addressed to recipientID.
	CountUnseen(ctx context.Context, recipientID int64, onSite *bool) (int, error)
}

// ListOptions filters List results.
type ListOptions struct {
	Sent            bool  // match on sender instead of recipient
	IncludeArchived bool  // archived notices are hidden unless set
	Unseen          *bool // nil matches both
	OnSite          *bool // nil matches both
	Limit           int   // 0 means no limit
	Offset          int
}

// Matches reports whether n passes the filters for user userID.
func (o ListOptions) Matches(userID int64, n Notice) bool {
	if o.Sent {
		if n.SenderID == nil || *n.SenderID != userID {
			return false
		}
	} else if n.RecipientID != userID {
		return false
	}
	if !o.IncludeArchived && n.Archived {
		return false
	}
	if o.Unseen != nil && n.Unseen != *o.Unseen {
		return false
	}
	if o.OnSite != nil && n.OnSite != *o.OnSite {
		return false
	}
	return true
}
