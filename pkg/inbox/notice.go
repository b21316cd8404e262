package inbox

import (
	"time"

	"github.com/google/uuid"
)

// Notice is a single notification stored for a recipient.
type Notice struct {
	ID          uuid.UUID `json:"id"`
	RecipientID int64     `json:"recipient_id"`
	SenderID    *int64    `json:"sender_id,omitempty"`
	NoticeType  string    `json:"notice_type"`
	Message     string    `json:"message"`
	Added       time.Time `json:"added"`
	Unseen      bool      `json:"unseen"`
	Archived    bool      `json:"archived"`
	OnSite      bool      `json:"on_site"`
}

// New builds an unseen, unarchived notice with a fresh id.
func New(recipientID int64, senderID *int64, noticeType, message string, onSite bool) Notice {
	return Notice{
		ID:          uuid.New(),
		RecipientID: recipientID,
		SenderID:    senderID,
		NoticeType:  noticeType,
		Message:     message,
		Added:       time.Now().UTC(),
		Unseen:      true,
		OnSite:      onSite,
	}
}

// Actor is the user performing an inbox operation. Privileged actors may
// archive and delete notices addressed to other users.
type Actor struct {
	ID         int64
	Privileged bool
}

func (a Actor) canModify(n Notice) bool {
	return a.Privileged || a.ID == n.RecipientID
}

func boolPtr(v bool) *bool { return &v }
