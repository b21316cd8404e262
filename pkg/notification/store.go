package notification

import "context"

// NoticeTypeStore persists notice types.
type NoticeTypeStore interface {
	GetNoticeType(ctx context.Context, label string) (NoticeType, error)
	ListNoticeTypes(ctx context.Context) ([]NoticeType, error)
	CreateNoticeType(ctx context.Context, nt NoticeType) error
	UpdateNoticeType(ctx context.Context, nt NoticeType) error
}

// SettingStore persists per-user medium settings.
type SettingStore interface {
	// GetSetting returns ErrSettingNotFound when the triple is absent.
	GetSetting(ctx context.Context, userID int64, label, medium string) (Setting, error)
	// CreateSetting inserts s unless the triple already exists, and returns
	// whatever is stored afterwards.
	CreateSetting(ctx context.Context, s Setting) (Setting, error)
	// SaveSetting inserts or overwrites s.
	SaveSetting(ctx context.Context, s Setting) error
}

// UIDStore is the deduplication ledger.
type UIDStore interface {
	// ClaimUID records (recipientID, uid) and reports whether this call created it.
	ClaimUID(ctx context.Context, recipientID int64, uid string) (bool, error)
	CountUIDs(ctx context.Context) (int, error)
	// TrimUIDs deletes the n oldest entries and returns how many were removed.
	TrimUIDs(ctx context.Context, n int) (int, error)
}

// ObservationStore persists observed items.
type ObservationStore interface {
	// CreateObservation fails with ErrAlreadyObserving on a duplicate
	// (target, user, signal).
	CreateObservation(ctx context.Context, item ObservedItem) (ObservedItem, error)
	// GetObservation fails with ErrNotObserving when absent.
	GetObservation(ctx context.Context, target Target, userID int64, signal string) (ObservedItem, error)
	// DeleteObservation fails with ErrNotObserving when absent.
	DeleteObservation(ctx context.Context, target Target, userID int64, signal string) error
	// ListObservers returns the items for (target, signal) oldest first.
	ListObservers(ctx context.Context, target Target, signal string) ([]ObservedItem, error)
	// ListObserved returns the items of one user, newest first.
	ListObserved(ctx context.Context, userID int64) ([]ObservedItem, error)
}

// UserStore reads accounts owned by the host application.
type UserStore interface {
	// GetUser returns ErrUserNotFound for missing users.
	GetUser(ctx context.Context, id int64) (User, error)
}

// LanguageStore returns a user's preferred notification language. Sites that
// do not translate notifications return ErrLanguageStoreNotAvailable.
type LanguageStore interface {
	Language(ctx context.Context, userID int64) (string, error)
}

// PermissionChecker decides whether a user may view a target.
type PermissionChecker interface {
	CanView(ctx context.Context, user User, target Target) (bool, error)
}

// Store bundles every persistence interface the package needs.
type Store interface {
	NoticeTypeStore
	SettingStore
	UIDStore
	ObservationStore
	UserStore
}
