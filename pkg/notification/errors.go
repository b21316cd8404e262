package notification

import "errors"

var (
	ErrNoticeTypeNotFound        = errors.New("notice type not found")
	ErrUserNotFound              = errors.New("user not found")
	ErrSettingNotFound           = errors.New("notice setting not found")
	ErrUnknownMedium             = errors.New("unknown notification medium")
	ErrLanguageStoreNotAvailable = errors.New("notification language store not available")
	ErrPermissionDenied          = errors.New("permission denied")
	ErrAlreadyObserving          = errors.New("already observing")
	ErrNotObserving              = errors.New("not observing")
	ErrConflictingSendMode       = errors.New("queue and now cannot both be requested")
	ErrInvalidMedium             = errors.New("invalid notification medium")
	ErrDuplicateMedium           = errors.New("duplicate notification medium")
	ErrInvalidUnsubscribeCode    = errors.New("invalid or expired unsubscribe code")
	ErrNoQueue                   = errors.New("notification queue is not configured")
	ErrEmptyLabel                = errors.New("notice type label is required")
)

// IsNotFound reports whether err means a referenced row disappeared:
// a user, a notice type or a setting.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrNoticeTypeNotFound) ||
		errors.Is(err, ErrSettingNotFound)
}
