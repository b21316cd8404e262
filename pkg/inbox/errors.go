package inbox

import "errors"

var (
	ErrNoticeNotFound   = errors.New("notice not found")
	ErrForbidden        = errors.New("not allowed to modify this notice")
	ErrInvalidRecipient = errors.New("notice recipient is required")
)
