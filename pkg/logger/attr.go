package logger

import (
	"log/slog"
	"strconv"
	"time"
)

// Group creates a slog group attribute from the provided attributes.
func Group(name string, attrs ...slog.Attr) slog.Attr {
	return slog.Attr{Key: name, Value: slog.GroupValue(attrs...)}
}

// Errors groups multiple non-nil errors under the key "errors".
// If all errors are nil, it returns an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error creates an attribute for a single error under the key "error".
// If err is nil, it returns an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// UserID records the user identifier under the key "user_id".
// If id is nil, it returns an empty Attr.
func UserID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("user_id", id)
}

// SenderID records the sending user under the key "sender_id".
// A nil pointer yields an empty Attr.
func SenderID(id *int64) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Int64("sender_id", *id)
}

// NoticeType records the notice type label under the key "notice_type".
func NoticeType(label string) slog.Attr {
	return slog.String("notice_type", label)
}

// Medium records the delivery medium id under the key "medium".
func Medium(id string) slog.Attr {
	return slog.String("medium", id)
}

// Backend records the backend label under the key "backend".
func Backend(label string) slog.Attr {
	return slog.String("backend", label)
}

// BatchID records the queued batch identifier under the key "batch_id".
func BatchID(id int64) slog.Attr {
	return slog.Int64("batch_id", id)
}

// Workers records the worker count under the key "workers".
func Workers(n int) slog.Attr {
	return slog.Int("workers", n)
}

// Duration records a duration under the key "duration".
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}

// Component records the component name under the key "component".
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
