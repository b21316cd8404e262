package notification

import (
	"time"

	"github.com/dmitrymomot/notifykit/pkg/queue"
)

// DefaultSignal is the observation signal used when none is given.
const DefaultSignal = "post_save"

// Reserved extra-context keys.
const (
	// KeyNoticeUID carries an idempotency token; a recipient gets at most one
	// delivery per token.
	KeyNoticeUID = "notice_uid"
	// KeyContextObject carries the object the recipient must be allowed to view.
	KeyContextObject = "context_object"
	// KeyObserved carries the observed object for observation fan-out.
	KeyObserved = "observed"
)

// NoticeType is a category of notification identified by its label.
// Default is the sensitivity threshold used to compute default opt-in.
type NoticeType struct {
	Label       string `json:"label"`
	Display     string `json:"display"`
	Description string `json:"description"`
	Default     int    `json:"default"`
}

// Setting says whether a user wants a notice type on a medium.
type Setting struct {
	UserID     int64  `json:"user_id"`
	NoticeType string `json:"notice_type"`
	Medium     string `json:"medium"`
	Send       bool   `json:"send"`
}

// User is the subset of an account that delivery needs.
type User struct {
	ID     int64  `json:"id"`
	Email  string `json:"email"`
	Active bool   `json:"active"`
}

// Target references an object a notice is about.
type Target = queue.ObjectRef

// ObservedItem subscribes a user to a signal on a target.
type ObservedItem struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Target     Target    `json:"target"`
	NoticeType string    `json:"notice_type"`
	Signal     string    `json:"signal"`
	Added      time.Time `json:"added"`
}

// Context is the extra context passed along with a notice to every backend.
type Context map[string]any

// Target returns the permission-checked object: context_object when set,
// observed otherwise.
func (c Context) Target() (Target, bool) {
	for _, key := range []string{KeyContextObject, KeyObserved} {
		switch v := c[key].(type) {
		case Target:
			if !v.IsZero() {
				return v, true
			}
		case *Target:
			if v != nil && !v.IsZero() {
				return *v, true
			}
		}
	}
	return Target{}, false
}

// UID returns the idempotency token, if any.
func (c Context) UID() (string, bool) {
	v, ok := c[KeyNoticeUID].(string)
	return v, ok && v != ""
}

// With returns a shallow copy of c with key set to value.
func (c Context) With(key string, value any) Context {
	out := make(Context, len(c)+1)
	for k, v := range c {
		out[k] = v
	}
	out[key] = value
	return out
}

// Counts maps backend labels to the number of successful deliveries.
type Counts map[string]int

// Add merges other into c.
func (c Counts) Add(other Counts) {
	for k, v := range other {
		c[k] += v
	}
}

// Total sums all backends.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}
