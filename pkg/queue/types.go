package queue

import "time"

// ObjectRef identifies a persisted object by type and primary key. It is what
// the queue stores instead of a live object, because a batch may be decoded
// long after the referenced row changed or disappeared.
type ObjectRef struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// IsZero reports whether the reference points at nothing.
func (r ObjectRef) IsZero() bool {
	return r.Type == "" && r.ID == ""
}

func (r ObjectRef) String() string {
	return r.Type + ":" + r.ID
}

// Entry is one deferred delivery request.
type Entry struct {
	// Recipients holds user ids. Empty is allowed.
	Recipients []int64
	// Label is the notice type label.
	Label string
	// Context is the extra template context. Values are limited to strings,
	// bools, integers, floats, time.Time, ObjectRef and nested maps/slices of those.
	Context map[string]any
	OnSite  bool
	// Sender is the sending user id, nil when the notice has no sender.
	Sender *int64
}

// Batch is one persisted queue row.
type Batch struct {
	ID        int64
	Payload   []byte
	CreatedAt time.Time
}

// Entries decodes the batch payload.
func (b Batch) Entries() ([]Entry, error) {
	return Decode(b.Payload)
}
