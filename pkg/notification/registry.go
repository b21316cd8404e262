package notification

import (
	"context"
	"fmt"
)

// Backend delivers notices over one medium.
type Backend interface {
	// CanSend reports whether user should receive nt over this backend.
	CanSend(ctx context.Context, user User, nt NoticeType) (bool, error)
	// Deliver sends one notice. Sender is nil for system notices.
	Deliver(ctx context.Context, recipient User, sender *User, nt NoticeType, extra Context) error
}

// Medium binds a backend to its configured id, label and spam sensitivity.
type Medium struct {
	ID              string
	Label           string
	SpamSensitivity int
	Backend         Backend
}

// Registry is the ordered, immutable set of configured media.
type Registry struct {
	media []Medium
	index map[string]int
}

// NewRegistry validates media and builds a registry keeping their order.
// Ids and labels must be non-empty and unique, and every medium needs a backend.
func NewRegistry(media ...Medium) (*Registry, error) {
	r := &Registry{
		media: make([]Medium, 0, len(media)),
		index: make(map[string]int, len(media)),
	}
	labels := make(map[string]struct{}, len(media))
	for i, m := range media {
		switch {
		case m.ID == "":
			return nil, fmt.Errorf("%w: medium #%d has no id", ErrInvalidMedium, i)
		case m.Label == "":
			return nil, fmt.Errorf("%w: medium %q has no label", ErrInvalidMedium, m.ID)
		case m.Backend == nil:
			return nil, fmt.Errorf("%w: medium %q has no backend", ErrInvalidMedium, m.ID)
		}
		if _, dup := r.index[m.ID]; dup {
			return nil, fmt.Errorf("%w: id %q", ErrDuplicateMedium, m.ID)
		}
		if _, dup := labels[m.Label]; dup {
			return nil, fmt.Errorf("%w: label %q", ErrDuplicateMedium, m.Label)
		}
		r.index[m.ID] = len(r.media)
		labels[m.Label] = struct{}{}
		r.media = append(r.media, m)
	}
	return r, nil
}

// Media returns the configured media in order.
func (r *Registry) Media() []Medium {
	out := make([]Medium, len(r.media))
	copy(out, r.media)
	return out
}

// Medium looks up a medium by id.
func (r *Registry) Medium(id string) (Medium, bool) {
	i, ok := r.index[id]
	if !ok {
		return Medium{}, false
	}
	return r.media[i], true
}

func (r *Registry) Len() int { return len(r.media) }

// BaseBackend gives backends the default CanSend: the recipient's setting for
// the backend's medium.
type BaseBackend struct {
	MediumID string
	Resolver *Resolver
}

func (b BaseBackend) CanSend(ctx context.Context, user User, nt NoticeType) (bool, error) {
	return b.Resolver.ShouldSend(ctx, user.ID, nt, b.MediumID)
}
