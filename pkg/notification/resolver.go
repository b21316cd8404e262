package notification

import (
	"context"
	"errors"
	"fmt"
	"maps"
)

// Resolver returns the stored setting for (user, notice type, medium), and
// persists a default on first access. Defaults are computed once and never
// revisited, even if sensitivities or notice type defaults change later.
type Resolver struct {
	store       SettingStore
	sensitivity map[string]int
}

// NewResolver creates a Resolver. sensitivities maps medium id to spam sensitivity.
func NewResolver(store SettingStore, sensitivities map[string]int) *Resolver {
	return &Resolver{store: store, sensitivity: maps.Clone(sensitivities)}
}

// Default computes the opt-in a medium gets for nt when the user never chose.
func (r *Resolver) Default(nt NoticeType, mediumID string) (bool, error) {
	sens, ok := r.sensitivity[mediumID]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownMedium, mediumID)
	}
	return sens <= nt.Default, nil
}

func (r *Resolver) Resolve(ctx context.Context, userID int64, nt NoticeType, mediumID string) (Setting, error) {
	send, err := r.Default(nt, mediumID)
	if err != nil {
		return Setting{}, err
	}

	s, err := r.store.GetSetting(ctx, userID, nt.Label, mediumID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrSettingNotFound) {
		return Setting{}, fmt.Errorf("load setting: %w", err)
	}

	// Concurrent first access for the same triple converges on whichever
	// insert landed first.
	s, err = r.store.CreateSetting(ctx, Setting{
		UserID:     userID,
		NoticeType: nt.Label,
		Medium:     mediumID,
		Send:       send,
	})
	if err != nil {
		return Setting{}, fmt.Errorf("create default setting: %w", err)
	}
	return s, nil
}

// ShouldSend is Resolve reduced to the send flag.
func (r *Resolver) ShouldSend(ctx context.Context, userID int64, nt NoticeType, mediumID string) (bool, error) {
	s, err := r.Resolve(ctx, userID, nt, mediumID)
	if err != nil {
		return false, err
	}
	return s.Send, nil
}
