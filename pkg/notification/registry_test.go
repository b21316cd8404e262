package notification_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/notification"
)

func TestNewRegistry(t *testing.T) {
	t.Parallel()

	b := &recordingBackend{}
	tests := []struct {
		name    string
		media   []notification.Medium
		wantErr error
	}{
		{name: "empty", media: nil},
		{name: "valid", media: []notification.Medium{
			{ID: "a", Label: "A", Backend: b},
			{ID: "b", Label: "B", Backend: b},
		}},
		{name: "missing id", media: []notification.Medium{{Label: "A", Backend: b}}, wantErr: notification.ErrInvalidMedium},
		{name: "missing label", media: []notification.Medium{{ID: "a", Backend: b}}, wantErr: notification.ErrInvalidMedium},
		{name: "missing backend", media: []notification.Medium{{ID: "a", Label: "A"}}, wantErr: notification.ErrInvalidMedium},
		{name: "duplicate id", media: []notification.Medium{
			{ID: "a", Label: "A", Backend: b},
			{ID: "a", Label: "B", Backend: b},
		}, wantErr: notification.ErrDuplicateMedium},
		{name: "duplicate label", media: []notification.Medium{
			{ID: "a", Label: "A", Backend: b},
			{ID: "b", Label: "A", Backend: b},
		}, wantErr: notification.ErrDuplicateMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, err := notification.NewRegistry(tt.media...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, len(tt.media), r.Len())
		})
	}
}

func TestRegistryOrderAndLookup(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	media := f.registry.Media()
	require.Len(t, media, 2)
	assert.Equal(t, "site", media[0].ID)
	assert.Equal(t, "email", media[1].ID)

	media[0].ID = "mutated"
	m, ok := f.registry.Medium("site")
	assert.True(t, ok)
	assert.Equal(t, "on-site", m.Label)

	_, ok = f.registry.Medium("sms")
	assert.False(t, ok)
}
