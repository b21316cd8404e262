package queue_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/queue"
)

func int64Ptr(v int64) *int64 { return &v }

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	added := time.Date(2024, 5, 1, 10, 30, 0, 123, time.UTC)
	entries := []queue.Entry{
		{
			Recipients: []int64{1, 2, 3},
			Label:      "comment_reply",
			Context: map[string]any{
				"title":      "hello",
				"count":      int64(3),
				"ratio":      1.5,
				"whole":      2.0,
				"flag":       true,
				"missing":    nil,
				"added":      added,
				"observed":   queue.ObjectRef{Type: "blog.post", ID: "17"},
				"nested":     map[string]any{"ids": []any{int64(1), "two", false}},
				"small_ints": []int{4, 5},
			},
			OnSite: true,
			Sender: int64Ptr(9),
		},
		{
			Recipients: []int64{},
			Label:      "digest",
		},
	}

	data, err := queue.Encode(entries)
	require.NoError(t, err)

	got, err := queue.Decode(data)
	require.NoError(t, err)
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, []int64{1, 2, 3}, first.Recipients)
	assert.Equal(t, "comment_reply", first.Label)
	assert.True(t, first.OnSite)
	require.NotNil(t, first.Sender)
	assert.Equal(t, int64(9), *first.Sender)

	assert.Equal(t, "hello", first.Context["title"])
	assert.Equal(t, int64(3), first.Context["count"])
	assert.Equal(t, 1.5, first.Context["ratio"])
	assert.Equal(t, 2.0, first.Context["whole"])
	assert.Equal(t, true, first.Context["flag"])
	assert.Nil(t, first.Context["missing"])
	assert.True(t, added.Equal(first.Context["added"].(time.Time)))
	assert.Equal(t, queue.ObjectRef{Type: "blog.post", ID: "17"}, first.Context["observed"])
	assert.Equal(t, map[string]any{"ids": []any{int64(1), "two", false}}, first.Context["nested"])
	assert.Equal(t, []any{int64(4), int64(5)}, first.Context["small_ints"])

	second := got[1]
	assert.Empty(t, second.Recipients)
	assert.NotNil(t, second.Recipients)
	assert.Nil(t, second.Sender)
	assert.False(t, second.OnSite)
	assert.Empty(t, second.Context)
}

func TestEncodeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		entries []queue.Entry
		wantErr error
	}{
		{
			name:    "empty label",
			entries: []queue.Entry{{Recipients: []int64{1}}},
			wantErr: queue.ErrEmptyLabel,
		},
		{
			name: "unsupported value",
			entries: []queue.Entry{{
				Label:   "x",
				Context: map[string]any{"ch": make(chan int)},
			}},
			wantErr: queue.ErrUnsupportedValue,
		},
		{
			name: "reserved key",
			entries: []queue.Entry{{
				Label:   "x",
				Context: map[string]any{"$ref": "nope"},
			}},
			wantErr: queue.ErrUnsupportedValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := queue.Encode(tt.entries)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"not json", `pickle`, queue.ErrMalformedPayload},
		{"unknown version", `{"v":2,"entries":[]}`, queue.ErrUnsupportedVersion},
		{"missing version", `{"entries":[]}`, queue.ErrUnsupportedVersion},
		{"empty label", `{"v":1,"entries":[{"recipients":[1],"label":""}]}`, queue.ErrMalformedPayload},
		{"bad recipients", `{"v":1,"entries":[{"recipients":["a"],"label":"x"}]}`, queue.ErrMalformedPayload},
		{"trailing data", `{"v":1,"entries":[]}{}`, queue.ErrMalformedPayload},
		{"bad reference", `{"v":1,"entries":[{"recipients":[],"label":"x","context":{"o":{"$ref":1}}}]}`, queue.ErrMalformedPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := queue.Decode([]byte(tt.data))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
