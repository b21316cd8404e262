package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/engine"
	"github.com/dmitrymomot/notifykit/pkg/notification"
)

func TestParseFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr bool
	}{
		{
			name: "defaults",
			want: options{workers: 1, schedule: defaultSchedule},
		},
		{
			name: "process pool",
			args: []string{"-workers", "4", "-processes"},
			want: options{workers: 4, processes: true, schedule: defaultSchedule},
		},
		{
			name: "daemon with schedule",
			args: []string{"-daemon", "-schedule", "*/5 * * * *"},
			want: options{workers: 1, daemon: true, schedule: "*/5 * * * *"},
		},
		{
			name: "chunk mode",
			args: []string{chunkFlag},
			want: options{workers: 1, schedule: defaultSchedule, chunk: true},
		},
		{name: "zero workers", args: []string{"-workers", "0"}, wantErr: true},
		{name: "bad schedule", args: []string{"-daemon", "-schedule", "every minute"}, wantErr: true},
		{name: "unknown flag", args: []string{"-threads"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseFlags(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type nopRunner struct{}

func (nopRunner) SendPart(context.Context, engine.Part) (notification.Counts, error) {
	return notification.Counts{}, nil
}

func TestNewPool(t *testing.T) {
	t.Parallel()

	serial, err := newPool(options{workers: 1}, nopRunner{})
	require.NoError(t, err)
	assert.IsType(t, engine.Serial{}, serial)
	assert.Equal(t, 1, serial.Workers())

	single, err := newPool(options{workers: 1, processes: true}, nopRunner{})
	require.NoError(t, err)
	assert.IsType(t, engine.Serial{}, single, "one worker never spawns a child")

	threads, err := newPool(options{workers: 3}, nopRunner{})
	require.NoError(t, err)
	assert.IsType(t, &engine.ThreadPool{}, threads)
	assert.Equal(t, 3, threads.Workers())

	procs, err := newPool(options{workers: 2, processes: true}, nopRunner{})
	require.NoError(t, err)
	assert.IsType(t, &engine.ProcessPool{}, procs)
	assert.Equal(t, 2, procs.Workers())
}

func TestNewRepositoryRejectsUnknownBackend(t *testing.T) {
	t.Parallel()

	var s settings
	s.queue.Backend = "memory"
	_, err := newRepository(context.Background(), s, deps{})
	assert.ErrorContains(t, err, `unsupported queue backend "memory"`)
}
