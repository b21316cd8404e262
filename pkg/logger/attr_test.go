package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/notifykit/pkg/logger"
)

func TestGroup(t *testing.T) {
	attr := logger.Group("req", slog.String("id", "1"), slog.Int("n", 2))
	require.Equal(t, "req", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "id", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

func TestErrors(t *testing.T) {
	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	assert.True(t, logger.Errors(nil).Equal(slog.Attr{}))
}

func TestError(t *testing.T) {
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
}

func TestSenderID(t *testing.T) {
	id := int64(7)
	attr := logger.SenderID(&id)
	require.Equal(t, "sender_id", attr.Key)
	assert.Equal(t, int64(7), attr.Value.Int64())

	assert.True(t, logger.SenderID(nil).Equal(slog.Attr{}))
}

func TestDomainAttrs(t *testing.T) {
	assert.Equal(t, "notice_type", logger.NoticeType("x").Key)
	assert.Equal(t, "medium", logger.Medium("1").Key)
	assert.Equal(t, "backend", logger.Backend("email").Key)
	assert.Equal(t, int64(3), logger.BatchID(3).Value.Int64())
	assert.Equal(t, 4, int(logger.Workers(4).Value.Int64()))
	assert.Equal(t, time.Second, logger.Duration(time.Second).Value.Duration())
}
