package logger_test

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformkit/notifyhub/pkg/logger"
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
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	empty := logger.Errors(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestError(t *testing.T) {
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	empty := logger.Error(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestActorID(t *testing.T) {
	attr := logger.ActorID("u1")
	require.Equal(t, "actor_id", attr.Key)
	assert.Equal(t, "u1", attr.Value.Any())

	empty := logger.ActorID(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestMessageID(t *testing.T) {
	attr := logger.MessageID("m1")
	require.Equal(t, "message_id", attr.Key)
	assert.Equal(t, "m1", attr.Value.Any())
}

func TestCategory(t *testing.T) {
	attr := logger.Category("admin")
	require.Equal(t, "category", attr.Key)
	assert.Equal(t, "admin", attr.Value.Any())
}

func TestNamespace(t *testing.T) {
	attr := logger.Namespace("user:42")
	require.Equal(t, "namespace", attr.Key)
	assert.Equal(t, "user:42", attr.Value.Any())
}

func TestReason(t *testing.T) {
	attr := logger.Reason("rate_limited")
	require.Equal(t, "reason", attr.Key)
	assert.Equal(t, "rate_limited", attr.Value.Any())
}

func TestRiskScore(t *testing.T) {
	attr := logger.RiskScore(42.5)
	require.Equal(t, "risk_score", attr.Key)
	assert.InDelta(t, 42.5, attr.Value.Float64(), 0.0001)
}
