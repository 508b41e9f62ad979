package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContext_RoundTrip(t *testing.T) {
	log := zap.NewExample()

	ctx := WithContext(context.Background(), log)

	assert.Same(t, log, FromContext(ctx))
}

func TestFromContext_MissingReturnsNop(t *testing.T) {
	log := FromContext(context.Background())

	require.NotNil(t, log)
	assert.NotPanics(t, func() { log.Info("discarded") })
}

func TestWithRequestID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	ctx, tagged := WithRequestID(context.Background(), zap.New(core), "req-abc")

	assert.Equal(t, "req-abc", GetRequestID(ctx))
	assert.Same(t, tagged, FromContext(ctx))

	tagged.Info("tagged entry")
	entries := recorded.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-abc", entries[0].ContextMap()["request_id"])
}

func TestGetRequestID_Missing(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))
}

func TestGetRequestID_IgnoresForeignStringKeys(t *testing.T) {
	type foreignKey string
	ctx := context.WithValue(context.Background(), foreignKey("request_id"), "spoofed")

	assert.Empty(t, GetRequestID(ctx))
}

func TestContextKeysAreDistinct(t *testing.T) {
	assert.NotEqual(t, LoggerKey, RequestIDKey)
}
