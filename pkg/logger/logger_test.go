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

func TestNew_Defaults(t *testing.T) {
	l, err := New(Config{})
	require.NoError(t, err)
	assert.True(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, l.Core().Enabled(zapcore.DebugLevel))
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestInitReplacesGlobal(t *testing.T) {
	require.NoError(t, Init(Config{Level: "debug", Encoding: "console"}))
	assert.True(t, Get().Core().Enabled(zapcore.DebugLevel))

	require.NoError(t, Init(Config{Level: "warn"}))
	assert.False(t, Get().Core().Enabled(zapcore.InfoLevel))
}

func TestWithContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := WithEvaluator(WithBatchID(context.Background(), "b-1"), "scorer")
	WithContext(ctx, base).Info("batch done")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "b-1", fields["batch_id"])
	assert.Equal(t, "scorer", fields["evaluator"])
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))

	l := zap.NewExample()
	assert.Same(t, l, OrNop(l))
}
