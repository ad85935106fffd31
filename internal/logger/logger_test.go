package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/aliskhannn/certprep/internal/config"
)

func TestNew(t *testing.T) {
	prod, err := New(&config.Config{Env: "production"})
	require.NoError(t, err)
	assert.False(t, prod.Core().Enabled(zapcore.DebugLevel))

	dev, err := New(&config.Config{Env: "local"})
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))
}

func TestForLearner(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	ForLearner(zap.New(core), "learner-1").Info("hello")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "learner-1", entries[0].ContextMap()["learner_id"])

	assert.NotPanics(t, func() { ForLearner(nil, "x").Info("dropped") })
}
