package telemetry

import (
	"context"
	"runtime/pprof"
	"testing"

	"github.com/citadelbuy/returns/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewProfiler_Disabled(t *testing.T) {
	p, err := NewProfiler(config.ProfilingConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, p.IsEnabled())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestNewProfiler_RequiresAddress(t *testing.T) {
	_, err := NewProfiler(config.ProfilingConfig{Enabled: true}, zap.NewNop())
	assert.Error(t, err)
}

func TestWithProfilingLabels(t *testing.T) {
	var got string
	WithProfilingLabels(context.Background(), func(ctx context.Context) {
		got, _ = pprof.Label(ctx, "route")
	}, "route", "/returns/:id")
	assert.Equal(t, "/returns/:id", got)

	called := false
	WithProfilingLabels(context.Background(), func(context.Context) { called = true }, "odd")
	assert.True(t, called)
}
