package observability

import (
	"context"
	"testing"

	"github.com/Cymoe/bill/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
)

func TestNewTracerProviderRegistersGlobal(t *testing.T) {
	lc := fxtest.NewLifecycle(t)

	tp, err := NewTracerProvider(lc, config.Config{
		AppName:     "bill",
		AppVersion:  "test",
		Environment: "test",
	}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, tp)

	// Instrumentation (gin middleware, otelgorm) reads the global provider,
	// so construction must install it there.
	assert.Same(t, tp, otel.GetTracerProvider())

	require.NoError(t, tp.Shutdown(context.Background()))
}
