package observability

import (
	"context"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level        string
		debugEnabled bool
		infoEnabled  bool
	}{
		{level: "debug", debugEnabled: true, infoEnabled: true},
		{level: "info", debugEnabled: false, infoEnabled: true},
		{level: "warn", debugEnabled: false, infoEnabled: false},
		{level: "error", debugEnabled: false, infoEnabled: false},
		{level: "bogus", debugEnabled: false, infoEnabled: true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			t.Parallel()

			logger := NewLogger(tt.level, "text")
			ctx := context.Background()

			assert.Equal(t, tt.debugEnabled, logger.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.infoEnabled, logger.Enabled(ctx, slog.LevelInfo))
		})
	}
}

func TestStressMetricsCounters(t *testing.T) {
	t.Parallel()

	metrics := NewStressMetrics()

	metrics.Ops.WithLabelValues("insert").Add(3)
	metrics.Ops.WithLabelValues("search").Inc()
	metrics.Failures.Inc()
	metrics.Rebuilds.Set(7)
	metrics.TreeSize.Set(42)

	assert.InDelta(t, 3.0, testutil.ToFloat64(metrics.Ops.WithLabelValues("insert")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.Ops.WithLabelValues("search")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.Failures), 1e-9)
	assert.InDelta(t, 7.0, testutil.ToFloat64(metrics.Rebuilds), 1e-9)
	assert.InDelta(t, 42.0, testutil.ToFloat64(metrics.TreeSize), 1e-9)
}

func TestStressMetricsHandlerServesScrape(t *testing.T) {
	t.Parallel()

	metrics := NewStressMetrics()
	metrics.Ops.WithLabelValues("insert").Inc()

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest("GET", "/metrics", nil)

	metrics.Handler().ServeHTTP(recorder, request)

	require.Equal(t, 200, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "scapegoat_stress_ops_total")
}
