package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestObserveJob(t *testing.T) {
	reader := metric.NewManualReader()
	obs, err := NewWithReader("test", reader)
	require.NoError(t, err)

	ctx := context.Background()
	obs.ObserveJob(ctx, "enrich-artist", time.Now(), nil)
	obs.ObserveJob(ctx, "enrich-artist", time.Now(), errors.New("boom"))
	obs.RecordAICall(ctx, "object", "cache")

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	names := map[string]metricdata.Aggregation{}
	for _, m := range rm.ScopeMetrics[0].Metrics {
		names[m.Name] = m.Data
	}

	sum, ok := names["jobs.processed"].(metricdata.Sum[int64])
	require.True(t, ok)
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(2), total)
	assert.Len(t, sum.DataPoints, 2)

	assert.Contains(t, names, "jobs.duration")
	assert.Contains(t, names, "ai.calls")

	require.NoError(t, obs.Shutdown(ctx))
}

func TestNilObservabilityIsSafe(t *testing.T) {
	var obs *Observability
	obs.ObserveJob(context.Background(), "x", time.Now(), nil)
	assert.NoError(t, obs.Shutdown(context.Background()))
}
