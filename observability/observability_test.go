package observability

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// installTracer routes the global tracer provider to an in-memory exporter
// for the duration of the test.
func installTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return exporter
}

func newReader(t *testing.T) (*sdkmetric.ManualReader, *QueryMetrics) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := NewQueryMetrics(mp.Meter("test"))
	require.NoError(t, err)
	return reader, metrics
}

func TestDefaultTracerConfig(t *testing.T) {
	cfg := DefaultTracerConfig("people")

	assert.Equal(t, "people", cfg.ServiceName)
	assert.Equal(t, "localhost:4318", cfg.Endpoint)
	assert.Equal(t, 1.0, cfg.SampleRate)
	assert.True(t, cfg.Insecure)
}

func TestDefaultMeterConfig(t *testing.T) {
	cfg := DefaultMeterConfig("people")

	assert.Equal(t, "people", cfg.ServiceName)
	assert.Equal(t, 15*time.Second, cfg.Interval)
}

func TestConfigDefaultsAndBuilders(t *testing.T) {
	cfg := Config{Enabled: true, SampleRate: 0.5}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	tc := cfg.Tracer("people", "0.1.0", "staging")
	assert.Equal(t, "localhost:4318", tc.Endpoint)
	assert.Equal(t, 0.5, tc.SampleRate)
	assert.Equal(t, "staging", tc.Environment)

	mc := cfg.Meter("people", "0.1.0", "staging")
	assert.Equal(t, 15*time.Second, mc.Interval)
	assert.Equal(t, "0.1.0", mc.ServiceVersion)

	assert.NoError(t, (&Config{}).Validate(), "a disabled config always validates")
	assert.Error(t, (&Config{Enabled: true}).Validate(), "enabled config needs an endpoint")
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
		{0.25, "TraceIDRatioBased{0.25}"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, sampler(tc.rate).Description(), "rate %v", tc.rate)
	}
}

func TestNewQueryMetrics_Noop(t *testing.T) {
	metrics, err := NewQueryMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	require.NotNil(t, metrics)

	ctx := context.Background()
	metrics.WorkerStarted(ctx)
	metrics.WorkerStopped(ctx)
	metrics.RecordElements(ctx, OutcomeKept, 4)
	metrics.RecordError(ctx, "STAGE_FAILED")
	metrics.RecordQuery(ctx, "completed", 100*time.Millisecond)
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumByAttr(t *testing.T, m metricdata.Metrics, key string) map[string]int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "%s: expected int64 sum, got %T", m.Name, m.Data)
	out := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key(key))
		out[v.AsString()] += dp.Value
	}
	return out
}

func TestQueryMetrics_Recorded(t *testing.T) {
	reader, metrics := newReader(t)

	ctx := context.Background()
	metrics.WorkerStarted(ctx)
	metrics.WorkerStarted(ctx)
	metrics.WorkerStopped(ctx)
	metrics.RecordElements(ctx, OutcomeKept, 4)
	metrics.RecordElements(ctx, OutcomeDropped, 4)
	metrics.RecordElements(ctx, OutcomeFailed, 2)
	metrics.RecordElements(ctx, OutcomeFailed, 0)
	metrics.RecordError(ctx, "STAGE_FAILED")
	metrics.RecordError(ctx, "STAGE_FAILED")
	metrics.RecordQuery(ctx, "faulted", 20*time.Millisecond)

	got := collect(t, reader)

	assert.Equal(t, map[string]int64{OutcomeKept: 4, OutcomeDropped: 4, OutcomeFailed: 2},
		sumByAttr(t, got[MetricElementsTotal], AttrOutcome))
	assert.Equal(t, int64(2), sumByAttr(t, got[MetricErrorsTotal], AttrErrorCode)["STAGE_FAILED"])
	assert.Equal(t, int64(1), sumByAttr(t, got[MetricQueryTotal], AttrState)["faulted"])

	active, ok := got[MetricWorkersActive].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, active.DataPoints, 1)
	assert.Equal(t, int64(1), active.DataPoints[0].Value)

	hist, ok := got[MetricQueryDuration].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(1), hist.DataPoints[0].Count)
}

func TestRun_RecordsSpanAndMetrics(t *testing.T) {
	exporter := installTracer(t)
	reader, metrics := newReader(t)

	run := NewRun("q-1", "for_all", metrics)
	ctx := run.Start(context.Background(), attribute.Int(AttrWorkers, 4))
	require.Same(t, run, RunFromContext(ctx))
	run.End(ctx, "faulted", fmt.Errorf("2 error(s) occurred"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, SpanQueryRun, span.Name)

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, "q-1", attrs[AttrQueryID].AsString())
	assert.Equal(t, "faulted", attrs[AttrState].AsString())
	assert.Equal(t, int64(4), attrs[AttrWorkers].AsInt64())
	assert.NotEmpty(t, span.Events, "the error is recorded as a span event")

	assert.Equal(t, int64(1), sumByAttr(t, collect(t, reader)[MetricQueryTotal], AttrState)["faulted"])
}

func TestRun_NilMetrics(t *testing.T) {
	run := NewRun("q-2", "iterate", nil)
	ctx := run.Start(context.Background())
	run.End(ctx, "completed", nil)
}

func TestRun_EndWithoutStart(t *testing.T) {
	run := NewRun("q-3", "iterate", nil)
	run.End(context.Background(), "cancelled", nil)
}

func TestRunFromContext_NotSet(t *testing.T) {
	assert.Nil(t, RunFromContext(context.Background()))
}

func TestRun_Duration(t *testing.T) {
	run := NewRun("q-4", "iterate", nil)
	run.StartTime = time.Now().Add(-50 * time.Millisecond)

	d := run.Duration()
	assert.GreaterOrEqual(t, d, 45*time.Millisecond)
	assert.LessOrEqual(t, d, 200*time.Millisecond)
}

func TestTracer(t *testing.T) {
	assert.NotNil(t, Tracer("test-tracer"))
}

func TestMeter(t *testing.T) {
	assert.NotNil(t, Meter("test-meter"))
}

func TestStartSpan(t *testing.T) {
	ctx, span := StartSpan(context.Background(), "test-operation")
	defer span.End()

	require.NotNil(t, span)
	assert.NotNil(t, SpanFromContext(ctx))
}

func TestSetSpanAttribute(t *testing.T) {
	exporter := installTracer(t)

	ctx, span := StartSpan(context.Background(), "test-attrs")
	SetSpanAttribute(ctx, "string-key", "value")
	SetSpanAttribute(ctx, "int-key", 42)
	SetSpanAttribute(ctx, "int64-key", int64(100))
	SetSpanAttribute(ctx, "float-key", 3.14)
	SetSpanAttribute(ctx, "bool-key", true)
	SetSpanAttribute(ctx, "string-slice-key", []string{"a", "b"})
	// unsupported types are ignored
	SetSpanAttribute(ctx, "unsupported-key", struct{}{})
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Len(t, spans[0].Attributes, 6)
}

func TestSetSpanAttributeNoSpan(t *testing.T) {
	SetSpanAttribute(context.Background(), "key", "value")
}

func TestSetSpanError(t *testing.T) {
	exporter := installTracer(t)

	ctx, span := StartSpan(context.Background(), "test-error")
	SetSpanError(ctx, fmt.Errorf("test error"))
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "test error", spans[0].Status.Description)
}

func TestSetSpanErrorNoSpan(t *testing.T) {
	SetSpanError(context.Background(), fmt.Errorf("no span error"))
}

func TestInitTracer(t *testing.T) {
	cfg := DefaultTracerConfig("people")
	cfg.Environment = "test"

	tp, err := InitTracer(context.Background(), cfg)
	if err != nil {
		t.Skipf("InitTracer failed: %v", err)
	}
	defer tp.Shutdown(context.Background())
}

func TestInitMeter(t *testing.T) {
	cfg := DefaultMeterConfig("people")
	cfg.Environment = "test"
	cfg.Interval = 0

	mp, err := InitMeter(context.Background(), cfg)
	if err != nil {
		t.Skipf("InitMeter failed: %v", err)
	}
	defer mp.Shutdown(context.Background())
}
