package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/parq/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Instrument names.
const (
	MetricQueryTotal    = "parq.query.total"
	MetricQueryDuration = "parq.query.duration"
	MetricWorkersActive = "parq.workers.active"
	MetricElementsTotal = "parq.elements.total"
	MetricErrorsTotal   = "parq.errors.total"
)

// Element outcomes recorded on MetricElementsTotal.
const (
	OutcomeKept    = "kept"
	OutcomeDropped = "dropped"
	OutcomeFailed  = "failed"
)

// QueryMetrics holds the instruments recorded by query runs.
type QueryMetrics struct {
	queryTotal    metric.Int64Counter
	queryDuration metric.Float64Histogram
	workersActive metric.Int64UpDownCounter
	elementsTotal metric.Int64Counter
	errorsTotal   metric.Int64Counter
}

// NewQueryMetrics creates query instruments on the given meter.
func NewQueryMetrics(meter metric.Meter) (*QueryMetrics, error) {
	queryTotal, err := meter.Int64Counter(MetricQueryTotal,
		metric.WithDescription("Total number of query runs by terminal state"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricQueryTotal, err)
	}

	queryDuration, err := meter.Float64Histogram(MetricQueryDuration,
		metric.WithDescription("Duration of query runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricQueryDuration, err)
	}

	workersActive, err := meter.Int64UpDownCounter(MetricWorkersActive,
		metric.WithDescription("Number of running query workers"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricWorkersActive, err)
	}

	elementsTotal, err := meter.Int64Counter(MetricElementsTotal,
		metric.WithDescription("Elements processed by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricElementsTotal, err)
	}

	errorsTotal, err := meter.Int64Counter(MetricErrorsTotal,
		metric.WithDescription("Errors recorded by query runs, by code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricErrorsTotal, err)
	}

	return &QueryMetrics{
		queryTotal:    queryTotal,
		queryDuration: queryDuration,
		workersActive: workersActive,
		elementsTotal: elementsTotal,
		errorsTotal:   errorsTotal,
	}, nil
}

// WorkerStarted increments the running worker count.
func (m *QueryMetrics) WorkerStarted(ctx context.Context) {
	m.workersActive.Add(ctx, 1)
}

// WorkerStopped decrements the running worker count.
func (m *QueryMetrics) WorkerStopped(ctx context.Context) {
	m.workersActive.Add(ctx, -1)
}

// RecordElements adds n elements with the given outcome.
func (m *QueryMetrics) RecordElements(ctx context.Context, outcome string, n int64) {
	if n == 0 {
		return
	}
	m.elementsTotal.Add(ctx, n, metric.WithAttributes(attribute.String(AttrOutcome, outcome)))
}

// RecordError records an error by code.
func (m *QueryMetrics) RecordError(ctx context.Context, code string) {
	m.errorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrErrorCode, code)))
}

// RecordQuery records a finished run.
func (m *QueryMetrics) RecordQuery(ctx context.Context, state string, duration time.Duration) {
	m.queryTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrState, state)))
	m.queryDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrState, state),
	))
}
