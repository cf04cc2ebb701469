// Package observability provides OpenTelemetry tracing and metrics for query
// runs.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("people"))
//	defer tp.Shutdown(ctx)
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, observability.DefaultMeterConfig("people"))
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewQueryMetrics(observability.Meter("people"))
//
// A query run is wrapped in a Run, which owns the span and records the
// terminal state and duration when it ends.
package observability
