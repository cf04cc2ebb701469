package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Run tracks the span and metrics of one query run.
type Run struct {
	QueryID   string
	Operation string
	StartTime time.Time
	Metrics   *QueryMetrics

	span trace.Span
}

// NewRun creates a run. If metrics is nil, metric recording is silently skipped.
func NewRun(queryID, operation string, metrics *QueryMetrics) *Run {
	return &Run{
		QueryID:   queryID,
		Operation: operation,
		StartTime: time.Now(),
		Metrics:   metrics,
	}
}

// runKey is the context key for Run.
type runKey struct{}

// WithRun stores a Run in the context.
func WithRun(ctx context.Context, r *Run) context.Context {
	return context.WithValue(ctx, runKey{}, r)
}

// RunFromContext retrieves the Run from context, or nil.
func RunFromContext(ctx context.Context) *Run {
	if r, ok := ctx.Value(runKey{}).(*Run); ok {
		return r
	}
	return nil
}

// Start opens the run's span and returns a context carrying both.
func (r *Run) Start(ctx context.Context, attrs ...attribute.KeyValue) context.Context {
	ctx, span := StartSpan(ctx, SpanQueryRun)
	span.SetAttributes(
		attribute.String(AttrQueryID, r.QueryID),
		attribute.String(AttrOperation, r.Operation),
	)
	span.SetAttributes(attrs...)
	r.span = span
	return WithRun(ctx, r)
}

// End closes the span and records the terminal state.
func (r *Run) End(ctx context.Context, state string, err error) {
	duration := r.Duration()

	if r.span != nil {
		if err != nil {
			r.span.RecordError(err)
			r.span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
		}
		r.span.SetAttributes(
			attribute.String(AttrState, state),
			attribute.Int64(AttrDurationMs, duration.Milliseconds()),
		)
		r.span.End()
	}

	if r.Metrics != nil {
		r.Metrics.RecordQuery(ctx, state, duration)
	}
}

// Duration returns the elapsed time since the run started.
func (r *Run) Duration() time.Duration {
	return time.Since(r.StartTime)
}
