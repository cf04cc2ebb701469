package query

import (
	"github.com/kbukum/parq/logger"
	"github.com/kbukum/parq/observability"
	"github.com/kbukum/parq/partition"
)

// Option customizes a handle.
type Option func(*options)

type options struct {
	log      *logger.Logger
	metrics  *observability.QueryMetrics
	strategy partition.Strategy
	onStart  func(id int)
	onStop   func(id int)
}

// WithLogger sets the logger. Defaults to the "query" component logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records query instruments on m.
func WithMetrics(m *observability.QueryMetrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithStrategy selects how materialized inputs are split. Defaults to
// partition.Range.
func WithStrategy(s partition.Strategy) Option {
	return func(o *options) { o.strategy = s }
}

// WithWorkerHooks runs start and stop on each worker goroutine as it begins
// and ends. Either may be nil.
func WithWorkerHooks(start, stop func(id int)) Option {
	return func(o *options) {
		o.onStart = start
		o.onStop = stop
	}
}
