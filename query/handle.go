package query

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/kbukum/parq/errors"
	"github.com/kbukum/parq/logger"
	"github.com/kbukum/parq/partition"
	"github.com/kbukum/parq/pipeline"
	"github.com/kbukum/parq/worker"
)

// ErrAlreadyRun is returned when a handle that already ran is run again.
// Build a new handle to re-run a query.
var ErrAlreadyRun = errors.New(errors.ErrCodeInternal, "query has already run")

// Stats summarizes a query run.
type Stats struct {
	Kept        int64
	Dropped     int64
	Failed      int64
	Workers     int
	PeakWorkers int
	Partitions  int
	Duration    time.Duration
}

// Handle is one configured query: a source, a stage chain and a Config.
// A handle runs at most once, through exactly one of ForAll, Iterate,
// TakeOrdered, AsSequential or ToSlice.
type Handle[In, Out any] struct {
	id      uuid.UUID
	src     *pipeline.Pipeline[In]
	chain   *pipeline.Chain[In, Out]
	cfg     Config
	workers int
	opts    options
	log     *logger.Logger
	pool    worker.Pool

	state   atomic.Int32
	kept    atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64

	mu        sync.Mutex
	cancel    context.CancelCauseFunc
	cancelled bool
	runCtx    context.Context
	duration  time.Duration
	err       error
	done      chan struct{}
}

// New validates cfg, plans the worker count and returns a handle in the
// Configured state. Nothing runs until a terminal operation is called.
func New[In, Out any](src *pipeline.Pipeline[In], chain *pipeline.Chain[In, Out], cfg Config, opts ...Option) (*Handle[In, Out], error) {
	if src == nil || chain == nil {
		return nil, errors.InvalidConfiguration("", "a query needs a source and a stage chain")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	workers, err := worker.Plan(worker.Planning{
		Degree:              int(cfg.Degree),
		Forced:              cfg.Forced(),
		MaxDegree:           cfg.MaxDegree,
		SequentialThreshold: cfg.SequentialThreshold,
		Size:                src.Len(),
	})
	if err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.strategy != partition.Range && o.strategy != partition.Striped {
		return nil, errors.InvalidConfiguration("strategy", fmt.Sprintf("unknown partition strategy %s", o.strategy))
	}
	if o.log == nil {
		o.log = logger.Get("query")
	}

	id := uuid.New()
	h := &Handle[In, Out]{
		id:      id,
		src:     src,
		chain:   chain,
		cfg:     cfg,
		workers: workers,
		opts:    o,
		log:     o.log.WithFields(logger.Fields(logger.FieldQueryID, id.String())),
		done:    make(chan struct{}),
	}
	h.pool = worker.Pool{Workers: workers, OnStart: h.workerStarted, OnStop: h.workerStopped}
	return h, nil
}

// ID identifies the handle in logs, spans and failures.
func (h *Handle[In, Out]) ID() uuid.UUID { return h.id }

// Config returns the handle's configuration with defaults applied.
func (h *Handle[In, Out]) Config() Config { return h.cfg }

// Workers returns the planned worker count.
func (h *Handle[In, Out]) Workers() int { return h.workers }

// State returns the current lifecycle state.
func (h *Handle[In, Out]) State() State { return State(h.state.Load()) }

// Err returns the terminal error, or nil while running or on success.
func (h *Handle[In, Out]) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

// Done is closed once the handle reaches a terminal state.
func (h *Handle[In, Out]) Done() <-chan struct{} { return h.done }

// Stats returns a snapshot of the run's counters.
func (h *Handle[In, Out]) Stats() Stats {
	h.mu.Lock()
	d := h.duration
	h.mu.Unlock()
	s := h.pool.Stats()
	return Stats{
		Kept:        h.kept.Load(),
		Dropped:     h.dropped.Load(),
		Failed:      h.failed.Load(),
		Workers:     s.Started(),
		PeakWorkers: s.Peak(),
		Partitions:  s.Partitions(),
		Duration:    d,
	}
}

// Cancel asks a running query to stop. Workers finish the element they are
// on and claim nothing more. Cancelling a handle that has not run makes its
// run end Cancelled without dispatching; cancelling a finished handle does
// nothing.
func (h *Handle[In, Out]) Cancel() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.cancel != nil {
		h.cancel(context.Canceled)
		return
	}
	h.cancelled = true
}

func (h *Handle[In, Out]) workerStarted(id int) {
	if h.opts.metrics != nil {
		h.opts.metrics.WorkerStarted(h.runCtx)
	}
	if h.opts.onStart != nil {
		h.opts.onStart(id)
	}
}

func (h *Handle[In, Out]) workerStopped(id int) {
	if h.opts.onStop != nil {
		h.opts.onStop(id)
	}
	if h.opts.metrics != nil {
		h.opts.metrics.WorkerStopped(h.runCtx)
	}
}
