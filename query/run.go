package query

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kbukum/parq/aggregate"
	"github.com/kbukum/parq/errors"
	"github.com/kbukum/parq/logger"
	"github.com/kbukum/parq/observability"
	"github.com/kbukum/parq/order"
	"github.com/kbukum/parq/partition"
	"github.com/kbukum/parq/pipeline"
	"github.com/kbukum/parq/worker"
)

var (
	// errConsumerStopped cancels dispatch when the reader has what it needs.
	errConsumerStopped = stderrors.New("consumer stopped reading")
	errThreshold       = stderrors.New("error threshold reached")
)

// allErrors is the cut that keeps every recorded error.
const allErrors = -1

// forAllStage names the ForAll callback when it panics.
const forAllStage = "for_all"

// run is the state of one dispatch. sink is nil for ForAll, which pushes
// kept values to emit instead.
type run[Out any] struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	sink   order.Sink[Out]
	emit   func(Out)
	agg    *aggregate.Aggregator
	obs    *observability.Run

	// cuts carries the reader's stopping point back to the run. Buffered, sent once.
	cuts    chan int
	cutOnce sync.Once
}

func (r *run[Out]) reportCut(cut int) {
	r.cutOnce.Do(func() { r.cuts <- cut })
}

// awaitCut waits for the reader to finish or stop. A reader that stopped
// early reports its cut before cancelling, so the cut is always available
// once the cause is errConsumerStopped.
func (r *run[Out]) awaitCut() (int, error) {
	select {
	case cut := <-r.cuts:
		return cut, nil
	case <-r.ctx.Done():
		if cause := context.Cause(r.ctx); cause != errConsumerStopped {
			return 0, cause
		}
		return <-r.cuts, nil
	}
}

func (h *Handle[In, Out]) start(ctx context.Context, operation string, ordering Ordering, sink order.Sink[Out], emit func(Out)) (*run[Out], error) {
	if !h.state.CompareAndSwap(int32(Configured), int32(Running)) {
		return nil, ErrAlreadyRun
	}

	obs := observability.NewRun(h.id.String(), operation, h.opts.metrics)
	ctx = obs.Start(ctx,
		attribute.Int(observability.AttrWorkers, h.workers),
		attribute.String(observability.AttrMode, string(h.cfg.Mode)),
		attribute.String(observability.AttrOrdering, string(ordering)),
	)
	// Stage functions receive this context and can log through
	// Logger.WithContext to pick up the query id.
	ctx = logger.ContextWithQueryID(ctx, h.id.String())
	runCtx, cancel := context.WithCancelCause(ctx)

	r := &run[Out]{ctx: runCtx, cancel: cancel, sink: sink, emit: emit, obs: obs}
	if sink != nil {
		r.cuts = make(chan int, 1)
	}
	r.agg = aggregate.New(h.id, h.cfg.MaxErrors, func() { cancel(errThreshold) })

	h.mu.Lock()
	h.cancel = cancel
	h.runCtx = runCtx
	if h.cancelled {
		cancel(context.Canceled)
	}
	h.mu.Unlock()

	h.log.Debug("query started", logger.Fields(
		logger.FieldWorkers, h.workers,
		logger.FieldMode, string(h.cfg.Mode),
		logger.FieldOrdering, string(ordering),
		"operation", operation,
	))

	go h.execute(r)
	return r, nil
}

func (h *Handle[In, Out]) execute(r *run[Out]) {
	src, total, closeSrc := h.partitions(r.ctx)
	err := worker.Run[partition.Partition[In]](r.ctx, &h.pool, src, func(ctx context.Context, id int, p partition.Partition[In]) {
		h.process(ctx, r, id, p)
	})
	if closeSrc != nil {
		if cerr := closeSrc(); cerr != nil {
			h.log.Warn("closing data source", logger.Fields(logger.FieldError, cerr.Error()))
		}
	}

	sourceFailed := err != nil
	if sourceFailed {
		r.agg.Record(err)
		h.recordError(r.ctx, err)
		h.log.Warn("data source failed", logger.Fields(logger.FieldError, err.Error()))
	}
	r.agg.Seal()
	h.finish(r, total(), sourceFailed)
}

// partitions picks the partitioner: materialized inputs are split up front
// across the planned workers, anything else is chunked on demand.
func (h *Handle[In, Out]) partitions(ctx context.Context) (partition.Source[In], func() int, func() error) {
	if items, ok := h.src.Materialized(); ok {
		parts, err := partition.Split(items, h.workers, h.opts.strategy)
		if err != nil {
			return failedSource[In]{err: err}, func() int { return 0 }, nil
		}
		q := partition.NewQueue(parts)
		return q, q.Total, nil
	}
	c := partition.NewChunked(ctx, h.src.Iter(ctx), h.cfg.ChunkSize)
	return c, c.Total, c.Close
}

func (h *Handle[In, Out]) process(ctx context.Context, r *run[Out], workerID int, p partition.Partition[In]) {
	var kept, dropped, failed int64
	for _, item := range p.Items {
		if ctx.Err() != nil {
			break
		}
		o := h.chain.Apply(ctx, item.Value)
		if o.Kept && r.emit != nil {
			if err := invoke(r.emit, o.Value); err != nil {
				o = pipeline.Outcome[Out]{Err: err, Stage: forAllStage}
			}
		}

		switch {
		case o.Failed():
			failed++
			err := errors.StageFailed(o.Stage, item.Index, o.Err)
			r.agg.Record(err)
			h.recordError(ctx, err)
			if r.sink != nil {
				r.sink.Failed(item.Index)
			}
			if h.log.Enabled(zerolog.DebugLevel) {
				h.log.Debug("stage failed", logger.Fields(
					logger.FieldWorker, workerID,
					logger.FieldPartition, p.ID,
					logger.FieldIndex, item.Index,
					logger.FieldStage, o.Stage,
					logger.FieldError, o.Err.Error(),
				))
			}
		case o.Kept:
			kept++
			if r.sink != nil {
				r.sink.Kept(item.Index, o.Value)
			}
		default:
			dropped++
			if r.sink != nil {
				r.sink.Dropped(item.Index)
			}
		}
	}
	h.kept.Add(kept)
	h.dropped.Add(dropped)
	h.failed.Add(failed)
}

func (h *Handle[In, Out]) finish(r *run[Out], total int, sourceFailed bool) {
	state, err := h.resolve(r, total, sourceFailed)
	duration := r.obs.Duration()

	if m := h.opts.metrics; m != nil {
		m.RecordElements(r.ctx, observability.OutcomeKept, h.kept.Load())
		m.RecordElements(r.ctx, observability.OutcomeDropped, h.dropped.Load())
		m.RecordElements(r.ctx, observability.OutcomeFailed, h.failed.Load())
	}
	r.obs.End(r.ctx, state.String(), err)

	fields := logger.MergeWithDuration(logger.Fields(
		logger.FieldState, state.String(),
		logger.FieldWorkers, h.pool.Stats().Started(),
		"kept", h.kept.Load(),
		"dropped", h.dropped.Load(),
		"failed", h.failed.Load(),
	), duration)
	switch state {
	case Completed:
		h.log.Info("query completed", fields)
	default:
		h.log.WithError(err).Warn("query "+state.String(), fields)
	}

	h.mu.Lock()
	h.err = err
	h.duration = duration
	h.mu.Unlock()
	h.state.Store(int32(state))
	close(h.done)
	r.cancel(nil)
}

// resolve decides the terminal state once every worker has stopped.
// Caller cancellation wins over element failures. A reader that stopped early
// only sees the failures before its cut.
func (h *Handle[In, Out]) resolve(r *run[Out], total int, sourceFailed bool) (State, error) {
	cause := context.Cause(r.ctx)
	switch {
	case sourceFailed || cause == errThreshold:
		return h.fault(r, allErrors)
	case cause != nil && cause != errConsumerStopped:
		return h.abort(r, cause)
	}

	cut := allErrors
	if r.sink != nil {
		if cause == nil {
			r.sink.Finish(total)
		}
		var err error
		if cut, err = r.awaitCut(); err != nil {
			return h.abort(r, err)
		}
	}
	return h.fault(r, cut)
}

func (h *Handle[In, Out]) fault(r *run[Out], cut int) (State, error) {
	var (
		failure *aggregate.Failure
		err     error
	)
	if cut == allErrors {
		failure, err = r.agg.Finalize()
	} else {
		failure, err = r.agg.FinalizeBefore(cut)
	}
	if err != nil {
		h.abortSink(r, err)
		return Faulted, err
	}
	if failure == nil {
		return Completed, nil
	}
	h.abortSink(r, failure)
	return Faulted, failure
}

func (h *Handle[In, Out]) abort(r *run[Out], cause error) (State, error) {
	err := errors.Cancelled(cause)
	h.abortSink(r, err)
	return Cancelled, err
}

func (h *Handle[In, Out]) abortSink(r *run[Out], err error) {
	if r.sink != nil {
		r.sink.Abort(err)
	}
}

func (h *Handle[In, Out]) recordError(ctx context.Context, err error) {
	if h.opts.metrics == nil {
		return
	}
	code := string(errors.ErrCodeInternal)
	if appErr, ok := errors.AsAppError(err); ok {
		code = string(appErr.Code)
	}
	h.opts.metrics.RecordError(ctx, code)
}

// invoke calls fn, turning a panic into an error.
func invoke[T any](fn func(T), v T) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &pipeline.PanicError{Value: p}
		}
	}()
	fn(v)
	return nil
}

type failedSource[T any] struct {
	err error
}

func (s failedSource[T]) Claim(context.Context) (partition.Partition[T], bool, error) {
	return partition.Partition[T]{}, false, s.err
}
