package query

import (
	"context"
	"fmt"

	"github.com/kbukum/parq/errors"
	"github.com/kbukum/parq/order"
	"github.com/kbukum/parq/pipeline"
)

// ForAll runs fn on every surviving element, from the worker goroutines, in
// no particular order. fn must be safe for concurrent use. ForAll blocks
// until every element was attempted and returns nil, the *aggregate.Failure
// of a faulted query, or a CANCELLED error. A panic in fn fails that element.
func (h *Handle[In, Out]) ForAll(ctx context.Context, fn func(Out)) error {
	if fn == nil {
		return errors.InvalidConfiguration("fn", "ForAll needs a callback")
	}
	if _, err := h.start(ctx, "for_all", OrderingRelax, nil, fn); err != nil {
		return err
	}
	<-h.done
	return h.Err()
}

// Iterate starts the query and returns an iterator over its results, in
// input order when the handle preserves ordering. Next blocks until a result
// is available. Once the results are exhausted Next returns the terminal
// error, if any. Close stops a query that is still running; the caller must
// Close the iterator.
func (h *Handle[In, Out]) Iterate(ctx context.Context) pipeline.Iterator[Out] {
	return h.iterate(ctx, "iterate", h.cfg.Ordering)
}

// ToSlice collects every result of Iterate.
func (h *Handle[In, Out]) ToSlice(ctx context.Context) ([]Out, error) {
	it := h.iterate(ctx, "to_slice", h.cfg.Ordering)
	var out []Out
	for {
		v, ok, err := it.Next(ctx)
		if err != nil {
			return out, it.finish(err)
		}
		if !ok {
			return out, it.finish(nil)
		}
		out = append(out, v)
	}
}

// TakeOrdered returns the first n results in input order, whatever the
// handle's ordering. Dispatch stops once n results are known; workers finish
// the element they are on. Only failures of elements before the last taken
// one fault the query.
func (h *Handle[In, Out]) TakeOrdered(ctx context.Context, n int) ([]Out, error) {
	if n < 0 {
		return nil, errors.InvalidConfiguration("n", fmt.Sprintf("cannot take a negative number of results (%d)", n))
	}
	it := h.iterate(ctx, "take_ordered", OrderingPreserve)
	out := make([]Out, 0, n)
	for len(out) < n {
		v, ok, err := it.Next(ctx)
		if err != nil {
			return out, it.finish(err)
		}
		if !ok {
			break
		}
		out = append(out, v)
	}
	return out, it.finish(nil)
}

// AsSequential exposes the results, in input order, as a pipeline for the
// sequential operators:
//
//	first, err := pipeline.Collect(ctx, pipeline.Take(h.AsSequential(ctx), 4))
//
// The query starts when the pipeline is iterated. Closing the iterator early
// stops the query the way TakeOrdered does.
func (h *Handle[In, Out]) AsSequential(ctx context.Context) *pipeline.Pipeline[Out] {
	return pipeline.FromFunc(func(context.Context) pipeline.Iterator[Out] {
		return h.iterate(ctx, "as_sequential", OrderingPreserve)
	})
}

func (h *Handle[In, Out]) iterate(ctx context.Context, operation string, ordering Ordering) *resultIter[In, Out] {
	var sink order.Sink[Out]
	if ordering == OrderingPreserve {
		sink = order.NewTracker[Out]()
	} else {
		sink = order.NewUnordered[Out]()
	}
	r, err := h.start(ctx, operation, ordering, sink, nil)
	return &resultIter[In, Out]{h: h, r: r, err: err}
}

// resultIter reads a run's sink and reports back where the reader stopped.
type resultIter[In, Out any] struct {
	h        *Handle[In, Out]
	r        *run[Out]
	err      error
	finished bool
}

var _ pipeline.Iterator[int] = (*resultIter[int, int])(nil)

func (it *resultIter[In, Out]) Next(ctx context.Context) (Out, bool, error) {
	var zero Out
	if it.finished {
		return zero, false, nil
	}
	if it.err != nil {
		it.finished = true
		return zero, false, it.err
	}

	v, ok, err := it.r.sink.Next(ctx)
	if ok {
		return v, true, nil
	}
	if err != nil && err == ctx.Err() {
		return zero, false, err
	}
	it.finished = true
	it.r.reportCut(allErrors)
	<-it.h.done
	return zero, false, it.h.Err()
}

// Close stops the query if it is still running and waits for it to reach a
// terminal state. It returns the terminal error.
func (it *resultIter[In, Out]) Close() error {
	if it.r == nil {
		return nil
	}
	if !it.finished {
		it.finished = true
		cut := allErrors
		if t, ok := it.r.sink.(interface{ Cut() int }); ok {
			cut = t.Cut()
		}
		it.r.reportCut(cut)
		it.r.cancel(errConsumerStopped)
	}
	<-it.h.done
	return it.h.Err()
}

// finish closes the iterator and prefers the query's terminal error over
// the error that stopped the read.
func (it *resultIter[In, Out]) finish(readErr error) error {
	if err := it.Close(); err != nil {
		return err
	}
	return readErr
}
