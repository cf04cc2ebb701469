package pipeline

import (
	"context"
	"fmt"
)

// Outcome is the result of running a Chain over one element: the element
// was kept (with its projected value), dropped by a filter, or failed.
type Outcome[T any] struct {
	Value T
	Kept  bool
	// Err is the error raised by the failing stage. Nil unless Failed.
	Err error
	// Stage names the stage that failed.
	Stage string
}

// Dropped reports whether a filter rejected the element.
func (o Outcome[T]) Dropped() bool { return !o.Kept && o.Err == nil }

// Failed reports whether a stage returned an error or panicked.
func (o Outcome[T]) Failed() bool { return o.Err != nil }

// PanicError wraps a value recovered from a panicking stage.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("stage panicked: %v", e.Value)
}

// Chain is an ordered list of filter and projection stages applied to each
// element of type In, producing Out. Chains are immutable: Where and Select
// return a new chain, so one chain can be shared by any number of workers.
//
// Stages must be free of side effects and must not mutate captured state.
type Chain[In, Out any] struct {
	apply func(ctx context.Context, in In) Outcome[Out]
	names []string
}

// Of starts an empty chain that keeps every element unchanged.
func Of[T any]() *Chain[T, T] {
	return &Chain[T, T]{
		apply: func(_ context.Context, in T) Outcome[T] {
			return Outcome[T]{Value: in, Kept: true}
		},
	}
}

// Where appends a filter stage. Elements for which pred returns false are dropped.
func Where[In, T any](c *Chain[In, T], pred func(T) bool) *Chain[In, T] {
	return TryWhere(c, func(_ context.Context, v T) (bool, error) {
		return pred(v), nil
	})
}

// TryWhere appends a filter stage whose predicate can fail. A failure skips
// the remaining stages for that element.
func TryWhere[In, T any](c *Chain[In, T], pred func(context.Context, T) (bool, error)) *Chain[In, T] {
	name := c.stageName("where")
	prev := c.apply
	return &Chain[In, T]{
		names: appendName(c.names, name),
		apply: func(ctx context.Context, in In) Outcome[T] {
			o := prev(ctx, in)
			if !o.Kept {
				return o
			}
			keep, err := guard(func() (bool, error) { return pred(ctx, o.Value) })
			if err != nil {
				return Outcome[T]{Err: err, Stage: name}
			}
			if !keep {
				return Outcome[T]{}
			}
			return o
		},
	}
}

// Select appends a projection stage mapping T to U.
func Select[In, T, U any](c *Chain[In, T], fn func(context.Context, T) (U, error)) *Chain[In, U] {
	name := c.stageName("select")
	prev := c.apply
	return &Chain[In, U]{
		names: appendName(c.names, name),
		apply: func(ctx context.Context, in In) Outcome[U] {
			o := prev(ctx, in)
			if !o.Kept {
				return Outcome[U]{Err: o.Err, Stage: o.Stage}
			}
			out, err := guard(func() (U, error) { return fn(ctx, o.Value) })
			if err != nil {
				return Outcome[U]{Err: err, Stage: name}
			}
			return Outcome[U]{Value: out, Kept: true}
		},
	}
}

// Apply runs every stage over in. Panics raised by a stage are recovered
// into a failed Outcome carrying a *PanicError.
func (c *Chain[In, Out]) Apply(ctx context.Context, in In) Outcome[Out] {
	return c.apply(ctx, in)
}

// Len returns the number of stages.
func (c *Chain[In, Out]) Len() int { return len(c.names) }

// Names returns the stage names in declaration order.
func (c *Chain[In, Out]) Names() []string {
	return append([]string(nil), c.names...)
}

func (c *Chain[In, Out]) stageName(kind string) string {
	return fmt.Sprintf("%s#%d", kind, len(c.names)+1)
}

// appendName never shares a backing array between chains.
func appendName(names []string, name string) []string {
	out := make([]string, len(names), len(names)+1)
	copy(out, names)
	return append(out, name)
}

func guard[R any](fn func() (R, error)) (r R, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{Value: p}
		}
	}()
	return fn()
}
