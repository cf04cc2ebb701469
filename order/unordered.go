package order

import (
	"context"
	"sync"
)

// Unordered releases kept values in completion order.
type Unordered[T any] struct {
	mu    sync.Mutex
	queue []T
	done  bool
	err   error
	wake  signal
}

var _ Sink[int] = (*Unordered[int])(nil)

// NewUnordered creates a completion-order sink.
func NewUnordered[T any]() *Unordered[T] {
	return &Unordered[T]{wake: newSignal()}
}

func (u *Unordered[T]) Kept(_ int, v T) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.queue = append(u.queue, v)
	u.wake.broadcast()
}

func (u *Unordered[T]) Dropped(int) {}

func (u *Unordered[T]) Failed(int) {}

func (u *Unordered[T]) Finish(int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.done = true
	u.wake.broadcast()
}

func (u *Unordered[T]) Abort(err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err == nil {
		u.err = err
	}
	u.wake.broadcast()
}

func (u *Unordered[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	u.mu.Lock()
	defer u.mu.Unlock()
	for {
		if len(u.queue) > 0 {
			v := u.queue[0]
			u.queue[0] = zero
			u.queue = u.queue[1:]
			return v, true, nil
		}
		if u.err != nil {
			return zero, false, u.err
		}
		if u.done {
			return zero, false, nil
		}
		if err := wait(ctx, &u.mu, u.wake.ch); err != nil {
			return zero, false, err
		}
	}
}
