package order

import (
	"context"
	"sync"
)

// Sink receives per-index outcomes from workers and releases kept values to
// a single reader.
type Sink[T any] interface {
	// Kept records a surviving value for index idx.
	Kept(idx int, v T)
	// Dropped records that a filter rejected index idx.
	Dropped(idx int)
	// Failed records that a stage failed on index idx.
	Failed(idx int)
	// Finish declares that no more outcomes will arrive and that total
	// indices were handed out.
	Finish(total int)
	// Abort stops the sink. Next keeps releasing what is already releasable,
	// then returns err.
	Abort(err error)
	// Next returns the next releasable value. It returns (zero, false, nil)
	// once everything has been released.
	Next(ctx context.Context) (T, bool, error)
}

// signal is a broadcast that readers wait on outside the lock.
type signal struct {
	ch chan struct{}
}

func newSignal() signal { return signal{ch: make(chan struct{})} }

// broadcast wakes every waiter. Callers hold the owning mutex.
func (s *signal) broadcast() {
	close(s.ch)
	s.ch = make(chan struct{})
}

func wait(ctx context.Context, mu *sync.Mutex, ch <-chan struct{}) error {
	mu.Unlock()
	defer mu.Lock()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ch:
		return nil
	}
}
