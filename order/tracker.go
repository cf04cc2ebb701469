package order

import (
	"context"
	"sync"
)

type slot[T any] struct {
	value T
	kept  bool
}

// Tracker releases kept values in original index order. An index whose
// outcome is not yet known holds back every later index.
type Tracker[T any] struct {
	mu     sync.Mutex
	slots  map[int]slot[T]
	cursor int
	total  int
	err    error
	wake   signal
}

var _ Sink[int] = (*Tracker[int])(nil)

// NewTracker creates an ordered sink.
func NewTracker[T any]() *Tracker[T] {
	return &Tracker[T]{
		slots: make(map[int]slot[T]),
		total: -1,
		wake:  newSignal(),
	}
}

func (t *Tracker[T]) Kept(idx int, v T) { t.record(idx, slot[T]{value: v, kept: true}) }

func (t *Tracker[T]) Dropped(idx int) { t.record(idx, slot[T]{}) }

func (t *Tracker[T]) Failed(idx int) { t.record(idx, slot[T]{}) }

func (t *Tracker[T]) record(idx int, s slot[T]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < t.cursor {
		return
	}
	t.slots[idx] = s
	if idx == t.cursor {
		t.wake.broadcast()
	}
}

func (t *Tracker[T]) Finish(total int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total = total
	t.wake.broadcast()
}

func (t *Tracker[T]) Abort(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err == nil {
		t.err = err
	}
	t.wake.broadcast()
}

// Next returns the kept value with the lowest unreleased index, skipping
// dropped and failed indices.
func (t *Tracker[T]) Next(ctx context.Context) (T, bool, error) {
	var zero T
	t.mu.Lock()
	defer t.mu.Unlock()
	for {
		for {
			s, ok := t.slots[t.cursor]
			if !ok {
				break
			}
			delete(t.slots, t.cursor)
			t.cursor++
			if s.kept {
				return s.value, true, nil
			}
		}
		if t.err != nil {
			return zero, false, t.err
		}
		if t.total >= 0 && t.cursor >= t.total {
			return zero, false, nil
		}
		if err := wait(ctx, &t.mu, t.wake.ch); err != nil {
			return zero, false, err
		}
	}
}

// Cut returns the first index not yet released. After n values were taken
// with Next, every index below Cut has been accounted for.
func (t *Tracker[T]) Cut() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursor
}

// Buffered returns how many outcomes are waiting on an earlier index.
func (t *Tracker[T]) Buffered() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}
