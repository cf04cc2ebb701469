package partition

import (
	"context"
	"sync"

	"github.com/kbukum/parq/errors"
	"github.com/kbukum/parq/pipeline"
)

// Chunked partitions a single-pass source on demand. Each Claim pulls up to
// size elements from the source under a lock and stamps them with consecutive
// indices, so indices follow source order no matter which worker claims.
type Chunked[T any] struct {
	mu      sync.Mutex
	batches pipeline.Iterator[[]T]
	nextID  int
	total   int
	done    bool
}

// NewChunked wraps src. size <= 0 claims one element at a time.
func NewChunked[T any](ctx context.Context, src pipeline.Iterator[T], size int) *Chunked[T] {
	batched := pipeline.Batch(pipeline.From(src), size)
	return &Chunked[T]{batches: batched.Iter(ctx)}
}

// Claim pulls the next chunk. A source error is reported once, wrapped as
// SOURCE_FAILED, and every later claim reports exhaustion.
func (c *Chunked[T]) Claim(ctx context.Context) (Partition[T], bool, error) {
	if err := ctx.Err(); err != nil {
		return Partition[T]{}, false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return Partition[T]{}, false, nil
	}

	batch, ok, err := c.batches.Next(ctx)
	if err != nil {
		c.finish()
		if ctx.Err() != nil {
			return Partition[T]{}, false, ctx.Err()
		}
		return Partition[T]{}, false, errors.SourceFailed(err)
	}
	if !ok {
		c.finish()
		return Partition[T]{}, false, nil
	}

	p := Partition[T]{ID: c.nextID, Items: make([]Item[T], len(batch))}
	for i, v := range batch {
		p.Items[i] = Item[T]{Index: c.total + i, Value: v}
	}
	c.nextID++
	c.total += len(batch)
	return p, true, nil
}

// Total returns how many indices have been handed out so far. Once Claim
// reported exhaustion it is the size of the input.
func (c *Chunked[T]) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total
}

// Exhausted reports whether the source has been fully drained or failed.
func (c *Chunked[T]) Exhausted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Close releases the source. Safe to call more than once.
func (c *Chunked[T]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.batches == nil {
		return nil
	}
	err := c.batches.Close()
	c.batches = nil
	c.done = true
	return err
}

func (c *Chunked[T]) finish() {
	c.done = true
}
