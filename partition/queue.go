package partition

import (
	"context"

	"go.uber.org/atomic"
)

// Queue hands out a fixed set of partitions, each exactly once.
type Queue[T any] struct {
	parts []Partition[T]
	next  *atomic.Int64
}

// NewQueue creates a claim queue over parts.
func NewQueue[T any](parts []Partition[T]) *Queue[T] {
	return &Queue[T]{parts: parts, next: atomic.NewInt64(-1)}
}

// Claim returns the next unclaimed partition. It is safe for concurrent use.
func (q *Queue[T]) Claim(ctx context.Context) (Partition[T], bool, error) {
	if err := ctx.Err(); err != nil {
		return Partition[T]{}, false, err
	}
	i := int(q.next.Inc())
	if i >= len(q.parts) {
		return Partition[T]{}, false, nil
	}
	return q.parts[i], true, nil
}

// Len returns the number of partitions the queue started with.
func (q *Queue[T]) Len() int { return len(q.parts) }

// Total returns the number of elements across all partitions.
func (q *Queue[T]) Total() int {
	total := 0
	for _, p := range q.parts {
		total += len(p.Items)
	}
	return total
}
