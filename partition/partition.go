package partition

import (
	"context"
	"fmt"

	"github.com/kbukum/parq/errors"
)

// Item is one input element tagged with its original position.
type Item[T any] struct {
	Index int
	Value T
}

// Partition is a disjoint slice of the input claimed by exactly one worker.
type Partition[T any] struct {
	ID    int
	Items []Item[T]
}

// Len returns the number of elements in the partition.
func (p Partition[T]) Len() int { return len(p.Items) }

// Source hands out partitions until the input is exhausted.
// Claim returns (zero, false, nil) when nothing is left.
type Source[T any] interface {
	Claim(ctx context.Context) (Partition[T], bool, error)
}

// Strategy selects how a materialized input is split.
type Strategy int

const (
	// Range gives each partition a contiguous block of indices.
	Range Strategy = iota
	// Striped deals indices round-robin: element i lands in partition i % degree.
	Striped
)

func (s Strategy) String() string {
	switch s {
	case Range:
		return "range"
	case Striped:
		return "striped"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Split divides items into at most degree non-empty partitions covering every
// index exactly once. Range partitions differ in size by at most one.
func Split[T any](items []T, degree int, strategy Strategy) ([]Partition[T], error) {
	if degree <= 0 {
		return nil, errors.InvalidConfiguration("degree", fmt.Sprintf("partition count must be positive, got %d", degree))
	}
	n := len(items)
	if n == 0 {
		return nil, nil
	}
	if degree > n {
		degree = n
	}

	switch strategy {
	case Range:
		return splitRange(items, degree), nil
	case Striped:
		return splitStriped(items, degree), nil
	default:
		return nil, errors.InvalidConfiguration("strategy", fmt.Sprintf("unknown partition strategy %s", strategy))
	}
}

func splitRange[T any](items []T, degree int) []Partition[T] {
	n := len(items)
	size, extra := n/degree, n%degree
	parts := make([]Partition[T], 0, degree)
	start := 0
	for id := 0; id < degree; id++ {
		end := start + size
		if id < extra {
			end++
		}
		p := Partition[T]{ID: id, Items: make([]Item[T], 0, end-start)}
		for i := start; i < end; i++ {
			p.Items = append(p.Items, Item[T]{Index: i, Value: items[i]})
		}
		parts = append(parts, p)
		start = end
	}
	return parts
}

func splitStriped[T any](items []T, degree int) []Partition[T] {
	parts := make([]Partition[T], degree)
	per := (len(items) + degree - 1) / degree
	for id := range parts {
		parts[id] = Partition[T]{ID: id, Items: make([]Item[T], 0, per)}
	}
	for i, v := range items {
		p := &parts[i%degree]
		p.Items = append(p.Items, Item[T]{Index: i, Value: v})
	}
	return parts
}
