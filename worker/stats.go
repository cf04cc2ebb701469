package worker

import "go.uber.org/atomic"

// Stats tracks how many workers are processing a partition at once.
// All methods are safe for concurrent use.
type Stats struct {
	active     atomic.Int64
	peak       atomic.Int64
	started    atomic.Int64
	partitions atomic.Int64
}

// Active returns the number of workers currently processing a partition.
func (s *Stats) Active() int { return int(s.active.Load()) }

// Peak returns the highest Active value observed.
func (s *Stats) Peak() int { return int(s.peak.Load()) }

// Started returns the number of worker goroutines started.
func (s *Stats) Started() int { return int(s.started.Load()) }

// Partitions returns the number of partitions processed.
func (s *Stats) Partitions() int { return int(s.partitions.Load()) }

func (s *Stats) enter() {
	n := s.active.Inc()
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			return
		}
	}
}

func (s *Stats) leave() {
	s.active.Dec()
	s.partitions.Inc()
}
