package worker

import (
	"fmt"
	"runtime"

	"github.com/kbukum/parq/errors"
)

// Planning is the input to Plan.
type Planning struct {
	// Degree is the requested worker count. Zero means auto.
	Degree int
	// Forced requires at least two workers.
	Forced bool
	// MaxDegree caps the worker count. Zero means no cap.
	MaxDegree int
	// SequentialThreshold is the known input size below which auto mode
	// runs a single worker.
	SequentialThreshold int
	// Size is the input size, or -1 when unknown.
	Size int
}

// Plan resolves the worker count for a query.
func Plan(p Planning) (int, error) {
	if p.Degree < 0 {
		return 0, errors.InvalidConfiguration("degree", fmt.Sprintf("degree must be positive or auto, got %d", p.Degree))
	}
	if p.MaxDegree < 0 {
		return 0, errors.InvalidConfiguration("max_degree", fmt.Sprintf("max degree must not be negative, got %d", p.MaxDegree))
	}
	if p.Forced {
		if p.Degree == 1 {
			return 0, errors.InvalidConfiguration("degree", "forced-parallel mode requires a degree of at least 2")
		}
		if p.MaxDegree == 1 {
			return 0, errors.InvalidConfiguration("max_degree", "forced-parallel mode requires a max degree of at least 2")
		}
	}

	n := p.Degree
	if n == 0 {
		n = runtime.GOMAXPROCS(0)
	}
	if p.MaxDegree > 0 && n > p.MaxDegree {
		n = p.MaxDegree
	}

	if p.Forced {
		return max(n, 2), nil
	}
	if p.Size >= 0 {
		if p.Size < p.SequentialThreshold {
			return 1, nil
		}
		n = min(n, p.Size)
	}
	return max(n, 1), nil
}
