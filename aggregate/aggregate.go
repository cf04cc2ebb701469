// Package aggregate collects the element errors raised while a query runs and
// reports them as a single Failure once every worker has stopped.
package aggregate

import (
	stderrors "errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/kbukum/parq/errors"
)

// Aggregator is the shared error list of one query run.
type Aggregator struct {
	mu          sync.Mutex
	queryID     uuid.UUID
	errs        []error
	sealed      bool
	maxErrors   int
	onThreshold func()
	fired       bool
}

// New creates an aggregator. When maxErrors > 0, onThreshold runs once, on
// the recording goroutine, as the error count reaches maxErrors.
func New(queryID uuid.UUID, maxErrors int, onThreshold func()) *Aggregator {
	return &Aggregator{queryID: queryID, maxErrors: maxErrors, onThreshold: onThreshold}
}

// Record appends err. It returns false when the aggregator is already sealed.
func (a *Aggregator) Record(err error) bool {
	if err == nil {
		return true
	}
	a.mu.Lock()
	if a.sealed {
		a.mu.Unlock()
		return false
	}
	a.errs = append(a.errs, err)
	fire := a.maxErrors > 0 && !a.fired && len(a.errs) >= a.maxErrors
	if fire {
		a.fired = true
	}
	a.mu.Unlock()

	if fire && a.onThreshold != nil {
		a.onThreshold()
	}
	return true
}

// Count returns the number of errors recorded so far.
func (a *Aggregator) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.errs)
}

// Seal declares that every worker has stopped. Later Records are rejected.
func (a *Aggregator) Seal() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sealed = true
}

// Finalize returns the aggregated failure, or (nil, nil) when nothing failed.
// It must run after Seal.
func (a *Aggregator) Finalize() (*Failure, error) {
	return a.finalize(func(error) bool { return true })
}

// FinalizeBefore is Finalize restricted to errors at indices below cut.
// Errors that carry no element index, such as source failures, are kept.
func (a *Aggregator) FinalizeBefore(cut int) (*Failure, error) {
	return a.finalize(func(err error) bool {
		idx := errors.Index(err)
		return idx < 0 || idx < cut
	})
}

func (a *Aggregator) finalize(keep func(error) bool) (*Failure, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.sealed {
		return nil, errors.Internal("aggregator finalized while workers may still be running")
	}
	var errs []error
	for _, err := range a.errs {
		if keep(err) {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil, nil
	}
	return &Failure{queryID: a.queryID, errs: errs}, nil
}

// Failure is the error returned by a faulted query. It holds one entry per
// failed element, in the order the failures were recorded.
type Failure struct {
	queryID uuid.UUID
	errs    []error
}

func (f *Failure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "query %s failed: %d error(s) occurred", f.queryID, len(f.errs))
	for i, err := range f.errs {
		if i == 3 {
			fmt.Fprintf(&b, "; and %d more", len(f.errs)-i)
			break
		}
		b.WriteString("; ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Errors returns a copy of the recorded errors.
func (f *Failure) Errors() []error {
	return append([]error(nil), f.errs...)
}

// Count returns the number of recorded errors.
func (f *Failure) Count() int { return len(f.errs) }

// QueryID identifies the query run that produced the failure.
func (f *Failure) QueryID() uuid.UUID { return f.queryID }

// Code reports the failure as AGGREGATED_FAILURE.
func (f *Failure) Code() errors.ErrorCode { return errors.ErrCodeAggregatedFailure }

// Unwrap exposes every recorded error to errors.Is and errors.As.
func (f *Failure) Unwrap() []error { return f.Errors() }

// AsFailure extracts a *Failure from err's chain.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if stderrors.As(err, &f) {
		return f, true
	}
	return nil, false
}
