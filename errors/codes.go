package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Configuration errors (fatal, raised before any work is dispatched)
const (
	// ErrCodeInvalidConfiguration indicates an invalid or conflicting query configuration.
	ErrCodeInvalidConfiguration ErrorCode = "INVALID_CONFIGURATION"
)

// Element errors (recovered per element and aggregated)
const (
	// ErrCodeStageFailed indicates a pipeline stage failed for one element.
	ErrCodeStageFailed ErrorCode = "STAGE_FAILED"
	// ErrCodeSourceFailed indicates the data source failed while being partitioned.
	ErrCodeSourceFailed ErrorCode = "SOURCE_FAILED"
)

// Terminal errors (surfaced to the caller once a query stops)
const (
	// ErrCodeAggregatedFailure indicates one or more elements failed during a query.
	ErrCodeAggregatedFailure ErrorCode = "AGGREGATED_FAILURE"
	// ErrCodeCancelled indicates the query was cancelled before it drained.
	ErrCodeCancelled ErrorCode = "CANCELLED"
	// ErrCodeInternal indicates an engine misuse or invariant violation.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var terminalCodes = map[ErrorCode]bool{
	ErrCodeAggregatedFailure:    true,
	ErrCodeCancelled:            true,
	ErrCodeInvalidConfiguration: true,
	ErrCodeInternal:             true,
}

// IsTerminalCode returns true if the code is reported to callers as a query
// outcome rather than recorded per element.
func IsTerminalCode(code ErrorCode) bool {
	return terminalCodes[code]
}
