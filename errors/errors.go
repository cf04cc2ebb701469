package errors

import (
	"context"
	stderrors "errors"
	"fmt"
)

// AppError is the unified engine error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// --- Constructors ---

// InvalidConfiguration creates an error for an invalid query configuration field.
func InvalidConfiguration(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidConfiguration, Message: fmt.Sprintf("Invalid configuration: %s", reason),
		Details: details,
	}
}

// Configuration creates an error for a configuration that fails validation as a whole.
func Configuration(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidConfiguration, Message: message}
}

// StageFailed creates an error for a pipeline stage that failed on one element.
func StageFailed(stage string, index int, cause error) *AppError {
	return &AppError{
		Code: ErrCodeStageFailed, Message: fmt.Sprintf("stage %q failed on element %d", stage, index),
		Details: map[string]any{"stage": stage, "index": index}, Cause: cause,
	}
}

// SourceFailed creates an error for a data source that failed while being read.
func SourceFailed(cause error) *AppError {
	return &AppError{
		Code: ErrCodeSourceFailed, Message: "the data source failed while being partitioned",
		Cause: cause,
	}
}

// Cancelled creates an error for a query stopped by cancellation before it drained.
func Cancelled(cause error) *AppError {
	if cause == nil {
		cause = context.Canceled
	}
	return &AppError{
		Code: ErrCodeCancelled, Message: "the query was cancelled before all partitions drained",
		Cause: cause,
	}
}

// Internal creates an error for an engine misuse or invariant violation.
func Internal(message string) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: message}
}

// --- Inspection ---

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// IsConfiguration reports whether err is a configuration error.
func IsConfiguration(err error) bool { return HasCode(err, ErrCodeInvalidConfiguration) }

// IsStage reports whether err is a per-element stage error.
func IsStage(err error) bool { return HasCode(err, ErrCodeStageFailed) }

// IsCancelled reports whether err is a query cancellation.
func IsCancelled(err error) bool { return HasCode(err, ErrCodeCancelled) }

// Index returns the element index carried by a stage error, or -1.
func Index(err error) int {
	appErr, ok := AsAppError(err)
	if !ok {
		return -1
	}
	if idx, ok := appErr.Details["index"].(int); ok {
		return idx
	}
	return -1
}
