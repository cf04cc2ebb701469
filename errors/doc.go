// Package errors provides the error kinds raised by the query engine.
// It implements a single structured error type carrying a machine-readable
// code, a message, details and an optional cause.
package errors
