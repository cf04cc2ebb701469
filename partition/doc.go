// Package partition splits a query's input into disjoint units of work.
//
// Materialized inputs are split up front with Split and handed out through a
// Queue. Single-pass inputs go through Chunked, which pulls fixed-size chunks
// from the source on demand. Both satisfy Source, so the worker pool does not
// care which one it is draining.
//
// Every element carries the index it had in the input. Indices are assigned
// once, here, and are what the order tracker and the error aggregator key on.
package partition
