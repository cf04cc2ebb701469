// Package order exposes a query's surviving elements to a consumer.
//
// Workers report the outcome of every index they process to a Sink. Tracker
// releases results in strictly increasing index order, buffering any that
// finish early. Unordered releases them as they complete.
//
// Both sinks are written by many workers and read by one consumer. Next
// blocks until a result can be released, the sink is finished or aborted, or
// the caller's context ends.
package order
