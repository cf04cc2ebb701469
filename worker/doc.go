// Package worker plans and runs the goroutines that drain a query's partitions.
//
// Plan turns a degree request and execution mode into a concrete worker count.
// The heuristic is deliberately simple and stable:
//
//   - an auto degree resolves to runtime.GOMAXPROCS(0), an explicit degree is
//     taken as given, and either is capped by MaxDegree;
//   - in auto mode, inputs of known size below SequentialThreshold run on a
//     single worker, and a known size also caps the worker count;
//   - in forced-parallel mode at least two workers run regardless of input
//     size, and a request that cannot satisfy that is rejected.
//
// Run starts exactly Pool.Workers goroutines under an errgroup. Each one loops
// claim, process, claim until the source is exhausted or the context ends.
package worker
