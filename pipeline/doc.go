// Package pipeline provides the pull-based data contract of the engine and
// the stage chain that parallel queries run on every element.
//
// Pipelines are lazy: no work happens until values are pulled via Collect,
// Drain, or ForEach. Each stage pulls from the previous stage on demand.
// A Pipeline is the data source handed to a query, and it is also what a
// query hands back from AsSequential so that order-sensitive operators run
// on the caller's goroutine.
//
// # Sequential operators
//
//   - Map: transform each value
//   - Filter: keep values matching a predicate
//   - Tap: side-effect without altering the value
//   - Take: stop after n values
//   - Reduce: accumulate all values into one result
//   - Concat: join pipelines sequentially
//   - Batch: group values into fixed-size slices
//
// # Stage chains
//
// A Chain is built once, before a query starts, and shared read-only by all
// workers:
//
//	chain := pipeline.Where(pipeline.Of[Person](), func(p Person) bool {
//	    return p.City == "Seattle"
//	})
//	names := pipeline.Select(chain, func(_ context.Context, p Person) (string, error) {
//	    return p.Name, nil
//	})
//	out := names.Apply(ctx, person) // kept, dropped or failed
//
// A filter returning false drops the element. A stage returning an error, or
// panicking, fails the element and skips the remaining stages.
package pipeline
