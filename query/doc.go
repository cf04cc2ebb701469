// Package query runs a filter and projection chain over a data source on
// several worker goroutines.
//
// A Handle couples a pipeline.Pipeline source, a pipeline.Chain of stages
// and a Config. It moves through Configured, Running and one terminal state:
// Completed, Faulted or Cancelled. Each handle runs once.
//
//	seattle := pipeline.Where(pipeline.Of[Person](), func(p Person) bool {
//	    return p.City == "Seattle"
//	})
//	h, err := query.New(pipeline.FromSlice(people), seattle, query.Config{
//	    Degree: 4,
//	    Mode:   query.ModeForcedParallel,
//	})
//	err = h.ForAll(ctx, func(p Person) { fmt.Println(p.Name) })
//
// Stage errors never stop the query. They are collected, one per failed
// element, and returned as an *aggregate.Failure once every worker is done.
package query
