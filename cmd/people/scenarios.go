package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/kbukum/parq/aggregate"
	"github.com/kbukum/parq/logger"
	"github.com/kbukum/parq/pipeline"
	"github.com/kbukum/parq/query"
)

type person struct {
	Name string
	City string
}

var people = []person{
	{Name: "Alan", City: "Hull"},
	{Name: "Beryl", City: "Seattle"},
	{Name: "Charles", City: "London"},
	{Name: "David", City: "Seattle"},
	{Name: "Eddy", City: ""},
	{Name: "Fred", City: ""},
	{Name: "Gordon", City: "Hull"},
	{Name: "Henry", City: "Seattle"},
	{Name: "Isaac", City: "Seattle"},
	{Name: "James", City: "London"},
}

type emptyCityError struct {
	name string
}

func (e *emptyCityError) Error() string {
	return fmt.Sprintf("%s has no city", e.name)
}

// checkCity fails for people without a city.
func checkCity(ctx context.Context, p person) (bool, error) {
	if p.City == "" {
		logger.Get("people").WithContext(ctx).Debug("person has no city", logger.Fields("person", p.Name))
		return false, &emptyCityError{name: p.Name}
	}
	return p.City == "Seattle", nil
}

func inSeattle(p person) bool { return p.City == "Seattle" }

type scenario struct {
	name  string
	short string
	run   func(ctx context.Context, a *app, w io.Writer) error
}

var scenarios = []scenario{
	{"for-all", "Print Seattle residents from the worker goroutines", forAll},
	{"cities", "Project Seattle residents to their city", cities},
	{"forced", "Force four workers and iterate the results", forced},
	{"ordered", "Iterate Seattle residents in input order", ordered},
	{"take", "Hand the ordered results to a sequential Take(4)", take},
	{"errors", "Run a failing predicate and count the errors", failures},
}

func (a *app) run(ctx context.Context, w io.Writer, s scenario) error {
	a.log.Debug("running scenario", logger.Fields("scenario", s.name))
	if err := s.run(ctx, a, w); err != nil {
		return fmt.Errorf("%s: %w", s.name, err)
	}
	return nil
}

func (a *app) runAll(ctx context.Context, w io.Writer) error {
	for _, s := range scenarios {
		if err := a.run(ctx, w, s); err != nil {
			return err
		}
	}
	return nil
}

func seattle() *pipeline.Chain[person, person] {
	return pipeline.Where(pipeline.Of[person](), inSeattle)
}

func forAll(ctx context.Context, a *app, w io.Writer) error {
	h, err := query.New(pipeline.FromSlice(people), seattle(), a.cfg.Query, a.options()...)
	if err != nil {
		return err
	}
	var mu sync.Mutex
	err = h.ForAll(ctx, func(p person) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(w, p.Name)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "ForAll executed on %d worker(s)\n", h.Stats().Workers)
	return nil
}

func cities(ctx context.Context, a *app, w io.Writer) error {
	chain := pipeline.Select(seattle(), func(_ context.Context, p person) (string, error) {
		return p.City, nil
	})
	h, err := query.New(pipeline.FromSlice(people), chain, a.cfg.Query, a.options()...)
	if err != nil {
		return err
	}
	got, err := h.ToSlice(ctx)
	if err != nil {
		return err
	}
	for _, city := range got {
		fmt.Fprintln(w, city)
	}
	fmt.Fprintln(w, "Select executed")
	return nil
}

func forced(ctx context.Context, a *app, w io.Writer) error {
	cfg := a.cfg.Query
	cfg.Degree = 4
	cfg.Mode = query.ModeForcedParallel
	h, err := query.New(pipeline.FromSlice(people), seattle(), cfg, a.options()...)
	if err != nil {
		return err
	}
	if err := printAll(ctx, w, h.Iterate(ctx)); err != nil {
		return err
	}
	stats := h.Stats()
	fmt.Fprintf(w, "Forced parallel executed: %d workers, peak %d\n", stats.Workers, stats.PeakWorkers)
	return nil
}

func ordered(ctx context.Context, a *app, w io.Writer) error {
	cfg := a.cfg.Query
	cfg.Ordering = query.OrderingPreserve
	h, err := query.New(pipeline.FromSlice(people), seattle(), cfg, a.options()...)
	if err != nil {
		return err
	}
	if err := printAll(ctx, w, h.Iterate(ctx)); err != nil {
		return err
	}
	fmt.Fprintln(w, "Ordered executed")
	return nil
}

func take(ctx context.Context, a *app, w io.Writer) error {
	chain := pipeline.Select(seattle(), func(_ context.Context, p person) (string, error) {
		return p.Name, nil
	})
	h, err := query.New(pipeline.FromSlice(people), chain, a.cfg.Query, a.options()...)
	if err != nil {
		return err
	}
	names, err := pipeline.Collect(ctx, pipeline.Take(h.AsSequential(ctx), 4))
	if err != nil {
		return err
	}
	for _, name := range names {
		fmt.Fprintln(w, name)
	}
	fmt.Fprintln(w, "AsSequential executed")
	return nil
}

func failures(ctx context.Context, a *app, w io.Writer) error {
	chain := pipeline.TryWhere(pipeline.Of[person](), checkCity)
	h, err := query.New(pipeline.FromSlice(people), chain, a.cfg.Query, a.options()...)
	if err != nil {
		return err
	}
	var mu sync.Mutex
	err = h.ForAll(ctx, func(p person) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(w, p.Name)
	})
	failure, ok := aggregate.AsFailure(err)
	if !ok {
		return err
	}
	fmt.Fprintf(w, "%d exceptions.\n", failure.Count())
	return nil
}

func printAll(ctx context.Context, w io.Writer, it pipeline.Iterator[person]) error {
	defer it.Close()
	for {
		p, ok, err := it.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		fmt.Fprintln(w, p.Name)
	}
}
