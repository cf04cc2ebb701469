package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type person struct {
	Name string
	City string
}

var errEmptyCity = errors.New("empty city")

func checkCity(_ context.Context, p person) (bool, error) {
	if p.City == "" {
		return false, errEmptyCity
	}
	return p.City == "Seattle", nil
}

func TestChain_Of_KeepsEverything(t *testing.T) {
	c := Of[int]()
	o := c.Apply(context.Background(), 5)
	assert.True(t, o.Kept)
	assert.Equal(t, 5, o.Value)
	assert.Zero(t, c.Len())
}

func TestChain_Where(t *testing.T) {
	c := Where(Of[person](), func(p person) bool { return p.City == "Seattle" })

	kept := c.Apply(context.Background(), person{Name: "Beryl", City: "Seattle"})
	assert.True(t, kept.Kept)
	assert.Equal(t, "Beryl", kept.Value.Name)

	dropped := c.Apply(context.Background(), person{Name: "Alan", City: "Hull"})
	assert.True(t, dropped.Dropped())
	assert.False(t, dropped.Failed())
}

func TestChain_TryWhere_Failure(t *testing.T) {
	c := TryWhere(Of[person](), checkCity)
	o := c.Apply(context.Background(), person{Name: "Eddy"})
	require.True(t, o.Failed(), "got %+v", o)
	assert.ErrorIs(t, o.Err, errEmptyCity)
	assert.Equal(t, "where#1", o.Stage)
	assert.False(t, o.Dropped(), "a failed element does not count as dropped")
}

func TestChain_Select_ChangesType(t *testing.T) {
	seattle := Where(Of[person](), func(p person) bool { return p.City == "Seattle" })
	cities := Select(seattle, func(_ context.Context, p person) (string, error) {
		return p.Name + "!", nil
	})

	o := cities.Apply(context.Background(), person{Name: "Henry", City: "Seattle"})
	assert.True(t, o.Kept)
	assert.Equal(t, "Henry!", o.Value)
	assert.Equal(t, []string{"where#1", "select#2"}, cities.Names())
}

func TestChain_FilterShortCircuits(t *testing.T) {
	called := false
	c := Select(Where(Of[int](), func(n int) bool { return n > 10 }),
		func(_ context.Context, n int) (int, error) {
			called = true
			return n, nil
		})
	o := c.Apply(context.Background(), 1)
	assert.True(t, o.Dropped())
	assert.False(t, called, "stages after a dropping filter must not run")
}

func TestChain_FailureSkipsLaterStages(t *testing.T) {
	called := false
	c := Where(TryWhere(Of[person](), checkCity), func(person) bool {
		called = true
		return true
	})
	o := c.Apply(context.Background(), person{Name: "Fred"})
	assert.True(t, o.Failed())
	assert.Equal(t, "where#1", o.Stage)
	assert.False(t, called, "stages after a failing stage must not run")
}

func TestChain_SelectPropagatesFailure(t *testing.T) {
	c := Select(TryWhere(Of[person](), checkCity), func(_ context.Context, p person) (string, error) {
		return p.Name, nil
	})
	o := c.Apply(context.Background(), person{Name: "Eddy"})
	assert.True(t, o.Failed())
	assert.Equal(t, "where#1", o.Stage, "failure comes from the filter stage")
}

func TestChain_PanicIsRecovered(t *testing.T) {
	c := Select(Of[int](), func(_ context.Context, n int) (int, error) {
		return 10 / n, nil
	})
	o := c.Apply(context.Background(), 0)
	require.True(t, o.Failed(), "got %+v", o)

	var pe *PanicError
	require.ErrorAs(t, o.Err, &pe)
	assert.Contains(t, pe.Error(), "stage panicked")
}

func TestChain_IsImmutable(t *testing.T) {
	base := Where(Of[int](), func(n int) bool { return n > 0 })
	a := Where(base, func(n int) bool { return n%2 == 0 })
	b := Where(base, func(n int) bool { return n%3 == 0 })

	require.Equal(t, 1, base.Len())
	require.Equal(t, 2, a.Len())
	require.Equal(t, 2, b.Len())

	assert.True(t, base.Apply(context.Background(), 3).Kept, "base chain is unaffected by derived chains")
	assert.False(t, a.Apply(context.Background(), 3).Kept, "a drops odd values")
	assert.True(t, b.Apply(context.Background(), 3).Kept, "b keeps multiples of three")
}
