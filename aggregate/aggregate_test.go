package aggregate

import (
	stderrors "errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/kbukum/parq/errors"
)

var errEmpty = stderrors.New("city is empty")

func TestFinalize_NoErrors(t *testing.T) {
	a := New(uuid.New(), 0, nil)
	a.Seal()
	f, err := a.Finalize()
	require.NoError(t, err)
	assert.Nil(t, f)
}

func TestFinalize_BeforeSeal(t *testing.T) {
	a := New(uuid.New(), 0, nil)
	a.Record(errEmpty)
	_, err := a.Finalize()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInternal))
}

func TestFailure_CollectsEveryError(t *testing.T) {
	id := uuid.New()
	a := New(id, 0, nil)
	assert.True(t, a.Record(errors.StageFailed("where#1", 4, errEmpty)))
	assert.True(t, a.Record(errors.StageFailed("where#1", 5, errEmpty)))
	assert.True(t, a.Record(nil))
	a.Seal()

	f, err := a.Finalize()
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, 2, f.Count())
	assert.Equal(t, id, f.QueryID())
	assert.Equal(t, errors.ErrCodeAggregatedFailure, f.Code())
	assert.Contains(t, f.Error(), "2 error(s) occurred")

	assert.ErrorIs(t, f, errEmpty)
	var stage *errors.AppError
	require.ErrorAs(t, f, &stage)
	assert.Equal(t, errors.ErrCodeStageFailed, stage.Code)

	wrapped := fmt.Errorf("listing people: %w", f)
	got, ok := AsFailure(wrapped)
	require.True(t, ok)
	assert.Same(t, f, got)
}

func TestFailure_ErrorsIsACopy(t *testing.T) {
	a := New(uuid.New(), 0, nil)
	a.Record(errEmpty)
	a.Seal()
	f, err := a.Finalize()
	require.NoError(t, err)

	errs := f.Errors()
	errs[0] = nil
	assert.Equal(t, errEmpty, f.Errors()[0])
}

func TestFailure_MessageTruncates(t *testing.T) {
	a := New(uuid.New(), 0, nil)
	for i := 0; i < 5; i++ {
		a.Record(fmt.Errorf("elem-%d", i))
	}
	a.Seal()
	f, err := a.Finalize()
	require.NoError(t, err)
	assert.Contains(t, f.Error(), "elem-2; and 2 more")
	assert.NotContains(t, f.Error(), "elem-3")
}

func TestRecord_AfterSeal(t *testing.T) {
	a := New(uuid.New(), 0, nil)
	a.Seal()
	assert.False(t, a.Record(errEmpty))
	assert.Zero(t, a.Count())
}

func TestRecord_Concurrent(t *testing.T) {
	a := New(uuid.New(), 0, nil)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				a.Record(errors.StageFailed("select#1", w*50+i, errEmpty))
			}
		}(w)
	}
	wg.Wait()
	a.Seal()

	f, err := a.Finalize()
	require.NoError(t, err)
	assert.Equal(t, 400, f.Count())
}

func TestRecord_ThresholdFiresOnce(t *testing.T) {
	fired := atomic.NewInt32(0)
	a := New(uuid.New(), 3, func() { fired.Inc() })
	for i := 0; i < 6; i++ {
		a.Record(errEmpty)
	}
	assert.Equal(t, int32(1), fired.Load())
	assert.Equal(t, 6, a.Count())
}

func TestRecord_ThresholdDisabled(t *testing.T) {
	a := New(uuid.New(), 0, func() { t.Fatal("threshold must not fire when disabled") })
	for i := 0; i < 10; i++ {
		a.Record(errEmpty)
	}
}

func TestFinalizeBefore(t *testing.T) {
	a := New(uuid.New(), 0, nil)
	a.Record(errors.StageFailed("where#1", 7, errEmpty))
	a.Record(errors.StageFailed("where#1", 2, errEmpty))
	a.Record(errors.SourceFailed(stderrors.New("disk")))
	a.Seal()

	f, err := a.FinalizeBefore(5)
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, 2, f.Count())
	assert.Equal(t, 2, errors.Index(f.Errors()[0]))

	a2 := New(uuid.New(), 0, nil)
	a2.Record(errors.StageFailed("where#1", 9, errEmpty))
	a2.Seal()
	f, err = a2.FinalizeBefore(4)
	require.NoError(t, err)
	assert.Nil(t, f)
}
