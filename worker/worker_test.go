package worker

import (
	"context"
	stderrors "errors"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/kbukum/parq/errors"
)

func TestPlan(t *testing.T) {
	procs := runtime.GOMAXPROCS(0)

	tests := []struct {
		name string
		in   Planning
		want int
	}{
		{"auto degree unknown size", Planning{Size: -1}, procs},
		{"explicit degree", Planning{Degree: 3, Size: -1}, 3},
		{"capped by max degree", Planning{Degree: 64, MaxDegree: 8, Size: -1}, 8},
		{"small input runs sequentially", Planning{Degree: 4, SequentialThreshold: 32, Size: 10}, 1},
		{"never more workers than elements", Planning{Degree: 16, SequentialThreshold: 2, Size: 5}, 5},
		{"empty input", Planning{Degree: 4, Size: 0}, 1},
		{"forced overrides threshold", Planning{Degree: 4, Forced: true, SequentialThreshold: 32, Size: 10}, 4},
		{"forced ignores size cap", Planning{Degree: 8, Forced: true, Size: 3}, 8},
		{"forced lifts auto to two", Planning{Degree: 0, Forced: true, MaxDegree: 2, Size: -1}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Plan(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPlan_ForcedWithSingleProc(t *testing.T) {
	prev := runtime.GOMAXPROCS(1)
	defer runtime.GOMAXPROCS(prev)

	got, err := Plan(Planning{Forced: true, Size: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestPlan_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   Planning
	}{
		{"negative degree", Planning{Degree: -2}},
		{"negative max degree", Planning{MaxDegree: -1}},
		{"forced with degree one", Planning{Degree: 1, Forced: true}},
		{"forced with max degree one", Planning{MaxDegree: 1, Forced: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Plan(tt.in)
			require.Error(t, err)
			assert.True(t, errors.IsConfiguration(err))
		})
	}
}

type counter struct {
	n    *atomic.Int64
	max  int64
	fail error
}

func (c *counter) Claim(ctx context.Context) (int, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	v := c.n.Inc()
	if v > c.max {
		if c.fail != nil {
			return 0, false, c.fail
		}
		return 0, false, nil
	}
	return int(v), true, nil
}

func TestRun_ProcessesEveryUnitOnce(t *testing.T) {
	src := &counter{n: atomic.NewInt64(0), max: 50}
	var (
		mu   sync.Mutex
		seen = make(map[int]int)
	)
	pool := &Pool{Workers: 4}
	err := Run(context.Background(), pool, src, func(_ context.Context, _ int, v int) {
		mu.Lock()
		seen[v]++
		mu.Unlock()
	})
	require.NoError(t, err)

	assert.Len(t, seen, 50)
	for v, n := range seen {
		assert.Equal(t, 1, n, "unit %d processed %d times", v, n)
	}
	assert.Equal(t, 4, pool.Stats().Started())
	assert.Equal(t, 50, pool.Stats().Partitions())
	assert.Zero(t, pool.Stats().Active())
}

func TestRun_WorkersRunConcurrently(t *testing.T) {
	src := &counter{n: atomic.NewInt64(0), max: 4}
	barrier := make(chan struct{})
	arrived := atomic.NewInt32(0)

	pool := &Pool{Workers: 4}
	err := Run(context.Background(), pool, src, func(_ context.Context, _ int, _ int) {
		if arrived.Inc() == 2 {
			close(barrier)
		}
		select {
		case <-barrier:
		case <-time.After(5 * time.Second):
		}
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pool.Stats().Peak(), 2)
}

func TestRun_Hooks(t *testing.T) {
	var (
		mu      sync.Mutex
		started []int
		stopped []int
	)
	pool := &Pool{
		Workers: 3,
		OnStart: func(id int) {
			mu.Lock()
			started = append(started, id)
			mu.Unlock()
		},
		OnStop: func(id int) {
			mu.Lock()
			stopped = append(stopped, id)
			mu.Unlock()
		},
	}
	src := &counter{n: atomic.NewInt64(0), max: 0}
	require.NoError(t, Run(context.Background(), pool, src, func(context.Context, int, int) {}))

	assert.ElementsMatch(t, []int{0, 1, 2}, started)
	assert.ElementsMatch(t, []int{0, 1, 2}, stopped)
}

func TestRun_ClaimErrorIsReturned(t *testing.T) {
	boom := stderrors.New("source broke")
	src := &counter{n: atomic.NewInt64(0), max: 5, fail: boom}
	processed := atomic.NewInt64(0)

	err := Run(context.Background(), &Pool{Workers: 2}, src, func(context.Context, int, int) {
		processed.Inc()
	})
	require.ErrorIs(t, err, boom)
	assert.LessOrEqual(t, processed.Load(), int64(5))
}

func TestRun_CancelStopsClaims(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &counter{n: atomic.NewInt64(0), max: 1 << 30}
	processed := atomic.NewInt64(0)

	err := Run(ctx, &Pool{Workers: 3}, src, func(context.Context, int, int) {
		if processed.Inc() == 10 {
			cancel()
		}
	})
	require.NoError(t, err)
	// every worker finishes at most the unit it holds after cancellation
	assert.Less(t, processed.Load(), int64(10+3+1))
}
