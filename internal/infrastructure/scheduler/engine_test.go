package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine() *Engine {
	return NewEngine(RealClock{}, zap.NewNop())
}

func TestEngineRegister(t *testing.T) {
	noop := func(ctx context.Context) (int, int, error) { return 0, 0, nil }

	t.Run("rejects malformed jobs", func(t *testing.T) {
		e := newTestEngine()
		assert.Error(t, e.Register(Job{Name: "", Interval: time.Second, Run: noop}))
		assert.Error(t, e.Register(Job{Name: "no-run", Interval: time.Second}))
		assert.Error(t, e.Register(Job{Name: "no-interval", Run: noop}))
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		e := newTestEngine()
		require.NoError(t, e.Register(Job{Name: "sweep", Interval: time.Second, Run: noop}))
		assert.Error(t, e.Register(Job{Name: "sweep", Interval: time.Second, Run: noop}))
	})
}

func TestEngineSkipsOverlappingTicks(t *testing.T) {
	e := newTestEngine()

	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(1)
	var runs atomic.Int64
	var once sync.Once

	require.NoError(t, e.Register(Job{
		Name:     "slow-pass",
		Interval: 10 * time.Millisecond,
		Run: func(ctx context.Context) (int, int, error) {
			runs.Add(1)
			once.Do(started.Done)
			<-release
			return 1, 0, nil
		},
	}))

	ctx := context.Background()
	require.NoError(t, e.Start(ctx))

	// let the first run start, then let several ticks elapse while it blocks
	started.Wait()
	time.Sleep(60 * time.Millisecond)
	close(release)

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	require.NoError(t, e.Stop(stopCtx))

	stats := e.Stats()
	require.Len(t, stats, 1)
	assert.GreaterOrEqual(t, stats[0].Skipped, int64(1), "ticks during the blocked run must be dropped")
	assert.LessOrEqual(t, runs.Load(), int64(2), "at most the blocked run and one trailing tick")
}

func TestEngineStopWaitsForInFlightRun(t *testing.T) {
	e := newTestEngine()

	var finished atomic.Bool
	release := make(chan struct{})
	var started sync.WaitGroup
	started.Add(1)

	require.NoError(t, e.Register(Job{
		Name:       "drain",
		Interval:   time.Hour,
		RunOnStart: true,
		Run: func(ctx context.Context) (int, int, error) {
			started.Done()
			<-release
			finished.Store(true)
			return 0, 0, nil
		},
	}))

	require.NoError(t, e.Start(context.Background()))
	started.Wait()
	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, e.Stop(stopCtx))
	assert.True(t, finished.Load(), "stop must wait for the in-flight run")
}

func TestEngineTriggerNow(t *testing.T) {
	e := newTestEngine()
	var runs atomic.Int64

	require.NoError(t, e.Register(Job{
		Name:     "manual",
		Interval: time.Hour,
		Run: func(ctx context.Context) (int, int, error) {
			runs.Add(1)
			return 3, 1, nil
		},
	}))

	ctx := context.Background()
	require.NoError(t, e.TriggerNow(ctx, "manual"))
	assert.Equal(t, int64(1), runs.Load())

	stats := e.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, int64(1), stats[0].Runs)
	assert.Zero(t, stats[0].Failures)

	assert.Error(t, e.TriggerNow(ctx, "no-such-job"))
}

func TestEngineRecordsFailures(t *testing.T) {
	e := newTestEngine()
	boom := errors.New("store unreachable")
	require.NoError(t, e.Register(Job{
		Name:     "failing",
		Interval: time.Hour,
		Run: func(ctx context.Context) (int, int, error) {
			return 0, 0, boom
		},
	}))

	require.NoError(t, e.TriggerNow(context.Background(), "failing"))

	stats := e.Stats()
	require.Len(t, stats, 1)
	assert.Equal(t, int64(1), stats[0].Failures)
	assert.Equal(t, "store unreachable", stats[0].LastError)
}

func TestEngineRunOnStart(t *testing.T) {
	e := newTestEngine()
	ran := make(chan struct{})
	var once sync.Once
	require.NoError(t, e.Register(Job{
		Name:       "warmup",
		Interval:   time.Hour,
		RunOnStart: true,
		Run: func(ctx context.Context) (int, int, error) {
			once.Do(func() { close(ran) })
			return 0, 0, nil
		},
	}))

	require.NoError(t, e.Start(context.Background()))
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("RunOnStart job never ran")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, e.Stop(stopCtx))
}
