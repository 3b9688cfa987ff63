package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyaneshwarpardhi/boa/internal/config"
	"github.com/gyaneshwarpardhi/boa/internal/engine"
	"github.com/gyaneshwarpardhi/boa/internal/fitness"
	"github.com/gyaneshwarpardhi/boa/internal/store"
)

func newEngine(t *testing.T, workers, depth int) *engine.Engine {
	t.Helper()
	db, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	conf := config.ServerConf{Workers: workers, QueueDepth: depth, RunTimeoutMs: 60000}
	e := engine.New(ctx, fitness.Default(), store.Bucket[engine.Record](db, "runs"), conf, config.DefaultRun(), nil)
	t.Cleanup(func() {
		cancel()
		e.Shutdown()
	})
	return e
}

func smallRun() config.RunConf {
	rc := config.DefaultRun()
	rc.ProblemSize = 8
	rc.PopulationSize = 40
	rc.MaxGenerations = 3
	return rc
}

func TestRunSyncRecordsResult(t *testing.T) {
	e := newEngine(t, 2, 4)

	rec, err := e.RunSync(context.Background(), smallRun())
	require.NoError(t, err)
	assert.Equal(t, engine.StatusDone, rec.Status)
	require.NotNil(t, rec.Result)
	assert.NotEqual(t, engine.ReasonNone, rec.Result.Reason)
	assert.NotEmpty(t, rec.RunID)

	stored, err := e.Get(rec.RunID)
	require.NoError(t, err)
	assert.Equal(t, engine.StatusDone, stored.Status)
	require.NotNil(t, stored.Result)
	assert.Equal(t, rec.Result.Best, stored.Result.Best)
	assert.Equal(t, rec.Result.Generations, stored.Result.Generations)
}

func TestSubmitRunsInBackground(t *testing.T) {
	e := newEngine(t, 1, 4)

	first, err := e.Submit(smallRun())
	require.NoError(t, err)
	assert.Equal(t, engine.StatusQueued, first.Status)
	second, err := e.Submit(smallRun())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		a, errA := e.Get(first.RunID)
		b, errB := e.Get(second.RunID)
		return errA == nil && errB == nil && a.Status == engine.StatusDone && b.Status == engine.StatusDone
	}, 10*time.Second, 10*time.Millisecond)

	recs, err := e.List()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.ElementsMatch(t, []string{first.RunID, second.RunID}, []string{recs[0].RunID, recs[1].RunID})
	assert.False(t, recs[1].CreatedAt.Before(recs[0].CreatedAt))
}

func TestSubmitQueueFull(t *testing.T) {
	// No workers: the single queue slot never drains.
	e := newEngine(t, 0, 1)

	_, err := e.Submit(smallRun())
	require.NoError(t, err)
	assert.Equal(t, 1.0, e.QueueUtilization())

	_, err = e.Submit(smallRun())
	assert.ErrorIs(t, err, engine.ErrQueueFull)

	recs, err := e.List()
	require.NoError(t, err)
	assert.Len(t, recs, 1, "rejected runs are not recorded")
}

func TestSubmitValidates(t *testing.T) {
	e := newEngine(t, 1, 1)

	rc := smallRun()
	rc.Fitness = "trap5"
	_, err := e.Submit(rc)
	assert.ErrorIs(t, err, engine.ErrInvalidRun, "8 is not a multiple of the trap block size")

	rc = smallRun()
	rc.Fitness = "windfarm"
	_, err = e.Submit(rc)
	assert.ErrorIs(t, err, engine.ErrInvalidRun)

	_, err = e.Get("missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSwapDefaults(t *testing.T) {
	e := newEngine(t, 1, 1)
	assert.Equal(t, config.DefaultRun(), e.Defaults())

	rc := smallRun()
	e.SwapDefaults(rc)
	assert.Equal(t, rc, e.Defaults())
}
