package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/niftyquant/internal/scheduler/jobs"
	"github.com/wonny/niftyquant/pkg/logger"
)

// countingJob fails the first failures runs
type countingJob struct {
	name     string
	schedule string
	failures int32
	runs     int32
}

func (j *countingJob) Name() string     { return j.name }
func (j *countingJob) Schedule() string { return j.schedule }

func (j *countingJob) Run(ctx context.Context) error {
	n := atomic.AddInt32(&j.runs, 1)
	if n <= j.failures {
		return errors.New("transient")
	}
	return nil
}

func TestScheduler_AddRemove(t *testing.T) {
	s := New(logger.Nop())

	require.NoError(t, s.AddJob(&countingJob{name: "b", schedule: "@hourly"}))
	require.NoError(t, s.AddJob(&countingJob{name: "a", schedule: "0 30 18 * * 1-5"}))

	assert.Error(t, s.AddJob(&countingJob{name: "a", schedule: "@hourly"}), "duplicate")
	assert.Error(t, s.AddJob(&countingJob{name: "c", schedule: "not a cron"}))
	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())

	require.NoError(t, s.RemoveJob("a"))
	assert.Error(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.GetAllJobs())
	assert.Len(t, s.cron.Entries(), 1)
}

func TestScheduler_RunJobRetries(t *testing.T) {
	s := New(logger.Nop()).WithRetry(2, time.Millisecond)

	flaky := &countingJob{name: "flaky", schedule: "@hourly", failures: 2}
	broken := &countingJob{name: "broken", schedule: "@hourly", failures: 100}
	require.NoError(t, s.AddJob(flaky))
	require.NoError(t, s.AddJob(broken))

	res, err := s.RunJob("flaky")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, int32(3), atomic.LoadInt32(&flaky.runs))

	res, err = s.RunJob("broken")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "transient", res.Error)
	assert.Equal(t, int32(3), atomic.LoadInt32(&broken.runs))

	_, err = s.RunJob("missing")
	assert.Error(t, err)

	stats := s.GetJobStats()
	assert.Equal(t, 1, stats["flaky"].SuccessCount)
	assert.Equal(t, 1, stats["broken"].FailureCount)
	assert.NotNil(t, stats["broken"].LastFailure)
	assert.Nil(t, stats["broken"].LastSuccess)

	history, err := s.GetJobHistory("flaky")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	assert.Equal(t, 0.0, h.GetSuccessRate())
	assert.Empty(t, h.GetLatestResults(5))

	for i := 0; i < maxHistory+10; i++ {
		h.AddResult(JobResult{Success: i%4 != 0})
	}
	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.GetLatestResults(3), 3)
	assert.InDelta(t, 0.75, h.GetSuccessRate(), 1e-9)
}

type fakeReloader struct {
	err error
}

func (f fakeReloader) Reload(context.Context) (time.Time, error) {
	return time.Now(), f.err
}

type fakeSweeper struct {
	removed int
}

func (f fakeSweeper) SweepArtifacts(context.Context) (int, error) {
	return f.removed, nil
}

type fakeModels struct {
	invalidated int
}

func (f *fakeModels) Invalidate() {
	f.invalidated++
}

func TestJobs(t *testing.T) {
	log := logger.Nop()

	reload := jobs.NewDatasetReloadJob(fakeReloader{}, "0 30 18 * * 1-5", log)
	assert.Equal(t, "dataset_reload", reload.Name())
	assert.Equal(t, "0 30 18 * * 1-5", reload.Schedule())
	assert.NoError(t, reload.Run(context.Background()))

	failing := jobs.NewDatasetReloadJob(fakeReloader{err: errors.New("disk")}, "@daily", log)
	assert.Error(t, failing.Run(context.Background()))

	sweep := jobs.NewArtifactSweepJob(fakeSweeper{removed: 3}, log)
	assert.Equal(t, "artifact_sweep", sweep.Name())
	assert.NoError(t, sweep.Run(context.Background()))

	models := &fakeModels{}
	refresh := jobs.NewModelRefreshJob(models, log)
	assert.Equal(t, "model_refresh", refresh.Name())
	assert.NoError(t, refresh.Run(context.Background()))
	assert.Equal(t, 1, models.invalidated)

	s := New(log)
	require.NoError(t, s.AddJob(reload))
	require.NoError(t, s.AddJob(sweep))
	require.NoError(t, s.AddJob(refresh))
	assert.Equal(t, []string{"artifact_sweep", "dataset_reload", "model_refresh"}, s.GetAllJobs())

	_, err := s.RunJob("model_refresh")
	require.NoError(t, err)
	assert.Equal(t, 2, models.invalidated)
}
