package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/frontier/pkg/logger"
)

type stubJob struct {
	name     string
	schedule string
	failures int32 // 처음 N번 실패
	calls    atomic.Int32
}

func (j *stubJob) Name() string     { return j.name }
func (j *stubJob) Schedule() string { return j.schedule }

func (j *stubJob) Run(ctx context.Context) error {
	n := j.calls.Add(1)
	if n <= j.failures {
		return errors.New("transient")
	}
	return ctx.Err()
}

type recordingObserver struct {
	jobs []string
	errs []error
}

func (r *recordingObserver) ObserveJob(job string, err error) {
	r.jobs = append(r.jobs, job)
	r.errs = append(r.errs, err)
}

func newTestScheduler() *Scheduler {
	return New(logger.Nop()).WithRetry(2, time.Millisecond)
}

func TestAddJob(t *testing.T) {
	s := newTestScheduler()

	require.NoError(t, s.AddJob(&stubJob{name: "b", schedule: "0 0 18 * * 1-5"}))
	require.NoError(t, s.AddJob(&stubJob{name: "a", schedule: "@every 1h"}))

	err := s.AddJob(&stubJob{name: "a", schedule: "@every 1h"})
	assert.ErrorContains(t, err, "already exists")

	err = s.AddJob(&stubJob{name: "bad", schedule: "not a cron"})
	assert.ErrorContains(t, err, "failed to schedule")

	assert.Equal(t, []string{"a", "b"}, s.GetAllJobs())
}

func TestRemoveJob(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&stubJob{name: "a", schedule: "@every 1h"}))

	require.NoError(t, s.RemoveJob("a"))
	assert.Empty(t, s.GetAllJobs())
	assert.Error(t, s.RemoveJob("a"))

	// 같은 이름으로 다시 등록 가능
	assert.NoError(t, s.AddJob(&stubJob{name: "a", schedule: "@every 1h"}))
}

func TestRunJobSync_RetriesThenSucceeds(t *testing.T) {
	obs := &recordingObserver{}
	s := newTestScheduler().WithObserver(obs)

	job := &stubJob{name: "flaky", schedule: "@every 1h", failures: 2}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync(context.Background(), "flaky")
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Empty(t, result.Error)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, int32(3), job.calls.Load())

	require.Len(t, obs.jobs, 1)
	assert.Equal(t, "flaky", obs.jobs[0])
	assert.NoError(t, obs.errs[0])

	history, err := s.GetJobHistory("flaky")
	require.NoError(t, err)
	assert.Len(t, history.Results, 1)
	sum := history.Summary()
	assert.Equal(t, 1.0, sum.SuccessRate())
	assert.Equal(t, 1, sum.Retried)
}

func TestRunJobSync_FailsAfterRetries(t *testing.T) {
	obs := &recordingObserver{}
	s := newTestScheduler().WithObserver(obs)

	job := &stubJob{name: "broken", schedule: "@every 1h", failures: 100}
	require.NoError(t, s.AddJob(job))

	result, err := s.RunJobSync(context.Background(), "broken")
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, "transient", result.Error)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, int32(3), job.calls.Load()) // 1 + 2 retries
	require.Len(t, obs.errs, 1)
	assert.Error(t, obs.errs[0])

	stats := s.GetJobStats()["broken"]
	assert.Equal(t, 1, stats.TotalRuns)
	assert.Equal(t, 1, stats.FailureCount)
	assert.Equal(t, 1, stats.ConsecutiveFailures)
	assert.NotNil(t, stats.LastFailure)
	assert.Nil(t, stats.LastSuccess)
}

func TestRunJobSync_CancelledContextStopsRetries(t *testing.T) {
	s := newTestScheduler()

	job := &stubJob{name: "slow", schedule: "@every 1h", failures: 100}
	require.NoError(t, s.AddJob(job))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := s.RunJobSync(ctx, "slow")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, int32(1), job.calls.Load())
}

func TestRunJob_Unknown(t *testing.T) {
	s := newTestScheduler()

	assert.Error(t, s.RunJob("missing"))
	_, err := s.RunJobSync(context.Background(), "missing")
	assert.Error(t, err)
	_, err = s.GetJobHistory("missing")
	assert.Error(t, err)
}

func TestJobHistory(t *testing.T) {
	h := &JobHistory{}
	assert.Equal(t, 0.0, h.Summary().SuccessRate())
	assert.Empty(t, h.GetLatestResults(5))
	_, ok := h.Latest()
	assert.False(t, ok)

	for i := 0; i < maxHistory+10; i++ {
		h.AddResult(JobResult{JobName: "x", Attempts: 1, Success: i%2 == 0})
	}
	assert.Len(t, h.Results, maxHistory)
	assert.Len(t, h.GetLatestResults(3), 3)

	sum := h.Summary()
	assert.Equal(t, maxHistory, sum.Runs)
	assert.Equal(t, maxHistory/2, sum.Failures)
	assert.Zero(t, sum.Retried)
	assert.InDelta(t, 0.5, sum.SuccessRate(), 1e-12)
}

func TestJobHistory_ConsecutiveFailures(t *testing.T) {
	base := time.Date(2026, 3, 2, 18, 30, 0, 0, time.UTC)
	h := &JobHistory{}
	h.AddResult(JobResult{StartTime: base, Attempts: 1, Success: true})
	for i := 1; i <= 3; i++ {
		h.AddResult(JobResult{StartTime: base.Add(time.Duration(i) * time.Hour), Attempts: 4})
	}

	sum := h.Summary()
	assert.Equal(t, 3, sum.ConsecutiveFailures)
	assert.Equal(t, 3, sum.Retried)
	require.NotNil(t, sum.LastSuccess)
	require.NotNil(t, sum.LastFailure)
	assert.Equal(t, base, *sum.LastSuccess)
	assert.Equal(t, base.Add(3*time.Hour), *sum.LastFailure)

	// 성공 한 번으로 연속 실패 초기화
	h.AddResult(JobResult{StartTime: base.Add(4 * time.Hour), Attempts: 2, Success: true})
	assert.Zero(t, h.Summary().ConsecutiveFailures)

	latest, ok := h.Latest()
	require.True(t, ok)
	assert.Equal(t, 2, latest.Attempts)
}

func TestStartStop(t *testing.T) {
	s := newTestScheduler()
	require.NoError(t, s.AddJob(&stubJob{name: "a", schedule: "@every 1h"}))

	s.Start()
	stats := s.GetJobStats()["a"]
	s.Stop()

	assert.Equal(t, "@every 1h", stats.Schedule)
	assert.Zero(t, stats.TotalRuns)
}
