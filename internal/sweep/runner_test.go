package sweep

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/pos-backend/pkg/logger"
)

type countingJob struct {
	name string
	err  error
	runs int
}

func (j *countingJob) Name() string { return j.name }

func (j *countingJob) Run(context.Context) error {
	j.runs++
	return j.err
}

type recordedRun struct {
	job    string
	failed bool
}

type fakeJobMetrics struct {
	runs []recordedRun
}

func (f *fakeJobMetrics) ObserveJob(job string, _ time.Duration, err error) {
	f.runs = append(f.runs, recordedRun{job: job, failed: err != nil})
}

type refusingLock struct{}

func (refusingLock) Acquire(context.Context) (bool, error) { return false, nil }
func (refusingLock) Release(context.Context) error         { return nil }

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "sweep-test", Output: io.Discard})
}

func TestRunOnceRunsEveryJobEvenOnFailure(t *testing.T) {
	ok := &countingJob{name: "low_stock_report"}
	failing := &countingJob{name: "ledger_reconcile", err: errors.New("out of balance")}
	metrics := &fakeJobMetrics{}
	lock := &LocalLock{}

	runner, err := NewRunner(RunnerParams{
		Logger:  testLogger(),
		Lock:    lock,
		Metrics: metrics,
		Jobs:    []Job{ok, nil, failing},
	})
	require.NoError(t, err)

	assert.True(t, runner.RunOnce(context.Background()))
	assert.Equal(t, 1, ok.runs)
	assert.Equal(t, 1, failing.runs)
	assert.Equal(t, []recordedRun{
		{job: "low_stock_report"},
		{job: "ledger_reconcile", failed: true},
	}, metrics.runs)

	acquired, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, acquired, "lock should be released after the sweep")
}

func TestRunOnceSkipsWhenLockHeldElsewhere(t *testing.T) {
	job := &countingJob{name: "low_stock_report"}
	runner, err := NewRunner(RunnerParams{Logger: testLogger(), Lock: refusingLock{}, Jobs: []Job{job}})
	require.NoError(t, err)

	assert.False(t, runner.RunOnce(context.Background()))
	assert.Zero(t, job.runs)
}

func TestRunStopsOnCancel(t *testing.T) {
	job := &countingJob{name: "low_stock_report"}
	runner, err := NewRunner(RunnerParams{
		Logger:   testLogger(),
		Lock:     &LocalLock{},
		Interval: time.Hour,
		Jobs:     []Job{job},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = runner.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, job.runs, "first sweep runs before the ticker")
}

func TestNewRunnerValidation(t *testing.T) {
	_, err := NewRunner(RunnerParams{Lock: &LocalLock{}, Jobs: []Job{&countingJob{}}})
	assert.Error(t, err)

	_, err = NewRunner(RunnerParams{Logger: testLogger(), Jobs: []Job{&countingJob{}}})
	assert.Error(t, err)

	_, err = NewRunner(RunnerParams{Logger: testLogger(), Lock: &LocalLock{}})
	assert.Error(t, err)
}
