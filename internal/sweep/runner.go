package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/pos-backend/pkg/logger"
)

const defaultInterval = time.Hour

// Job is one periodic stock check.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

type jobMetrics interface {
	ObserveJob(job string, duration time.Duration, err error)
}

// RunnerParams configure the sweep runner. Metrics is optional.
type RunnerParams struct {
	Logger   *logger.Logger
	Lock     Lock
	Metrics  jobMetrics
	Interval time.Duration
	Jobs     []Job
}

// Runner executes its jobs on a fixed cadence while holding the sweep lock.
type Runner struct {
	logg     *logger.Logger
	lock     Lock
	metrics  jobMetrics
	interval time.Duration
	jobs     []Job
}

// NewRunner builds a sweep runner.
func NewRunner(params RunnerParams) (*Runner, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	jobs := make([]Job, 0, len(params.Jobs))
	for _, job := range params.Jobs {
		if job != nil {
			jobs = append(jobs, job)
		}
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("at least one job required")
	}
	return &Runner{
		logg:     params.Logger,
		lock:     params.Lock,
		metrics:  params.Metrics,
		interval: interval,
		jobs:     jobs,
	}, nil
}

// Run sweeps once immediately and then every interval until ctx is canceled.
func (r *Runner) Run(ctx context.Context) error {
	r.RunOnce(ctx)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logg.Info(ctx, "stock sweep context canceled")
			return ctx.Err()
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce runs every job a single time. It reports whether the lock was held.
func (r *Runner) RunOnce(ctx context.Context) bool {
	locked, err := r.lock.Acquire(ctx)
	if err != nil {
		r.logg.Error(ctx, "stock sweep lock acquire failed", err)
		return false
	}
	if !locked {
		r.logg.Info(ctx, "another stock sweep is running; skipping this cycle")
		return false
	}
	defer func() {
		if relErr := r.lock.Release(ctx); relErr != nil {
			r.logg.Error(ctx, "failed to release stock sweep lock", relErr)
		}
	}()

	for _, job := range r.jobs {
		r.runJob(ctx, job)
	}
	return true
}

func (r *Runner) runJob(ctx context.Context, job Job) {
	jobCtx := r.logg.WithFields(ctx, map[string]any{
		"job":   job.Name(),
		"event": "stock.sweep",
	})
	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start)
	if r.metrics != nil {
		r.metrics.ObserveJob(job.Name(), duration, err)
	}
	jobCtx = r.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		r.logg.Error(jobCtx, "stock sweep job failed", err)
		return
	}
	r.logg.Info(jobCtx, "stock sweep job completed")
}
