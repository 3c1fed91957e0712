package cron

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/streeteats-connect/pkg/logger"
	"github.com/angelmondragon/streeteats-connect/pkg/metrics"
)

const (
	defaultInterval    = time.Hour
	defaultConcurrency = 2
)

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.CronJobMetrics
	Interval time.Duration
	// JobTimeout bounds a single job run. Zero leaves jobs unbounded.
	JobTimeout  time.Duration
	Concurrency int
}

// Service runs the registered cleanup jobs on a fixed cadence. Only the
// instance holding the lock runs a cycle.
type Service struct {
	logg        *logger.Logger
	registry    *Registry
	lock        Lock
	metrics     *metrics.CronJobMetrics
	interval    time.Duration
	jobTimeout  time.Duration
	concurrency int
}

// Result is the outcome of one job within a cycle.
type Result struct {
	Job      string
	Duration time.Duration
	Err      error
}

// Report describes a cycle. Skipped is set when another instance held the
// lock and nothing ran.
type Report struct {
	Skipped bool
	Results []Result
}

// Failed counts the jobs that returned an error.
func (r Report) Failed() int {
	n := 0
	for _, res := range r.Results {
		if res.Err != nil {
			n++
		}
	}
	return n
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	registry := params.Registry
	if registry == nil {
		registry = &Registry{index: map[string]int{}}
	}
	s := &Service{
		logg:        params.Logger,
		registry:    registry,
		lock:        params.Lock,
		metrics:     params.Metrics,
		interval:    params.Interval,
		jobTimeout:  params.JobTimeout,
		concurrency: params.Concurrency,
	}
	if s.interval <= 0 {
		s.interval = defaultInterval
	}
	if s.concurrency <= 0 {
		s.concurrency = defaultConcurrency
	}
	return s, nil
}

// Run executes a cycle immediately and then once per interval until ctx is
// canceled.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logg.Error(ctx, "cron cycle failed", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunOnce runs one locked cycle over the named jobs, or all jobs when no
// names are given.
func (s *Service) RunOnce(ctx context.Context, names ...string) (Report, error) {
	jobs, err := s.registry.Select(names...)
	if err != nil {
		return Report{}, err
	}

	locked, err := s.lock.Acquire(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("lock acquire: %w", err)
	}
	if !locked {
		s.logg.Info(ctx, "cron lock held elsewhere, skipping cycle")
		return Report{Skipped: true}, nil
	}
	defer func() {
		if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Error(ctx, "failed to release cron lock", err)
		}
	}()

	results := make([]Result, len(jobs))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			results[i] = s.runJob(ctx, job)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Results: results}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"jobs":   len(results),
		"failed": report.Failed(),
	}), "cron cycle complete")
	return report, nil
}

func (s *Service) runJob(ctx context.Context, job Job) Result {
	name := job.Name()
	ctx = s.logg.WithJobName(ctx, name)
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}

	start := time.Now()
	err := job.Run(ctx)
	res := Result{Job: name, Duration: time.Since(start), Err: err}

	ctx = s.logg.WithField(ctx, "duration_ms", res.Duration.Milliseconds())
	s.metrics.ObserveDuration(name, res.Duration)
	if err != nil {
		s.metrics.IncFailure(name)
		s.logg.Error(ctx, "job failed", err)
		return res
	}
	s.metrics.IncSuccess(name)
	s.logg.Info(ctx, "job done")
	return res
}
