package jobs

import (
	"context"
	"fmt"
	"time"

	"rcca-backend/internal/config"
	"rcca-backend/internal/logger"
	"rcca-backend/internal/metrics"
	"rcca-backend/internal/service"
)

const (
	JobSyncLocalDrafts      = "sync-local-drafts"
	JobRefreshStatusMetrics = "refresh-status-metrics"
	JobAll                  = "all"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	services *Services
	config   *config.Config
	metrics  *metrics.Metrics
	timeout  time.Duration
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Sync      service.SyncService
	Dashboard service.DashboardService
}

// NewJobRunner creates a new job runner with all dependencies. m may be nil.
func NewJobRunner(services *Services, cfg *config.Config, m *metrics.Metrics) *JobRunner {
	return &JobRunner{
		services: services,
		config:   cfg,
		metrics:  m,
		timeout:  time.Minute,
	}
}

// Config returns the configuration the runner was built with.
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery. A panic counts
// as a failed run.
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context) error) (err error) {
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
			err = fmt.Errorf("job %s panicked: %v", jobName, r)
		}
		if jr.metrics != nil {
			jr.metrics.ObserveJob(jobName, started, err != nil)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), jr.timeout)
	defer cancel()

	logger.Info("Starting job", "job", jobName)
	if err = jobFunc(ctx); err != nil {
		logger.Error("Job failed", "job", jobName, "error", err)
		return err
	}
	logger.Info("Job completed", "job", jobName, "durationMs", time.Since(started).Milliseconds())
	return nil
}

// Run executes a job by name. It is the entry point for manual runs.
func (jr *JobRunner) Run(name string) error {
	switch name {
	case JobSyncLocalDrafts:
		return jr.SyncLocalDrafts()
	case JobRefreshStatusMetrics:
		return jr.RefreshStatusMetrics()
	case JobAll:
		syncErr := jr.SyncLocalDrafts()
		if err := jr.RefreshStatusMetrics(); err != nil {
			return err
		}
		return syncErr
	default:
		return fmt.Errorf("unknown job %q", name)
	}
}

// Names lists the jobs accepted by Run.
func Names() []string {
	return []string{JobSyncLocalDrafts, JobRefreshStatusMetrics, JobAll}
}
