// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/covertly/identity/internal/app/store/oauthstate"
)

// Job is a named maintenance task run on a fixed interval.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Runner drives a set of jobs until stopped.
type Runner struct {
	jobs   []Job
	log    *zap.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewRunner creates a runner for the given jobs.
func NewRunner(logger *zap.Logger, jobs ...Job) *Runner {
	return &Runner{jobs: jobs, log: logger, stopCh: make(chan struct{})}
}

// Start launches one goroutine per job.
func (r *Runner) Start() {
	for _, j := range r.jobs {
		r.wg.Add(1)
		go r.loop(j)
	}
	r.log.Info("job runner started", zap.Int("jobs", len(r.jobs)))
}

// Stop signals all jobs to exit and waits for them.
func (r *Runner) Stop() {
	close(r.stopCh)
	r.wg.Wait()
	r.log.Info("job runner stopped")
}

func (r *Runner) loop(j Job) {
	defer r.wg.Done()
	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), j.Interval)
			if err := j.Run(ctx); err != nil {
				r.log.Error("job failed", zap.String("job", j.Name), zap.Error(err))
			}
			cancel()
		case <-r.stopCh:
			return
		}
	}
}

// OAuthStateCleanupJob creates a job that removes expired OAuth state tokens.
// This is a backup for when MongoDB's TTL index cleanup is delayed.
func OAuthStateCleanupJob(stateStore *oauthstate.Store, logger *zap.Logger) Job {
	return Job{
		Name:     "oauth-state-cleanup",
		Interval: 1 * time.Hour, // Run hourly
		Run: func(ctx context.Context) error {
			count, err := stateStore.CleanupExpired(ctx)
			if err != nil {
				return err
			}
			if count > 0 {
				logger.Debug("cleaned up expired OAuth states", zap.Int64("count", count))
			}
			return nil
		},
	}
}
