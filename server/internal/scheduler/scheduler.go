// Package scheduler runs the control plane's two fixed daily jobs: CA
// succession and stale-CA cleanup.
package scheduler

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"nebulafleet.dev/server/internal/certmanager"
	"nebulafleet.dev/server/internal/logging"
)

// job is a named daily task with a fixed fire time (hour/minute, local
// to the server's wall clock).
type job struct {
	name string
	hour int
	min  int
	run  func(ctx context.Context) error
	mu   sync.Mutex
}

// Scheduler fires each configured job once at its daily time, guarding
// against overlapping runs of the same job.
type Scheduler struct {
	certs  *certmanager.Manager
	logger *zap.Logger
	jobs   []*job
	now    func() time.Time
}

func New(certs *certmanager.Manager, logger *zap.Logger) *Scheduler {
	s := &Scheduler{certs: certs, logger: logger, now: time.Now}
	s.jobs = []*job{
		{name: "ensure_future_ca", hour: 3, min: 0, run: func(ctx context.Context) error {
			return s.certs.EnsureFutureCA(ctx)
		}},
		{name: "cleanup_old_cas", hour: 4, min: 0, run: func(ctx context.Context) error {
			_, err := s.certs.CleanupOldCAs(ctx)
			return err
		}},
	}
	return s
}

// Run blocks until ctx is cancelled, firing each job at its next daily
// occurrence and re-arming for the following day afterward.
func (s *Scheduler) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, j := range s.jobs {
		wg.Add(1)
		go func(j *job) {
			defer wg.Done()
			s.runJobLoop(ctx, j)
		}(j)
	}
	wg.Wait()
}

func (s *Scheduler) runJobLoop(ctx context.Context, j *job) {
	for {
		wait := nextFireIn(s.now(), j.hour, j.min)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.runOnce(ctx, j)
		}
	}
}

// runOnce executes a job's body under its mutex, so a run that takes
// longer than a day (should never happen in practice) cannot overlap
// with its own next occurrence.
func (s *Scheduler) runOnce(ctx context.Context, j *job) {
	if !j.mu.TryLock() {
		logging.Warn(ctx, "scheduler job still running, skipping this occurrence", zap.String("job", j.name))
		return
	}
	defer j.mu.Unlock()

	logging.Info(ctx, "scheduler job starting", zap.String("job", j.name))
	if err := j.run(ctx); err != nil {
		logging.Error(ctx, "scheduler job failed", zap.String("job", j.name), zap.Error(err))
		return
	}
	logging.Info(ctx, "scheduler job completed", zap.String("job", j.name))
}

// nextFireIn computes the duration until the next occurrence of
// hour:min in now's location, today if it hasn't passed yet, tomorrow
// otherwise.
func nextFireIn(now time.Time, hour, min int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next.Sub(now)
}
