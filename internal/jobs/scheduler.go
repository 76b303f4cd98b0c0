package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// OwnerReconciler repairs appointments stored without an owner
type OwnerReconciler interface {
	ReconcileOwners(ctx context.Context) (int, error)
}

// Scheduler runs periodic maintenance jobs
type Scheduler struct {
	schedule   string
	reconciler OwnerReconciler
	cron       *cron.Cron
	timeout    time.Duration
	log        *zap.Logger
}

// NewScheduler creates a scheduler. An empty schedule disables the reconcile job.
func NewScheduler(schedule string, reconciler OwnerReconciler, log *zap.Logger) *Scheduler {
	return &Scheduler{
		schedule:   schedule,
		reconciler: reconciler,
		cron:       cron.New(),
		timeout:    time.Minute,
		log:        log,
	}
}

// Start registers the jobs and begins running them in the background
func (s *Scheduler) Start() error {
	if s.schedule == "" {
		s.log.Info("Owner reconciliation schedule empty, scheduler idle")
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, s.reconcile); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("Scheduler started", zap.String("reconcile_schedule", s.schedule))
	return nil
}

// Stop waits for running jobs to finish or ctx to expire
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
		s.log.Info("Scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("Scheduler stop timed out", zap.Error(ctx.Err()))
	}
}

// Jobs returns the number of registered jobs
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) reconcile() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	repaired, err := s.reconciler.ReconcileOwners(ctx)
	if err != nil {
		s.log.Error("Scheduled owner reconciliation failed", zap.Error(err))
		return
	}
	s.log.Debug("Scheduled owner reconciliation finished",
		zap.Int("repaired", repaired),
		zap.Duration("took", time.Since(start)))
}
