// Package jobs runs background maintenance on a cron schedule.
package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Reconciler rebuilds stored streaks from submission history.
type Reconciler interface {
	ReconcileAll(ctx context.Context) (int, error)
}

type Scheduler struct {
	cron       *cron.Cron
	spec       string
	reconciler Reconciler
}

func NewScheduler(reconciler Reconciler, spec string, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		spec:       spec,
		reconciler: reconciler,
	}
}

// Start registers the reconcile job and starts the cron loop. ctx bounds every run.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunReconcile(ctx) }); err != nil {
		return fmt.Errorf("invalid reconcile schedule %q: %w", s.spec, err)
	}

	s.cron.Start()
	log.WithField("schedule", s.spec).Info("Scheduler started")
	return nil
}

// RunReconcile performs one reconcile pass and logs the outcome.
func (s *Scheduler) RunReconcile(ctx context.Context) {
	start := time.Now()
	log.Info("[CRON] Reconciling streaks")

	corrected, err := s.reconciler.ReconcileAll(ctx)
	fields := log.Fields{"corrected": corrected, "took": time.Since(start).String()}
	if err != nil {
		log.WithError(err).WithFields(fields).Error("[CRON] Reconcile finished with errors")
		return
	}
	log.WithFields(fields).Info("[CRON] Reconcile finished")
}

// Stop waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("Scheduler stopped")
}
