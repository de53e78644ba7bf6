// Package scheduler runs the periodic background jobs of the API server.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const (
	purgeSpec  = "@hourly"
	jobTimeout = 30 * time.Second
)

// Jobs are the maintenance operations the scheduler triggers.
type Jobs interface {
	PublishScheduled(ctx context.Context) (int64, error)
	PurgeRevokedTokens(ctx context.Context) (int64, error)
}

// Scheduler triggers Jobs on cron specs. A run that is still going when the
// next one is due is skipped.
type Scheduler struct {
	cron *cron.Cron
	jobs Jobs
	log  logrus.FieldLogger
}

func New(jobs Jobs, log logrus.FieldLogger) *Scheduler {
	cronLog := cron.PrintfLogger(log)
	return &Scheduler{
		cron: cron.New(cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog))),
		jobs: jobs,
		log:  log,
	}
}

// Start registers the jobs and starts the cron loop in its own goroutine.
// publishSpec uses the standard cron syntax or descriptors such as
// "@every 1m".
func (s *Scheduler) Start(publishSpec string) error {
	if _, err := s.cron.AddFunc(publishSpec, s.publish); err != nil {
		return fmt.Errorf("schedule publication job %q: %w", publishSpec, err)
	}
	if _, err := s.cron.AddFunc(purgeSpec, s.purge); err != nil {
		return fmt.Errorf("schedule token purge job: %w", err)
	}
	s.cron.Start()
	s.log.WithField("publish_schedule", publishSpec).Info("Scheduler started.")
	return nil
}

// Stop stops triggering jobs and waits for running ones until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
		s.log.Info("Scheduler stopped.")
	case <-ctx.Done():
		s.log.Warn("Scheduler stop timed out with jobs still running.")
	}
}

func (s *Scheduler) publish() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if _, err := s.jobs.PublishScheduled(ctx); err != nil {
		s.log.WithError(err).Error("Scheduled publication failed.")
	}
}

func (s *Scheduler) purge() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()
	if _, err := s.jobs.PurgeRevokedTokens(ctx); err != nil {
		s.log.WithError(err).Error("Revoked token purge failed.")
	}
}
