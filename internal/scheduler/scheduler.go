package scheduler

import (
	"context"
	"fmt"

	"subshare-be/internal/config"
	"subshare-be/internal/pkg/logger"

	"github.com/robfig/cron/v3"
)

// cronLogger forwards cron's own messages to the application logger.
type cronLogger struct {
	logger logger.ILogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("CRON", msg, pairs(keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	details := pairs(keysAndValues)
	details["error"] = err.Error()
	l.logger.Error("CRON", msg, details)
}

func pairs(keysAndValues []interface{}) map[string]interface{} {
	details := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		details[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return details
}

type Scheduler struct {
	cron   *cron.Cron
	jobs   *Jobs
	cfg    config.SchedulerConfig
	logger logger.ILogger
}

func NewScheduler(jobs *Jobs, cfg config.SchedulerConfig, log logger.ILogger) *Scheduler {
	cl := cronLogger{logger: log}
	return &Scheduler{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		jobs:   jobs,
		cfg:    cfg,
		logger: log,
	}
}

// Register adds every job. An invalid schedule is an error so a typo in the
// environment fails at startup.
func (s *Scheduler) Register() error {
	entries := []struct {
		name     string
		schedule string
		run      func()
	}{
		{JobRenewalSweep, s.cfg.RenewalSweepSchedule, s.jobs.RenewalSweep},
		{JobFinalizeCancellations, s.cfg.FinalizeCancelSchedule, s.jobs.FinalizeCancellations},
		{JobReleaseCredits, s.cfg.ReleaseCreditsSchedule, s.jobs.ReleaseCredits},
		{JobReconcileRefunds, s.cfg.ReconcileRefundsSchedule, s.jobs.ReconcileRefunds},
	}
	for _, e := range entries {
		if _, err := s.cron.AddFunc(e.schedule, e.run); err != nil {
			return fmt.Errorf("schedule %s (%q): %w", e.name, e.schedule, err)
		}
		s.logger.Info("SCHEDULER", "Job scheduled", map[string]interface{}{
			"job":      e.name,
			"schedule": e.schedule,
		})
	}
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs through the returned context.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
