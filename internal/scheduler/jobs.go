package scheduler

import (
	"context"
	"errors"
	"time"

	"subshare-be/internal/pkg/logger"
	"subshare-be/internal/service"
	"subshare-be/pkg/lock"

	"github.com/google/uuid"
)

const (
	JobRenewalSweep          = "renewal-sweep"
	JobFinalizeCancellations = "finalize-cancellations"
	JobReleaseCredits        = "release-credits"
	JobReconcileRefunds      = "reconcile-refunds"
)

// Jobs are the periodic billing tasks. Each run takes a Redis lease so only
// one replica executes a job at a time; a nil locker runs unguarded.
type Jobs struct {
	billing  service.IBillingService
	subs     service.ISubscriptionService
	wallet   service.IWalletService
	locker   *lock.Locker
	leaseTTL time.Duration
	logger   logger.ILogger
}

func NewJobs(
	billing service.IBillingService,
	subs service.ISubscriptionService,
	wallet service.IWalletService,
	locker *lock.Locker,
	leaseTTL time.Duration,
	logger logger.ILogger,
) *Jobs {
	return &Jobs{
		billing:  billing,
		subs:     subs,
		wallet:   wallet,
		locker:   locker,
		leaseTTL: leaseTTL,
		logger:   logger,
	}
}

func (j *Jobs) RenewalSweep() {
	j.guarded(JobRenewalSweep, func(ctx context.Context) error {
		_, err := j.billing.RunRenewalSweep(ctx, uuid.Nil)
		return err
	})
}

func (j *Jobs) FinalizeCancellations() {
	j.guarded(JobFinalizeCancellations, func(ctx context.Context) error {
		_, err := j.subs.FinalizeScheduledCancellations(ctx)
		return err
	})
}

func (j *Jobs) ReleaseCredits() {
	j.guarded(JobReleaseCredits, func(ctx context.Context) error {
		_, err := j.wallet.ReleaseClearedCredits(ctx)
		return err
	})
}

func (j *Jobs) ReconcileRefunds() {
	j.guarded(JobReconcileRefunds, func(ctx context.Context) error {
		_, err := j.subs.ReconcileRefunds(ctx)
		return err
	})
}

func (j *Jobs) guarded(name string, run func(ctx context.Context) error) bool {
	ctx, cancel := context.WithTimeout(context.Background(), j.leaseTTL)
	defer cancel()

	if j.locker != nil {
		lease, err := j.locker.Acquire(ctx, name, j.leaseTTL)
		if errors.Is(err, lock.ErrNotAcquired) {
			j.logger.Debug("SCHEDULER", "Job skipped, lease held elsewhere", map[string]interface{}{"job": name})
			return false
		}
		if err != nil {
			j.logger.Error("SCHEDULER", "Failed to acquire lease", map[string]interface{}{
				"job":   name,
				"error": err.Error(),
			})
			return false
		}
		defer func() {
			if err := lease.Release(context.WithoutCancel(ctx)); err != nil {
				j.logger.Warn("SCHEDULER", "Failed to release lease", map[string]interface{}{
					"job":   name,
					"error": err.Error(),
				})
			}
		}()
	}

	started := time.Now()
	if err := run(ctx); err != nil {
		j.logger.Error("SCHEDULER", "Job failed", map[string]interface{}{
			"job":   name,
			"error": err.Error(),
		})
		return false
	}
	j.logger.Info("SCHEDULER", "Job finished", map[string]interface{}{
		"job":      name,
		"duration": time.Since(started).String(),
	})
	return true
}
