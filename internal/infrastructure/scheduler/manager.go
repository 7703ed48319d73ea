// Package scheduler provides unified scheduler management using gocron v2.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"

	"bandwave/internal/shared/biztime"
	"bandwave/internal/shared/logger"
)

// BatchJob defines the interface for a scheduled batch processing job.
// Each Execute call processes a batch and returns the number of items processed.
type BatchJob interface {
	Execute(ctx context.Context) (int, error)
}

// Manager manages all scheduled jobs using a single gocron v2 scheduler
// instance.
type Manager struct {
	scheduler gocron.Scheduler
	logger    logger.Interface

	started   bool
	startedMu sync.RWMutex
}

// NewManager creates a new scheduler manager. It initializes gocron with the
// business timezone for cron expressions.
func NewManager(log logger.Interface) (*Manager, error) {
	scheduler, err := gocron.NewScheduler(
		gocron.WithLocation(biztime.Location()),
	)
	if err != nil {
		return nil, err
	}

	return &Manager{
		scheduler: scheduler,
		logger:    log,
	}, nil
}

// RegisterLifecycleJobs registers subscription maintenance jobs:
//   - Apply due scheduled plan changes (hourly, start immediately)
//   - Mark period-ended subscriptions expired (hourly, start immediately)
//
// Scheduled downgrades must land before expiry so the renewal that follows
// picks up the new plan's pricing.
func (m *Manager) RegisterLifecycleJobs(
	applyScheduledChangesJob BatchJob,
	expireSubscriptionsJob BatchJob,
) error {
	_, err := m.scheduler.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			m.processLifecycleTasks(ctx, applyScheduledChangesJob, expireSubscriptionsJob)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithTags("subscription", "lifecycle"),
		gocron.WithName("subscription-lifecycle"),
	)
	if err != nil {
		return err
	}

	m.logger.Infow("registered subscription lifecycle jobs", "interval", "1h")
	return nil
}

func (m *Manager) processLifecycleTasks(
	ctx context.Context,
	applyScheduledChangesJob BatchJob,
	expireSubscriptionsJob BatchJob,
) {
	m.logger.Debugw("processing subscription lifecycle tasks started")

	startTime := biztime.NowUTC()

	appliedCount, err := applyScheduledChangesJob.Execute(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.Errorw("failed to apply scheduled plan changes",
			"error", err,
			"duration", time.Since(startTime),
		)
	} else if appliedCount > 0 {
		m.logger.Infow("scheduled plan changes applied",
			"count", appliedCount,
			"duration", time.Since(startTime),
		)
	}

	expiredCount, err := expireSubscriptionsJob.Execute(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		m.logger.Errorw("failed to expire subscriptions",
			"error", err,
		)
	} else if expiredCount > 0 {
		m.logger.Infow("period-ended subscriptions expired",
			"count", expiredCount,
		)
	}
}

// Start starts the scheduler and all registered jobs.
func (m *Manager) Start() {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if m.started {
		return
	}

	m.scheduler.Start()
	m.started = true
	m.logger.Infow("scheduler manager started", "job_count", len(m.scheduler.Jobs()))
}

// Stop gracefully stops the scheduler. It waits for all running jobs to
// complete before returning.
func (m *Manager) Stop() error {
	m.startedMu.Lock()
	defer m.startedMu.Unlock()

	if !m.started {
		return nil
	}

	m.logger.Infow("stopping scheduler manager")

	err := m.scheduler.Shutdown()
	m.started = false

	if err != nil {
		m.logger.Errorw("scheduler manager shutdown with error", "error", err)
		return err
	}

	m.logger.Infow("scheduler manager stopped")
	return nil
}

// IsStarted returns whether the scheduler is running.
func (m *Manager) IsStarted() bool {
	m.startedMu.RLock()
	defer m.startedMu.RUnlock()
	return m.started
}

// Jobs returns all registered jobs for inspection.
func (m *Manager) Jobs() []gocron.Job {
	return m.scheduler.Jobs()
}
