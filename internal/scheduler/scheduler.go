// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"time"

	"membership-reminders/internal/common/logger"
	"membership-reminders/internal/reminder/coordinator"
)

// Trigger is the single coordinator operation the scheduler invokes.
type Trigger interface {
	TriggerRun(ctx context.Context) coordinator.RunSummary
}

// Scheduler fires the daily reminder run at a fixed local hour. Missed ticks
// roll forward to the next day; the coordinator's idempotency guard makes a
// late or duplicate trigger harmless.
type Scheduler struct {
	trigger Trigger
	hour    int
	logger  logger.Logger
	now     func() time.Time
}

func New(trigger Trigger, hour int, log logger.Logger) *Scheduler {
	return &Scheduler{
		trigger: trigger,
		hour:    hour,
		logger:  log,
		now:     time.Now,
	}
}

// Run blocks until ctx is cancelled, triggering one run per day.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		next := s.nextFiring()
		s.logger.Info("daily run scheduled", map[string]interface{}{
			"at": next.Format(time.RFC3339),
		})

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopped", nil)
			return
		case <-timer.C:
		}

		summary := s.trigger.TriggerRun(ctx)
		s.logger.Info("scheduled run completed", map[string]interface{}{
			"sent":    summary.Sent,
			"count":   summary.Count,
			"message": summary.Message,
		})
	}
}

func (s *Scheduler) nextFiring() time.Time {
	now := s.now()
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
