// internal/reminder/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"time"

	"membership-reminders/internal/common/logger"
	"membership-reminders/internal/models"
)

// CounterStore persists the per-day send counter.
type CounterStore interface {
	ForDay(ctx context.Context, day time.Time) (models.RateControlRecord, error)
	IncrementSent(ctx context.Context, day time.Time, maxPerDay, maxPerBatch int) error
}

// Limiter enforces the daily and per-batch send caps and paces successive
// sends. It is used by a single run at a time; the coordinator's single-flight
// guard provides the exclusion.
type Limiter struct {
	store       CounterStore
	maxPerDay   int
	maxPerBatch int
	pacing      time.Duration
	batchSent   int
	logger      logger.Logger
	now         func() time.Time
}

func NewLimiter(store CounterStore, maxPerDay, maxPerBatch int, pacing time.Duration, log logger.Logger) *Limiter {
	return &Limiter{
		store:       store,
		maxPerDay:   maxPerDay,
		maxPerBatch: maxPerBatch,
		pacing:      pacing,
		logger:      log,
		now:         time.Now,
	}
}

// WithClock pins the limiter's clock for tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// StartBatch resets the per-run counter. Called at the beginning of each run.
func (l *Limiter) StartBatch() {
	l.batchSent = 0
}

// Allow reports whether another send fits under both caps. The daily counter
// is re-read from the store before every send, not only at batch start.
func (l *Limiter) Allow(ctx context.Context) (bool, error) {
	if l.batchSent >= l.maxPerBatch {
		l.logger.Info("batch cap reached", map[string]interface{}{
			"sent": l.batchSent,
			"cap":  l.maxPerBatch,
		})
		return false, nil
	}

	rec, err := l.store.ForDay(ctx, l.now())
	if err != nil {
		return false, err
	}
	if rec.EmailsSentToday >= l.maxPerDay {
		l.logger.Info("daily cap reached", map[string]interface{}{
			"sent": rec.EmailsSentToday,
			"cap":  l.maxPerDay,
		})
		return false, nil
	}
	return true, nil
}

// RecordSend bumps both the persisted daily counter and the batch counter.
func (l *Limiter) RecordSend(ctx context.Context) error {
	if err := l.store.IncrementSent(ctx, l.now(), l.maxPerDay, l.maxPerBatch); err != nil {
		return err
	}
	l.batchSent++
	return nil
}

// BatchSent returns how many sends this batch has recorded.
func (l *Limiter) BatchSent() int {
	return l.batchSent
}

// Status reports today's persisted counter alongside the configured caps.
func (l *Limiter) Status(ctx context.Context) (sentToday, maxPerDay, maxPerBatch int, err error) {
	rec, err := l.store.ForDay(ctx, l.now())
	if err != nil {
		return 0, 0, 0, err
	}
	return rec.EmailsSentToday, l.maxPerDay, l.maxPerBatch, nil
}

// Pace sleeps the configured inter-message delay, honoring cancellation.
func (l *Limiter) Pace(ctx context.Context) error {
	if l.pacing <= 0 {
		return nil
	}
	timer := time.NewTimer(l.pacing)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
