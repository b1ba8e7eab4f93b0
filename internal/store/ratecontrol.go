// internal/store/ratecontrol.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	stderrors "membership-reminders/internal/common/errors"
	"membership-reminders/internal/common/logger"
	"membership-reminders/internal/models"
)

// RateControlStore tracks the per-day send counter backing the rate limiter.
type RateControlStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewRateControlStore(db *sql.DB, log logger.Logger) *RateControlStore {
	return &RateControlStore{db: db, logger: log}
}

// ForDay returns the record for one calendar day. A missing row reports zero
// sends; the row is created lazily on the first increment.
func (s *RateControlStore) ForDay(ctx context.Context, day time.Time) (models.RateControlRecord, error) {
	const query = `
		SELECT batch_date, emails_sent_today, max_emails_per_day, max_emails_per_batch, batch_delay_minutes
		FROM rate_control
		WHERE batch_date = $1`

	rec := models.RateControlRecord{BatchDate: day}
	err := s.db.QueryRowContext(ctx, query, day.Format("2006-01-02")).Scan(
		&rec.BatchDate, &rec.EmailsSentToday, &rec.MaxEmailsPerDay,
		&rec.MaxEmailsPerBatch, &rec.BatchDelayMinutes,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, nil
	}
	if err != nil {
		return rec, stderrors.NewStoreError(stderrors.ErrCodeQueryExecutionFailed,
			fmt.Sprintf("query rate control: %v", err))
	}
	return rec, nil
}

// IncrementSent bumps the day's counter by one, creating the row when absent.
func (s *RateControlStore) IncrementSent(ctx context.Context, day time.Time, maxPerDay, maxPerBatch int) error {
	const query = `
		INSERT INTO rate_control
			(batch_date, emails_sent_today, max_emails_per_day, max_emails_per_batch, batch_delay_minutes)
		VALUES ($1, 1, $2, $3, 0)
		ON CONFLICT (batch_date) DO UPDATE SET
			emails_sent_today = rate_control.emails_sent_today + 1`

	if _, err := s.db.ExecContext(ctx, query, day.Format("2006-01-02"), maxPerDay, maxPerBatch); err != nil {
		s.logger.Error("failed to increment rate control counter", map[string]interface{}{
			"batchDate": day.Format("2006-01-02"),
			"error":     err,
		})
		return stderrors.NewStoreError(stderrors.ErrCodeDatabaseWriteFailed,
			fmt.Sprintf("increment rate control: %v", err))
	}
	return nil
}
