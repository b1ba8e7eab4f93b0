// internal/store/notifications.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	stderrors "membership-reminders/internal/common/errors"
	"membership-reminders/internal/common/logger"
	"membership-reminders/internal/models"
)

// NotificationStore appends to and reads the notification_attempts log.
//
// The table carries a unique partial index on (member_id, type, sent_on)
// WHERE status = 'sent', so a racing duplicate write fails loudly instead of
// silently double-sending.
type NotificationStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewNotificationStore(db *sql.DB, log logger.Logger) *NotificationStore {
	return &NotificationStore{db: db, logger: log}
}

// Append records one delivery attempt. Rows are never updated or deleted.
func (s *NotificationStore) Append(ctx context.Context, attempt models.NotificationAttempt) error {
	const query = `
		INSERT INTO notification_attempts
			(id, member_id, type, subject, provider, message_id, status, error_message, sent_at, sent_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := s.db.ExecContext(ctx, query,
		attempt.ID, attempt.MemberID, attempt.Type, attempt.Subject,
		attempt.Provider, attempt.MessageID, attempt.Status, attempt.ErrorMessage,
		attempt.SentAt, attempt.SentAt.Format("2006-01-02"),
	)
	if err != nil {
		s.logger.Error("failed to append notification attempt", map[string]interface{}{
			"memberId": attempt.MemberID,
			"status":   attempt.Status,
			"error":    err,
		})
		return stderrors.NewStoreError(stderrors.ErrCodeDatabaseWriteFailed,
			fmt.Sprintf("append notification attempt: %v", err))
	}
	return nil
}

// CountSentOn counts successful attempts of the given type for one member on
// one calendar day. Used as the idempotency check.
func (s *NotificationStore) CountSentOn(ctx context.Context, memberID, notifType string, day time.Time) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM notification_attempts
		WHERE member_id = $1 AND type = $2 AND status = $3 AND sent_on = $4`

	var count int
	err := s.db.QueryRowContext(ctx, query, memberID, notifType, models.AttemptStatusSent, day.Format("2006-01-02")).Scan(&count)
	if err != nil {
		return 0, stderrors.NewStoreError(stderrors.ErrCodeQueryExecutionFailed,
			fmt.Sprintf("count sent attempts: %v", err))
	}
	return count, nil
}

// DayCounts returns the sent and failed totals for one calendar day.
func (s *NotificationStore) DayCounts(ctx context.Context, day time.Time) (sent, failed int, err error) {
	const query = `
		SELECT
			COUNT(*) FILTER (WHERE status = 'sent'),
			COUNT(*) FILTER (WHERE status = 'failed')
		FROM notification_attempts
		WHERE sent_on = $1`

	err = s.db.QueryRowContext(ctx, query, day.Format("2006-01-02")).Scan(&sent, &failed)
	if err != nil {
		return 0, 0, stderrors.NewStoreError(stderrors.ErrCodeQueryExecutionFailed,
			fmt.Sprintf("count day attempts: %v", err))
	}
	return sent, failed, nil
}

// LastActivity returns the timestamp of the most recent attempt, or nil when
// the log is empty.
func (s *NotificationStore) LastActivity(ctx context.Context) (*time.Time, error) {
	const query = `SELECT MAX(sent_at) FROM notification_attempts`

	var last sql.NullTime
	if err := s.db.QueryRowContext(ctx, query).Scan(&last); err != nil {
		return nil, stderrors.NewStoreError(stderrors.ErrCodeQueryExecutionFailed,
			fmt.Sprintf("query last activity: %v", err))
	}
	if !last.Valid {
		return nil, nil
	}
	t := last.Time
	return &t, nil
}
