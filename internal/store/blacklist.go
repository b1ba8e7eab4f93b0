// internal/store/blacklist.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	stderrors "membership-reminders/internal/common/errors"
	"membership-reminders/internal/common/logger"
	"membership-reminders/internal/models"
)

// BlacklistStore persists blacklist entries keyed by member id.
type BlacklistStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewBlacklistStore(db *sql.DB, log logger.Logger) *BlacklistStore {
	return &BlacklistStore{db: db, logger: log}
}

// Get returns the entry for a member, or nil when none exists.
func (s *BlacklistStore) Get(ctx context.Context, memberID string) (*models.BlacklistEntry, error) {
	const query = `
		SELECT member_id, email, reason, is_permanent, last_attempt_date, attempt_count
		FROM blacklist_entries
		WHERE member_id = $1`

	var e models.BlacklistEntry
	err := s.db.QueryRowContext(ctx, query, memberID).Scan(
		&e.MemberID, &e.Email, &e.Reason, &e.IsPermanent, &e.LastAttemptDate, &e.AttemptCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, stderrors.NewStoreError(stderrors.ErrCodeQueryExecutionFailed,
			fmt.Sprintf("get blacklist entry: %v", err))
	}
	return &e, nil
}

// Upsert inserts or replaces the entry for a member.
func (s *BlacklistStore) Upsert(ctx context.Context, entry models.BlacklistEntry) error {
	const query = `
		INSERT INTO blacklist_entries
			(member_id, email, reason, is_permanent, last_attempt_date, attempt_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (member_id) DO UPDATE SET
			email = EXCLUDED.email,
			reason = EXCLUDED.reason,
			is_permanent = EXCLUDED.is_permanent,
			last_attempt_date = EXCLUDED.last_attempt_date,
			attempt_count = EXCLUDED.attempt_count`

	_, err := s.db.ExecContext(ctx, query,
		entry.MemberID, entry.Email, entry.Reason, entry.IsPermanent,
		entry.LastAttemptDate, entry.AttemptCount,
	)
	if err != nil {
		s.logger.Error("failed to upsert blacklist entry", map[string]interface{}{
			"memberId": entry.MemberID,
			"error":    err,
		})
		return stderrors.NewStoreError(stderrors.ErrCodeDatabaseWriteFailed,
			fmt.Sprintf("upsert blacklist entry: %v", err))
	}
	return nil
}

// Delete removes the entry for a member. Deleting a missing entry is not an
// error.
func (s *BlacklistStore) Delete(ctx context.Context, memberID string) error {
	const query = `DELETE FROM blacklist_entries WHERE member_id = $1`

	if _, err := s.db.ExecContext(ctx, query, memberID); err != nil {
		return stderrors.NewStoreError(stderrors.ErrCodeDatabaseWriteFailed,
			fmt.Sprintf("delete blacklist entry: %v", err))
	}
	return nil
}

// PermanentMemberIDs returns the ids of all permanently blacklisted members.
func (s *BlacklistStore) PermanentMemberIDs(ctx context.Context) (map[string]bool, error) {
	const query = `SELECT member_id FROM blacklist_entries WHERE is_permanent = TRUE`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, stderrors.NewStoreError(stderrors.ErrCodeQueryExecutionFailed,
			fmt.Sprintf("query permanent blacklist: %v", err))
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, stderrors.NewStoreError(stderrors.ErrCodeQueryExecutionFailed,
				fmt.Sprintf("scan blacklist row: %v", err))
		}
		ids[id] = true
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewStoreError(stderrors.ErrCodeQueryExecutionFailed,
			fmt.Sprintf("iterate blacklist rows: %v", err))
	}
	return ids, nil
}

// CountPermanent returns the number of permanently blacklisted members.
func (s *BlacklistStore) CountPermanent(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM blacklist_entries WHERE is_permanent = TRUE`

	var count int
	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, stderrors.NewStoreError(stderrors.ErrCodeQueryExecutionFailed,
			fmt.Sprintf("count permanent blacklist: %v", err))
	}
	return count, nil
}
