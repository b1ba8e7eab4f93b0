// internal/store/members.go
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

// MemberStore reads member rows from the external membership schema. The
// reminder pipeline never writes to these tables.
type MemberStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewMemberStore(db *sql.DB, log logger.Logger) *MemberStore {
	return &MemberStore{db: db, logger: log}
}

// ExpiringWithin returns active members whose expiry date falls inside
// [from, to], ordered by ascending expiry date with name as a stable
// tie-break.
func (s *MemberStore) ExpiringWithin(ctx context.Context, from, to time.Time) ([]models.Member, error) {
	const query = `
		SELECT m.id, m.name, m.email, m.status, m.expiry_date, m.join_date,
		       COALESCE(p.name, ''), COALESCE(p.price, 0)
		FROM members m
		LEFT JOIN membership_plans p ON p.id = m.membership_plan_id
		WHERE m.status = $1
		  AND m.expiry_date >= $2
		  AND m.expiry_date <= $3
		ORDER BY m.expiry_date ASC, m.name ASC`

	rows, err := s.db.QueryContext(ctx, query, models.StatusActive, from, to)
	if err != nil {
		return nil, stderrors.NewStoreError(stderrors.ErrCodeQueryExecutionFailed,
			fmt.Sprintf("query expiring members: %v", err))
	}
	defer rows.Close()

	var members []models.Member
	for rows.Next() {
		var m models.Member
		var expiry, join sql.NullTime
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Status, &expiry, &join, &m.MembershipName, &m.Price); err != nil {
			return nil, stderrors.NewStoreError(stderrors.ErrCodeQueryExecutionFailed,
				fmt.Sprintf("scan member row: %v", err))
		}
		if expiry.Valid {
			t := expiry.Time
			m.ExpiryDate = &t
		}
		if join.Valid {
			t := join.Time
			m.JoinDate = &t
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, stderrors.NewStoreError(stderrors.ErrCodeQueryExecutionFailed,
			fmt.Sprintf("iterate member rows: %v", err))
	}

	s.logger.Debug("loaded expiring members", map[string]interface{}{
		"count": len(members),
		"from":  from.Format("2006-01-02"),
		"to":    to.Format("2006-01-02"),
	})
	return members, nil
}
