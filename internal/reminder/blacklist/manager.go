// internal/reminder/blacklist/manager.go
package blacklist

import (
	"context"
	"time"

	stderrors "membership-reminders/internal/common/errors"
	"membership-reminders/internal/common/logger"
	"membership-reminders/internal/models"
)

// Store is the persistence contract the manager needs.
type Store interface {
	Get(ctx context.Context, memberID string) (*models.BlacklistEntry, error)
	Upsert(ctx context.Context, entry models.BlacklistEntry) error
	Delete(ctx context.Context, memberID string) error
	PermanentMemberIDs(ctx context.Context) (map[string]bool, error)
	CountPermanent(ctx context.Context) (int, error)
}

// Manager classifies failed delivery attempts into permanent and transient
// blacklist state.
type Manager struct {
	store     Store
	threshold int
	logger    logger.Logger
	now       func() time.Time
}

func NewManager(store Store, threshold int, log logger.Logger) *Manager {
	if threshold <= 0 {
		threshold = 3
	}
	return &Manager{
		store:     store,
		threshold: threshold,
		logger:    log,
		now:       time.Now,
	}
}

// RecordFailure updates blacklist state after a failed delivery. Hard
// failures (malformed address, permanent provider rejection) blacklist the
// member immediately; transient failures increment the attempt counter and
// promote to permanent once the counter reaches the configured threshold.
func (m *Manager) RecordFailure(ctx context.Context, member models.Member, deliveryErr error) error {
	if stderrors.IsPermanent(deliveryErr) {
		entry := models.BlacklistEntry{
			MemberID:        member.ID,
			Email:           member.Email,
			Reason:          reasonFor(deliveryErr),
			IsPermanent:     true,
			LastAttemptDate: m.now(),
			AttemptCount:    1,
		}
		if existing, err := m.store.Get(ctx, member.ID); err == nil && existing != nil {
			entry.AttemptCount = existing.AttemptCount + 1
		}
		m.logger.Warn("member permanently blacklisted", map[string]interface{}{
			"memberId": member.ID,
			"reason":   entry.Reason,
		})
		return m.store.Upsert(ctx, entry)
	}

	existing, err := m.store.Get(ctx, member.ID)
	if err != nil {
		return err
	}

	entry := models.BlacklistEntry{
		MemberID:        member.ID,
		Email:           member.Email,
		Reason:          models.ReasonTransientFailure,
		IsPermanent:     false,
		LastAttemptDate: m.now(),
		AttemptCount:    1,
	}
	if existing != nil {
		entry.AttemptCount = existing.AttemptCount + 1
		// A member already marked permanent stays permanent.
		entry.IsPermanent = existing.IsPermanent
		entry.Reason = existing.Reason
	}

	if !entry.IsPermanent && entry.AttemptCount >= m.threshold {
		entry.IsPermanent = true
		entry.Reason = models.ReasonRepeatedFailures
		m.logger.Warn("member promoted to permanent blacklist", map[string]interface{}{
			"memberId":     member.ID,
			"attemptCount": entry.AttemptCount,
			"threshold":    m.threshold,
		})
	}

	return m.store.Upsert(ctx, entry)
}

// PermanentMembers returns the set of member ids excluded from eligibility.
func (m *Manager) PermanentMembers(ctx context.Context) (map[string]bool, error) {
	return m.store.PermanentMemberIDs(ctx)
}

// Count returns the number of permanently blacklisted members.
func (m *Manager) Count(ctx context.Context) (int, error) {
	return m.store.CountPermanent(ctx)
}

// Unlist clears a member's blacklist entry. Administrative operation only;
// the automated pipeline never calls it.
func (m *Manager) Unlist(ctx context.Context, memberID string) error {
	m.logger.Info("blacklist entry removed", map[string]interface{}{
		"memberId": memberID,
	})
	return m.store.Delete(ctx, memberID)
}

func reasonFor(err error) models.BlacklistReason {
	if stderrors.Normalize(err).Code == stderrors.ErrCodeRecipientRejected {
		return models.ReasonPermanentRejection
	}
	return models.ReasonInvalidAddress
}
