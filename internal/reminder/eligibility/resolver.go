// internal/reminder/eligibility/resolver.go
package eligibility

import (
	"context"
	"time"

	"membership-reminders/internal/common/logger"
	"membership-reminders/internal/models"
)

// MemberSource queries candidate members from the external member store.
type MemberSource interface {
	ExpiringWithin(ctx context.Context, from, to time.Time) ([]models.Member, error)
}

// Guard answers the already-notified-today question.
type Guard interface {
	WasNotifiedToday(ctx context.Context, memberID string) (bool, error)
}

// BlacklistReader exposes the permanent exclusion set.
type BlacklistReader interface {
	PermanentMembers(ctx context.Context) (map[string]bool, error)
}

// Result carries the eligible members plus the counts the run summary needs.
type Result struct {
	Members         []models.Member
	TotalExpiring   int
	AlreadyNotified int
	Blacklisted     int
}

// Resolver computes today's eligible members: active status, valid email,
// expiry inside the window, not permanently blacklisted, not already notified
// today. Ordering follows the member store query: ascending expiry date, then
// name.
type Resolver struct {
	members    MemberSource
	guard      Guard
	blacklist  BlacklistReader
	windowDays int
	logger     logger.Logger
	now        func() time.Time
}

func NewResolver(members MemberSource, guard Guard, blacklist BlacklistReader, windowDays int, log logger.Logger) *Resolver {
	if windowDays <= 0 {
		windowDays = 3
	}
	return &Resolver{
		members:    members,
		guard:      guard,
		blacklist:  blacklist,
		windowDays: windowDays,
		logger:     log,
		now:        time.Now,
	}
}

// WithClock pins the resolver's clock for tests.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Resolve returns today's candidates. An empty list is a normal outcome, not
// an error.
func (r *Resolver) Resolve(ctx context.Context) (*Result, error) {
	today := startOfDay(r.now())
	until := today.AddDate(0, 0, r.windowDays)

	candidates, err := r.members.ExpiringWithin(ctx, today, until)
	if err != nil {
		return nil, err
	}

	blocked, err := r.blacklist.PermanentMembers(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{TotalExpiring: len(candidates)}
	for _, member := range candidates {
		if !models.ValidEmail(member.Email) {
			r.logger.Debug("skipping member with invalid email", map[string]interface{}{
				"memberId": member.ID,
			})
			continue
		}
		if blocked[member.ID] {
			result.Blacklisted++
			continue
		}
		notified, err := r.guard.WasNotifiedToday(ctx, member.ID)
		if err != nil {
			return nil, err
		}
		if notified {
			result.AlreadyNotified++
			continue
		}
		result.Members = append(result.Members, member)
	}

	r.logger.Info("eligibility resolved", map[string]interface{}{
		"totalExpiring":   result.TotalExpiring,
		"eligible":        len(result.Members),
		"alreadyNotified": result.AlreadyNotified,
		"blacklisted":     result.Blacklisted,
	})
	return result, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
