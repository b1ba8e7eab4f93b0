// internal/reminder/idempotency/guard.go
package idempotency

import (
	"context"
	"time"

	"membership-reminders/internal/models"
)

// AttemptCounter is the slice of the notification log the guard reads.
type AttemptCounter interface {
	CountSentOn(ctx context.Context, memberID, notifType string, day time.Time) (int, error)
}

// Guard answers whether a member already received a successful reminder
// today. This is a check-then-act guard, not a transactional lock; the unique
// index on the log table catches the race a concurrent run could open.
type Guard struct {
	attempts AttemptCounter
	now      func() time.Time
}

func NewGuard(attempts AttemptCounter) *Guard {
	return &Guard{attempts: attempts, now: time.Now}
}

func NewGuardAt(attempts AttemptCounter, now func() time.Time) *Guard {
	return &Guard{attempts: attempts, now: now}
}

// WasNotifiedToday reports whether a "sent" reminder attempt exists for the
// member on today's calendar day.
func (g *Guard) WasNotifiedToday(ctx context.Context, memberID string) (bool, error) {
	today := g.now()
	count, err := g.attempts.CountSentOn(ctx, memberID, models.TypeMembershipReminder, today)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
