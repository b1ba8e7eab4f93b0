package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"membership-reminders/internal/common/logger"
	"membership-reminders/internal/reminder/coordinator"
)

type mockTrigger struct {
	calls int
}

func (m *mockTrigger) TriggerRun(_ context.Context) coordinator.RunSummary {
	m.calls++
	return coordinator.RunSummary{Sent: true}
}

func TestNextFiring(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		hour int
		want time.Time
	}{
		{
			name: "before the firing hour fires today",
			now:  time.Date(2026, 3, 10, 7, 30, 0, 0, time.UTC),
			hour: 9,
			want: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "after the firing hour rolls to tomorrow",
			now:  time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
			hour: 9,
			want: time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly at the firing instant rolls to tomorrow",
			now:  time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
			hour: 9,
			want: time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC),
		},
		{
			name: "midnight hour",
			now:  time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC),
			hour: 0,
			want: time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New(&mockTrigger{}, tt.hour, logger.NewTestLogger(t))
			s.now = func() time.Time { return tt.now }
			assert.Equal(t, tt.want, s.nextFiring())
		})
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	trigger := &mockTrigger{}
	s := New(trigger, 9, logger.NewTestLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop on cancellation")
	}
	assert.Zero(t, trigger.calls)
}
