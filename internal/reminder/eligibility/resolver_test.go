package eligibility

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membership-reminders/internal/common/logger"
	"membership-reminders/internal/models"
)

type mockMemberSource struct {
	members []models.Member
	err     error

	gotFrom time.Time
	gotTo   time.Time
}

func (m *mockMemberSource) ExpiringWithin(_ context.Context, from, to time.Time) ([]models.Member, error) {
	m.gotFrom = from
	m.gotTo = to
	return m.members, m.err
}

type mockGuard struct {
	notified map[string]bool
	err      error
}

func (m *mockGuard) WasNotifiedToday(_ context.Context, memberID string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.notified[memberID], nil
}

type mockBlacklistReader struct {
	blocked map[string]bool
	err     error
}

func (m *mockBlacklistReader) PermanentMembers(_ context.Context) (map[string]bool, error) {
	return m.blocked, m.err
}

func member(id, name, email string, expiry time.Time) models.Member {
	return models.Member{
		ID:         id,
		Name:       name,
		Email:      email,
		Status:     models.StatusActive,
		ExpiryDate: &expiry,
	}
}

func TestResolve_FiltersAndCounts(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	d1 := now.Add(24 * time.Hour)
	d2 := now.Add(48 * time.Hour)

	source := &mockMemberSource{members: []models.Member{
		member("m1", "Ana", "ana@example.com", d1),
		member("m2", "Beto", "not-an-email", d1),
		member("m3", "Carla", "carla@example.com", d1),
		member("m4", "Diego", "diego@example.com", d2),
		member("m5", "Elsa", "elsa@example.com", d2),
	}}
	guard := &mockGuard{notified: map[string]bool{"m4": true}}
	blacklist := &mockBlacklistReader{blocked: map[string]bool{"m3": true}}

	resolver := NewResolver(source, guard, blacklist, 3, logger.NewTestLogger(t)).
		WithClock(func() time.Time { return now })

	result, err := resolver.Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 5, result.TotalExpiring)
	assert.Equal(t, 1, result.AlreadyNotified)
	assert.Equal(t, 1, result.Blacklisted)
	require.Len(t, result.Members, 2)
	assert.Equal(t, "m1", result.Members[0].ID)
	assert.Equal(t, "m5", result.Members[1].ID)
}

func TestResolve_WindowBounds(t *testing.T) {
	now := time.Date(2026, 3, 10, 23, 45, 0, 0, time.UTC)
	source := &mockMemberSource{}

	resolver := NewResolver(source, &mockGuard{}, &mockBlacklistReader{}, 3, logger.NewTestLogger(t)).
		WithClock(func() time.Time { return now })

	_, err := resolver.Resolve(context.Background())
	require.NoError(t, err)

	wantFrom := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, wantFrom, source.gotFrom)
	assert.Equal(t, wantFrom.AddDate(0, 0, 3), source.gotTo)
}

func TestResolve_EmptyCandidateList(t *testing.T) {
	resolver := NewResolver(&mockMemberSource{}, &mockGuard{}, &mockBlacklistReader{}, 3, logger.NewTestLogger(t))

	result, err := resolver.Resolve(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.Members)
	assert.Zero(t, result.TotalExpiring)
}

func TestResolve_PropagatesErrors(t *testing.T) {
	now := time.Now()
	candidate := member("m1", "Ana", "ana@example.com", now.Add(24*time.Hour))

	tests := []struct {
		name      string
		source    *mockMemberSource
		guard     *mockGuard
		blacklist *mockBlacklistReader
	}{
		{
			name:      "member source failure",
			source:    &mockMemberSource{err: errors.New("connection refused")},
			guard:     &mockGuard{},
			blacklist: &mockBlacklistReader{},
		},
		{
			name:      "blacklist read failure",
			source:    &mockMemberSource{members: []models.Member{candidate}},
			guard:     &mockGuard{},
			blacklist: &mockBlacklistReader{err: errors.New("query failed")},
		},
		{
			name:      "guard failure",
			source:    &mockMemberSource{members: []models.Member{candidate}},
			guard:     &mockGuard{err: errors.New("query failed")},
			blacklist: &mockBlacklistReader{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := NewResolver(tt.source, tt.guard, tt.blacklist, 3, logger.NewTestLogger(t))
			_, err := resolver.Resolve(context.Background())
			assert.Error(t, err)
		})
	}
}

