// internal/reminder/coordinator/stats.go
package coordinator

import (
	"context"
	"time"
)

// RateLimitStatus reports the consumed and configured caps.
type RateLimitStatus struct {
	SentToday   int `json:"sentToday"`
	MaxPerDay   int `json:"maxPerDay"`
	MaxPerBatch int `json:"maxPerBatch"`
}

// Stats is the operator-facing snapshot behind getStats.
type Stats struct {
	TodaysSent       int             `json:"todaysSent"`
	TodaysFailed     int             `json:"todaysFailed"`
	BlacklistedCount int             `json:"blacklistedCount"`
	EligibleCount    int             `json:"eligibleCount"`
	RateLimit        RateLimitStatus `json:"rateLimit"`
	LastActivity     *time.Time      `json:"lastActivity,omitempty"`
}

// TestResult is the runTest response: a normal run summary framed by
// before/after stat snapshots.
type TestResult struct {
	Summary RunSummary `json:"summary"`
	Before  Stats      `json:"before"`
	After   Stats      `json:"after"`
}

// GetStats assembles the current pipeline snapshot. Partial failures degrade
// individual fields rather than failing the whole call.
func (s *Service) GetStats(ctx context.Context) (Stats, error) {
	var stats Stats
	today := s.now()

	sent, failed, err := s.attempts.DayCounts(ctx, today)
	if err != nil {
		return stats, err
	}
	stats.TodaysSent = sent
	stats.TodaysFailed = failed

	if count, err := s.blacklist.Count(ctx); err == nil {
		stats.BlacklistedCount = count
	} else {
		s.logger.Warn("blacklist count unavailable", map[string]interface{}{"error": err})
	}

	if result, err := s.resolver.Resolve(ctx); err == nil {
		stats.EligibleCount = len(result.Members)
	} else {
		s.logger.Warn("eligible count unavailable", map[string]interface{}{"error": err})
	}

	if sentToday, maxPerDay, maxPerBatch, err := s.limiter.Status(ctx); err == nil {
		stats.RateLimit = RateLimitStatus{SentToday: sentToday, MaxPerDay: maxPerDay, MaxPerBatch: maxPerBatch}
	} else {
		s.logger.Warn("rate limit status unavailable", map[string]interface{}{"error": err})
	}

	if last, err := s.attempts.LastActivity(ctx); err == nil {
		stats.LastActivity = last
	} else {
		s.logger.Warn("last activity unavailable", map[string]interface{}{"error": err})
	}

	return stats, nil
}

// RunTest executes a normal run and reports the stat deltas around it.
func (s *Service) RunTest(ctx context.Context) (TestResult, error) {
	before, err := s.GetStats(ctx)
	if err != nil {
		return TestResult{}, err
	}

	summary := s.TriggerRun(ctx)

	after, err := s.GetStats(ctx)
	if err != nil {
		return TestResult{Summary: summary, Before: before}, err
	}

	return TestResult{Summary: summary, Before: before, After: after}, nil
}
