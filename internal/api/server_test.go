package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membership-reminders/internal/common/logger"
	"membership-reminders/internal/reminder/coordinator"
)

type mockService struct {
	summary    coordinator.RunSummary
	stats      coordinator.Stats
	statsErr   error
	testResult coordinator.TestResult
	testErr    error
	unlistErr  error
	unlisted   []string
}

func (m *mockService) TriggerRun(_ context.Context) coordinator.RunSummary { return m.summary }

func (m *mockService) GetStats(_ context.Context) (coordinator.Stats, error) {
	return m.stats, m.statsErr
}

func (m *mockService) RunTest(_ context.Context) (coordinator.TestResult, error) {
	return m.testResult, m.testErr
}

func (m *mockService) Unlist(_ context.Context, memberID string) error {
	if m.unlistErr != nil {
		return m.unlistErr
	}
	m.unlisted = append(m.unlisted, memberID)
	return nil
}

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

func newTestServer(t *testing.T, service *mockService, db Pinger) http.Handler {
	t.Helper()
	return NewServer(":0", service, db, logger.NewTestLogger(t)).Handler()
}

func TestHandleTriggerRun(t *testing.T) {
	tests := []struct {
		name       string
		summary    coordinator.RunSummary
		wantStatus int
	}{
		{
			name:       "successful run",
			summary:    coordinator.RunSummary{Sent: true, Count: 3, Message: "all reminders delivered"},
			wantStatus: http.StatusOK,
		},
		{
			name:       "concurrent run rejected",
			summary:    coordinator.RunSummary{Sent: false, Message: "already processing"},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "failed run still returns the summary",
			summary:    coordinator.RunSummary{Sent: false, Message: "eligibility resolution failed: timeout"},
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := newTestServer(t, &mockService{summary: tt.summary}, &mockPinger{})

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reminders/run", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)

			var got coordinator.RunSummary
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			assert.Equal(t, tt.summary.Message, got.Message)
		})
	}
}

func TestHandleTriggerRun_MethodNotAllowed(t *testing.T) {
	handler := newTestServer(t, &mockService{}, &mockPinger{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reminders/run", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleStats(t *testing.T) {
	service := &mockService{stats: coordinator.Stats{TodaysSent: 7, BlacklistedCount: 2}}
	handler := newTestServer(t, service, &mockPinger{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reminders/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got coordinator.Stats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, 7, got.TodaysSent)
	assert.Equal(t, 2, got.BlacklistedCount)
}

func TestHandleStats_Failure(t *testing.T) {
	service := &mockService{statsErr: errors.New("store unreachable")}
	handler := newTestServer(t, service, &mockPinger{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/reminders/stats", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleRunTest(t *testing.T) {
	service := &mockService{testResult: coordinator.TestResult{
		Summary: coordinator.RunSummary{Sent: true, Count: 1},
		After:   coordinator.Stats{TodaysSent: 1},
	}}
	handler := newTestServer(t, service, &mockPinger{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reminders/test", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got coordinator.TestResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, 1, got.Summary.Count)
	assert.Equal(t, 1, got.After.TodaysSent)
}

func TestHandleUnlist(t *testing.T) {
	service := &mockService{}
	handler := newTestServer(t, service, &mockPinger{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reminders/blacklist/m42/unlist", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"m42"}, service.unlisted)
}

func TestHandleUnlist_Failure(t *testing.T) {
	service := &mockService{unlistErr: errors.New("delete failed")}
	handler := newTestServer(t, service, &mockPinger{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reminders/blacklist/m42/unlist", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHandleHealthz(t *testing.T) {
	t.Run("ready", func(t *testing.T) {
		handler := newTestServer(t, &mockService{}, &mockPinger{})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("database down", func(t *testing.T) {
		handler := newTestServer(t, &mockService{}, &mockPinger{err: errors.New("connection refused")})

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestMetricsEndpoint(t *testing.T) {
	handler := newTestServer(t, &mockService{}, &mockPinger{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
