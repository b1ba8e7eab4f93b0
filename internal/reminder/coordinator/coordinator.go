// internal/reminder/coordinator/coordinator.go
package coordinator

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	stderrors "membership-reminders/internal/common/errors"
	"membership-reminders/internal/common/logger"
	"membership-reminders/internal/common/metrics"
	"membership-reminders/internal/models"
	"membership-reminders/internal/reminder/audit"
	"membership-reminders/internal/reminder/dispatch"
	"membership-reminders/internal/reminder/eligibility"
	"membership-reminders/internal/reminder/template"
)

// Dependencies, expressed as the narrow interfaces the coordinator consumes.

type Resolver interface {
	Resolve(ctx context.Context) (*eligibility.Result, error)
}

type Guard interface {
	WasNotifiedToday(ctx context.Context, memberID string) (bool, error)
}

type RateLimiter interface {
	StartBatch()
	Allow(ctx context.Context) (bool, error)
	RecordSend(ctx context.Context) error
	Pace(ctx context.Context) error
	Status(ctx context.Context) (sentToday, maxPerDay, maxPerBatch int, err error)
}

type Dispatcher interface {
	Dispatch(ctx context.Context, msg dispatch.Message) dispatch.Result
}

type TemplateSource interface {
	ReminderTemplate(ctx context.Context) (*models.Template, error)
}

type AttemptLog interface {
	Append(ctx context.Context, attempt models.NotificationAttempt) error
	DayCounts(ctx context.Context, day time.Time) (sent, failed int, err error)
	LastActivity(ctx context.Context) (*time.Time, error)
}

type Blacklist interface {
	RecordFailure(ctx context.Context, member models.Member, deliveryErr error) error
	Count(ctx context.Context) (int, error)
	Unlist(ctx context.Context, memberID string) error
}

type AuditSink interface {
	RecordAttempt(ctx context.Context, doc audit.AttemptDocument)
	RecordRun(ctx context.Context, doc audit.RunDocument)
}

// RunLock extends single-flight across process instances. Optional.
type RunLock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// Observer receives run lifecycle signals (otel span + instruments).
type Observer interface {
	StartRunSpan(ctx context.Context, runID string) (context.Context, trace.Span)
	RecordRun(ctx context.Context, status string)
	RecordRunDuration(ctx context.Context, duration time.Duration, status string)
}

// Details is the per-run breakdown included in every summary.
type Details struct {
	Attempted       int `json:"attempted"`
	Successful      int `json:"successful"`
	Failed          int `json:"failed"`
	AlreadyNotified int `json:"alreadyNotified"`
	TotalExpiring   int `json:"totalExpiring"`
	Pending         int `json:"pending"`
}

// RunSummary is what TriggerRun returns to schedulers and operators.
type RunSummary struct {
	Sent    bool    `json:"sent"`
	Count   int     `json:"count"`
	Message string  `json:"message"`
	Details Details `json:"details"`
}

// Service orchestrates one reminder run end to end. It is constructed once by
// the composition root and shared; the processing flag makes TriggerRun
// single-flight within the process, the optional RunLock across processes.
type Service struct {
	resolver   Resolver
	guard      Guard
	limiter    RateLimiter
	engine     *template.Engine
	dispatcher Dispatcher
	templates  TemplateSource
	attempts   AttemptLog
	blacklist  Blacklist
	auditSink  AuditSink
	monitor    *Monitor
	runLock    RunLock
	observer   Observer
	runTimeout time.Duration
	logger     logger.Logger
	now        func() time.Time

	processing atomic.Bool
}

type Config struct {
	RunTimeout time.Duration
}

func NewService(
	resolver Resolver,
	guard Guard,
	limiter RateLimiter,
	engine *template.Engine,
	dispatcher Dispatcher,
	templates TemplateSource,
	attempts AttemptLog,
	blacklist Blacklist,
	auditSink AuditSink,
	monitor *Monitor,
	runLock RunLock,
	observer Observer,
	cfg Config,
	log logger.Logger,
) *Service {
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 15 * time.Minute
	}
	return &Service{
		resolver:   resolver,
		guard:      guard,
		limiter:    limiter,
		engine:     engine,
		dispatcher: dispatcher,
		templates:  templates,
		attempts:   attempts,
		blacklist:  blacklist,
		auditSink:  auditSink,
		monitor:    monitor,
		runLock:    runLock,
		observer:   observer,
		runTimeout: cfg.RunTimeout,
		logger:     log,
		now:        time.Now,
	}
}

// WithClock pins the service clock for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// TriggerRun executes one full eligibility -> dispatch -> logging pass. A
// second call while a run is in progress returns immediately without touching
// any data.
func (s *Service) TriggerRun(ctx context.Context) RunSummary {
	if !s.processing.CompareAndSwap(false, true) {
		metrics.RunsRejected.Inc()
		return RunSummary{Sent: false, Message: "already processing"}
	}
	defer s.processing.Store(false)

	if s.runLock != nil {
		acquired, err := s.runLock.Acquire(ctx)
		if err != nil {
			s.logger.Error("run lock acquire failed", map[string]interface{}{"error": err})
			return RunSummary{Sent: false, Message: "run lock unavailable: " + err.Error()}
		}
		if !acquired {
			metrics.RunsRejected.Inc()
			return RunSummary{Sent: false, Message: "already processing"}
		}
		defer func() {
			if err := s.runLock.Release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("run lock release failed", map[string]interface{}{"error": err})
			}
		}()
	}

	runCtx, cancel := context.WithTimeout(ctx, s.runTimeout)
	defer cancel()

	metrics.RunsStarted.Inc()
	started := s.now()
	runID := uuid.New().String()
	log := s.logger.WithFields(map[string]interface{}{"runId": runID})

	var span trace.Span
	if s.observer != nil {
		runCtx, span = s.observer.StartRunSpan(runCtx, runID)
	}

	summary, runErr := s.run(runCtx, runID, log)

	status := "completed"
	if runErr != nil {
		status = "failed"
	}
	elapsed := s.now().Sub(started)
	metrics.RunDuration.Observe(elapsed.Seconds())
	metrics.PendingMembers.Set(float64(summary.Details.Pending))
	if s.observer != nil {
		s.observer.RecordRun(runCtx, status)
		s.observer.RecordRunDuration(runCtx, elapsed, status)
	}
	if span != nil {
		if runErr != nil {
			span.RecordError(runErr)
		}
		span.End()
	}

	runDoc := audit.RunDocument{
		RunID:           runID,
		Attempted:       summary.Details.Attempted,
		Successful:      summary.Details.Successful,
		Failed:          summary.Details.Failed,
		AlreadyNotified: summary.Details.AlreadyNotified,
		TotalExpiring:   summary.Details.TotalExpiring,
		Pending:         summary.Details.Pending,
		StartedAt:       started,
		FinishedAt:      s.now(),
	}
	if runErr != nil {
		runDoc.Error = runErr.Error()
	}
	s.auditSink.RecordRun(context.WithoutCancel(runCtx), runDoc)

	if s.monitor != nil {
		s.monitor.CheckAfterRun(context.WithoutCancel(runCtx), summary)
	}

	if count, err := s.blacklist.Count(context.WithoutCancel(runCtx)); err == nil {
		metrics.BlacklistSize.Set(float64(count))
		if s.monitor != nil {
			s.monitor.CheckBlacklistSize(context.WithoutCancel(runCtx), count)
		}
	} else {
		log.Warn("blacklist size check failed", map[string]interface{}{"error": err})
	}

	log.Info("run finished", map[string]interface{}{
		"status":     status,
		"successful": summary.Details.Successful,
		"failed":     summary.Details.Failed,
		"pending":    summary.Details.Pending,
		"duration":   elapsed.String(),
	})
	return summary
}

func (s *Service) run(ctx context.Context, runID string, log logger.Logger) (RunSummary, error) {
	tmpl, err := s.templates.ReminderTemplate(ctx)
	if err != nil {
		log.Error("template load failed, using default", map[string]interface{}{"error": err})
	}
	if tmpl == nil {
		def := template.Default
		tmpl = &def
	}

	result, err := s.resolver.Resolve(ctx)
	if err != nil {
		return RunSummary{Sent: false, Message: "eligibility resolution failed: " + err.Error()}, err
	}

	details := Details{
		TotalExpiring:   result.TotalExpiring,
		AlreadyNotified: result.AlreadyNotified,
	}

	if len(result.Members) == 0 {
		return RunSummary{Sent: true, Count: 0, Message: "no members to notify", Details: details}, nil
	}

	s.limiter.StartBatch()
	var lastStoreErr error

	for i, member := range result.Members {
		allowed, err := s.limiter.Allow(ctx)
		if err != nil {
			lastStoreErr = err
			log.Error("rate limit check failed", map[string]interface{}{"error": err})
			break
		}
		if !allowed {
			details.Pending = len(result.Members) - i
			log.Info("rate cap reached, remaining members pending", map[string]interface{}{
				"pending": details.Pending,
			})
			break
		}

		// Re-check just before acting: another instance may have sent since
		// eligibility was resolved.
		notified, err := s.guard.WasNotifiedToday(ctx, member.ID)
		if err != nil {
			lastStoreErr = err
			log.Error("idempotency check failed", map[string]interface{}{
				"memberId": member.ID,
				"error":    err,
			})
			continue
		}
		if notified {
			details.AlreadyNotified++
			continue
		}

		details.Attempted++
		rendered := s.engine.Render(*tmpl, member)
		dispatchResult := s.dispatcher.Dispatch(ctx, dispatch.Message{
			To:      member.Email,
			Subject: rendered.Subject,
			Body:    rendered.Body,
		})

		if stderrors.IsConfiguration(dispatchResult.Err) {
			// No transport is usable; nothing further can be processed.
			details.Attempted--
			return RunSummary{
				Sent:    false,
				Message: "transport configuration error: " + dispatchResult.Err.Error(),
				Details: details,
			}, dispatchResult.Err
		}

		attempt := models.NotificationAttempt{
			ID:       uuid.New().String(),
			MemberID: member.ID,
			Type:     models.TypeMembershipReminder,
			Subject:  rendered.Subject,
			SentAt:   s.now(),
		}

		if dispatchResult.Success {
			attempt.Status = models.AttemptStatusSent
			attempt.Provider = dispatchResult.Provider
			attempt.MessageID = dispatchResult.MessageID
			details.Successful++
			metrics.RemindersSent.WithLabelValues(dispatchResult.Provider).Inc()

			if err := s.limiter.RecordSend(ctx); err != nil {
				lastStoreErr = err
				log.Error("rate counter update failed", map[string]interface{}{"error": err})
			}
		} else {
			stdErr := stderrors.Normalize(dispatchResult.Err)
			attempt.Status = models.AttemptStatusFailed
			attempt.ErrorMessage = stdErr.Details
			if attempt.ErrorMessage == "" {
				attempt.ErrorMessage = stdErr.Message
			}
			details.Failed++
			metrics.RemindersFailed.WithLabelValues(string(stdErr.Code)).Inc()
			log.Warn("reminder delivery failed", map[string]interface{}{
				"memberId":  member.ID,
				"code":      string(stdErr.Code),
				"retryable": stderrors.IsRetryable(dispatchResult.Err),
			})

			if err := s.blacklist.RecordFailure(ctx, member, dispatchResult.Err); err != nil {
				lastStoreErr = err
				log.Error("blacklist update failed", map[string]interface{}{
					"memberId": member.ID,
					"error":    err,
				})
			}
		}

		if err := s.attempts.Append(ctx, attempt); err != nil {
			lastStoreErr = err
			log.Error("attempt log write failed", map[string]interface{}{
				"memberId": member.ID,
				"error":    err,
			})
		}

		s.auditSink.RecordAttempt(ctx, audit.AttemptDocument{
			RunID:     runID,
			MemberID:  member.ID,
			Email:     member.Email,
			Type:      attempt.Type,
			Status:    attempt.Status,
			Provider:  attempt.Provider,
			MessageID: attempt.MessageID,
			Error:     attempt.ErrorMessage,
			Timestamp: attempt.SentAt,
		})

		if dispatchResult.Success && i < len(result.Members)-1 {
			if err := s.limiter.Pace(ctx); err != nil {
				details.Pending = len(result.Members) - i - 1
				log.Warn("run cancelled during pacing", map[string]interface{}{"error": err})
				break
			}
		}
	}

	summary := RunSummary{
		Sent:    true,
		Count:   details.Successful,
		Message: runMessage(details),
		Details: details,
	}
	if lastStoreErr != nil {
		summary.Message = summary.Message + "; store errors occurred: " + lastStoreErr.Error()
	}
	return summary, lastStoreErr
}

func runMessage(d Details) string {
	switch {
	case d.Attempted == 0 && d.AlreadyNotified > 0:
		return "all eligible members already notified today"
	case d.Failed == 0 && d.Pending == 0:
		return "all reminders delivered"
	case d.Pending > 0:
		return "rate cap reached, remaining members pending"
	default:
		return "run completed with delivery failures"
	}
}

// Unlist removes a member from the blacklist. Administrative surface.
func (s *Service) Unlist(ctx context.Context, memberID string) error {
	return s.blacklist.Unlist(ctx, memberID)
}
