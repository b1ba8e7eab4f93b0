// internal/reminder/audit/sink.go
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"membership-reminders/internal/common/logger"
)

// Indexer is the slice of the Elasticsearch client the sink uses.
type Indexer interface {
	Index(ctx context.Context, index, docID string, body io.Reader) error
}

// AttemptDocument describes one delivery outcome for operator visibility.
type AttemptDocument struct {
	RunID     string    `json:"runId"`
	MemberID  string    `json:"memberId"`
	Email     string    `json:"email"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Provider  string    `json:"provider,omitempty"`
	MessageID string    `json:"messageId,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// RunDocument describes one full run.
type RunDocument struct {
	RunID           string    `json:"runId"`
	Attempted       int       `json:"attempted"`
	Successful      int       `json:"successful"`
	Failed          int       `json:"failed"`
	AlreadyNotified int       `json:"alreadyNotified"`
	TotalExpiring   int       `json:"totalExpiring"`
	Pending         int       `json:"pending"`
	Error           string    `json:"error,omitempty"`
	StartedAt       time.Time `json:"startedAt"`
	FinishedAt      time.Time `json:"finishedAt"`
}

// Sink records run and attempt outcomes to Elasticsearch. Indexing failures
// are logged and swallowed: audit data is for operators, never for pipeline
// decisions. A nil indexer degrades to log-only.
type Sink struct {
	es     Indexer
	logger logger.Logger
	now    func() time.Time
}

func NewSink(es Indexer, log logger.Logger) *Sink {
	return &Sink{es: es, logger: log, now: time.Now}
}

// RecordAttempt indexes one attempt outcome into the day's audit index.
func (s *Sink) RecordAttempt(ctx context.Context, doc AttemptDocument) {
	s.index(ctx, fmt.Sprintf("%s-%s", doc.RunID, doc.MemberID), doc, map[string]interface{}{
		"runId":    doc.RunID,
		"memberId": doc.MemberID,
		"status":   doc.Status,
	})
}

// RecordRun indexes the run summary.
func (s *Sink) RecordRun(ctx context.Context, doc RunDocument) {
	s.index(ctx, doc.RunID, doc, map[string]interface{}{
		"runId":      doc.RunID,
		"successful": doc.Successful,
		"failed":     doc.Failed,
	})
}

func (s *Sink) index(ctx context.Context, docID string, doc interface{}, fields map[string]interface{}) {
	if s.es == nil {
		s.logger.Debug("audit sink disabled, skipping document", fields)
		return
	}

	body, err := json.Marshal(doc)
	if err != nil {
		s.logger.Error("failed to marshal audit document", map[string]interface{}{"error": err})
		return
	}

	index := "reminder-audit-" + s.now().UTC().Format("2006.01.02")
	if err := s.es.Index(ctx, index, docID, bytes.NewReader(body)); err != nil {
		s.logger.Error("failed to index audit document", map[string]interface{}{
			"index": index,
			"docId": docID,
			"error": err,
		})
	}
}
