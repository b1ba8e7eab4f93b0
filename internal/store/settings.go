// internal/store/settings.go
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	stderrors "membership-reminders/internal/common/errors"
	"membership-reminders/internal/common/logger"
	"membership-reminders/internal/common/validation"
	"membership-reminders/internal/models"
)

const reminderTemplateKey = "reminder_template"

// SettingsStore reads operator-editable settings. The only setting the
// pipeline consumes is the reminder template document.
type SettingsStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewSettingsStore(db *sql.DB, log logger.Logger) *SettingsStore {
	return &SettingsStore{db: db, logger: log}
}

// ReminderTemplate loads the stored template document. An absent or invalid
// document returns nil and the caller falls back to the built-in default.
func (s *SettingsStore) ReminderTemplate(ctx context.Context) (*models.Template, error) {
	const query = `SELECT value FROM settings WHERE key = $1`

	var raw string
	err := s.db.QueryRowContext(ctx, query, reminderTemplateKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, stderrors.NewStoreError(stderrors.ErrCodeQueryExecutionFailed,
			fmt.Sprintf("query reminder template: %v", err))
	}

	if err := validation.ValidateTemplateDocument(raw); err != nil {
		s.logger.Warn("stored reminder template is invalid, using default", map[string]interface{}{
			"error": err,
		})
		return nil, nil
	}

	var tmpl models.Template
	if err := json.Unmarshal([]byte(raw), &tmpl); err != nil {
		s.logger.Warn("stored reminder template is unparseable, using default", map[string]interface{}{
			"error": err,
		})
		return nil, nil
	}
	return &tmpl, nil
}
