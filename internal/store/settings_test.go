package store

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"membership-reminders/internal/common/logger"
)

func expectTemplateQuery(mock sqlmock.Sqlmock, value string) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM settings")).
		WithArgs("reminder_template").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow(value))
}

func TestReminderTemplate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewSettingsStore(db, logger.NewTestLogger(t))
	expectTemplateQuery(mock, `{"subject":"Hola {{memberName}}","content":"Tu plan vence pronto"}`)

	tmpl, err := store.ReminderTemplate(context.Background())
	require.NoError(t, err)
	require.NotNil(t, tmpl)
	assert.Equal(t, "Hola {{memberName}}", tmpl.Subject)
	assert.Equal(t, "Tu plan vence pronto", tmpl.Content)
}

func TestReminderTemplate_AbsentFallsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewSettingsStore(db, logger.NewTestLogger(t))
	mock.ExpectQuery(regexp.QuoteMeta("FROM settings")).
		WithArgs("reminder_template").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	tmpl, err := store.ReminderTemplate(context.Background())
	require.NoError(t, err)
	assert.Nil(t, tmpl)
}

func TestReminderTemplate_InvalidDocumentFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"missing content field", `{"subject":"Hola"}`},
		{"wrong field type", `{"subject":1,"content":"x"}`},
		{"extra field", `{"subject":"a","content":"b","footer":"c"}`},
		{"not json", `subject: hola`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			store := NewSettingsStore(db, logger.NewTestLogger(t))
			expectTemplateQuery(mock, tt.value)

			tmpl, err := store.ReminderTemplate(context.Background())
			require.NoError(t, err)
			assert.Nil(t, tmpl)
		})
	}
}
