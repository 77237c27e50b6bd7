package compliance

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogQueryFillsDefaults(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO query_audit_events").
		WithArgs(sqlmock.AnyArg(), "org-1", "user-1", "structured", "expiring_certificates",
			"show expired certificates", "success", 3, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewAuditStore(db)
	err = store.LogQuery(context.Background(), QueryAuditEvent{
		OrgID:       "org-1",
		UserID:      "user-1",
		Pipeline:    PipelineStructured,
		Intent:      "expiring_certificates",
		Query:       "show expired certificates",
		Outcome:     OutcomeSuccess,
		ResultCount: 3,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "org_id", "user_id", "pipeline", "intent", "query", "outcome", "result_count", "created_at",
	}).AddRow("evt-1", "org-1", "user-1", "evidence", "", "vision results", "success", 2, created)

	mock.ExpectQuery("SELECT id, org_id, user_id, pipeline").
		WithArgs("org-1", 10).
		WillReturnRows(rows)

	store := NewAuditStore(db)
	events, err := store.ListRecent(context.Background(), "org-1", 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, PipelineEvidence, events[0].Pipeline)
	assert.Equal(t, OutcomeSuccess, events[0].Outcome)
	assert.Equal(t, created, events[0].CreatedAt)
}

func TestListRecentEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, org_id, user_id, pipeline").
		WithArgs("org-1", 50).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "org_id", "user_id", "pipeline", "intent", "query", "outcome", "result_count", "created_at",
		}))

	store := NewAuditStore(db)
	events, err := store.ListRecent(context.Background(), "org-1", 0)
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.NotNil(t, events)
}
