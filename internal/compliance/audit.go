// Package compliance records an immutable audit trail of natural-language
// queries for regulatory review. Audit writes never fail a request; callers
// log and continue.
package compliance

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Pipeline identifies which query pipeline handled a request.
type Pipeline string

const (
	PipelineStructured Pipeline = "structured"
	PipelineEvidence   Pipeline = "evidence"
)

// Outcome classifies how a query request ended.
type Outcome string

const (
	OutcomeSuccess      Outcome = "success"
	OutcomeNoMatch      Outcome = "no_match"
	OutcomeInvalidInput Outcome = "invalid_input"
	OutcomeBindFailed   Outcome = "bind_failed"
	OutcomeExecFailed   Outcome = "execution_failed"
	OutcomeOracleFailed Outcome = "oracle_failed"
)

// QueryAuditEvent is one recorded natural-language query.
type QueryAuditEvent struct {
	ID          string    `json:"id"`
	OrgID       string    `json:"org_id"`
	UserID      string    `json:"user_id,omitempty"`
	Pipeline    Pipeline  `json:"pipeline"`
	Intent      string    `json:"intent,omitempty"`
	Query       string    `json:"query"`
	Outcome     Outcome   `json:"outcome"`
	ResultCount int       `json:"result_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuditStore persists query audit events.
type AuditStore struct {
	db *sql.DB
}

// NewAuditStore creates an audit store over the given database handle.
func NewAuditStore(db *sql.DB) *AuditStore {
	return &AuditStore{db: db}
}

// LogQuery records one query audit event.
func (s *AuditStore) LogQuery(ctx context.Context, event QueryAuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO query_audit_events (id, org_id, user_id, pipeline, intent, query, outcome, result_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.ID, event.OrgID, event.UserID, string(event.Pipeline), event.Intent,
		event.Query, string(event.Outcome), event.ResultCount, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("compliance: failed to log query audit event: %w", err)
	}
	return nil
}

// ListRecent returns the most recent audit events for an organization.
func (s *AuditStore) ListRecent(ctx context.Context, orgID string, limit int) ([]QueryAuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org_id, user_id, pipeline, intent, query, outcome, result_count, created_at
		FROM query_audit_events
		WHERE org_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("compliance: failed to list audit events: %w", err)
	}
	defer rows.Close()

	var out []QueryAuditEvent
	for rows.Next() {
		var e QueryAuditEvent
		var pipeline, outcome string
		if err := rows.Scan(&e.ID, &e.OrgID, &e.UserID, &pipeline, &e.Intent,
			&e.Query, &outcome, &e.ResultCount, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("compliance: failed to scan audit event: %w", err)
		}
		e.Pipeline = Pipeline(pipeline)
		e.Outcome = Outcome(outcome)
		out = append(out, e)
	}
	if out == nil {
		out = []QueryAuditEvent{}
	}
	return out, rows.Err()
}
