package docsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/surehealth/occuhealth-ai-platform/internal/tenancy"
)

// candidateFetchLimit caps how many documents one request pulls from the
// store before ranking.
const candidateFetchLimit = 100

// DocumentQuerier is the subset of pgxpool.Pool the repository needs.
type DocumentQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository loads candidate documents under the caller's tenant scope.
type Repository struct {
	db    DocumentQuerier
	limit int
}

// NewRepository creates a document repository. fetchLimit bounds the
// candidate set; zero or negative means the default.
func NewRepository(db DocumentQuerier, fetchLimit int) *Repository {
	if fetchLimit <= 0 {
		fetchLimit = candidateFetchLimit
	}
	return &Repository{db: db, limit: fetchLimit}
}

// ListCandidates returns the newest documents with extracted data that the
// caller's organizations may see. Scoping is parameterized, never built from
// query text: the home organization and accessible client organizations come
// exclusively from the trusted context.
func (r *Repository) ListCandidates(ctx context.Context, caller tenancy.TrustedContext) ([]CandidateDocument, error) {
	if err := caller.Validate(); err != nil {
		return nil, err
	}

	query := `
		SELECT d.id, d.file_name, d.document_type, d.extracted_data,
		       d.validation_status, d.created_at,
		       p.first_name, p.last_name, p.id_number, p.date_of_birth
		FROM documents d
		LEFT JOIN patients p ON p.id = d.patient_id
		WHERE (d.organization_id = $1 OR d.client_organization_id = ANY($2))
		  AND d.extracted_data IS NOT NULL
		ORDER BY d.created_at DESC
		LIMIT $3
	`
	rows, err := r.db.Query(ctx, query, caller.OrgID, caller.AccessibleClientOrgs(), r.limit)
	if err != nil {
		return nil, fmt.Errorf("docsearch: candidate query failed: %w", err)
	}
	defer rows.Close()

	var docs []CandidateDocument
	for rows.Next() {
		var (
			doc         CandidateDocument
			extracted   []byte
			createdAt   time.Time
			firstName   *string
			lastName    *string
			idNumber    *string
			dateOfBirth *string
		)
		if err := rows.Scan(
			&doc.ID,
			&doc.FileName,
			&doc.DocumentType,
			&extracted,
			&doc.ValidationStatus,
			&createdAt,
			&firstName,
			&lastName,
			&idNumber,
			&dateOfBirth,
		); err != nil {
			return nil, fmt.Errorf("docsearch: candidate scan failed: %w", err)
		}
		doc.CreatedAt = createdAt

		if err := json.Unmarshal(extracted, &doc.Extracted); err != nil {
			// Malformed extraction payloads score zero anyway; skip rather
			// than fail the whole request.
			continue
		}

		if firstName != nil || lastName != nil {
			doc.Patient = &PatientRef{
				FirstName:   deref(firstName),
				LastName:    deref(lastName),
				IDNumber:    deref(idNumber),
				DateOfBirth: deref(dateOfBirth),
			}
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("docsearch: candidate iteration failed: %w", err)
	}
	return docs, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
