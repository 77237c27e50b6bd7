package docsearch

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surehealth/occuhealth-ai-platform/internal/tenancy"
)

const (
	repoOrgID    = "7f6c1a7e-9f1f-4c42-8a87-1b2d3c4e5f60"
	repoClientID = "0b1f2d3e-4a5b-6c7d-8e9f-0a1b2c3d4e5f"
)

func repoCaller() tenancy.TrustedContext {
	return tenancy.TrustedContext{
		UserID:       "user-1",
		OrgID:        repoOrgID,
		ClientOrgIDs: []string{repoClientID},
		Role:         "admin",
	}
}

func candidateColumns() []string {
	return []string{
		"id", "file_name", "document_type", "extracted_data",
		"validation_status", "created_at",
		"first_name", "last_name", "id_number", "date_of_birth",
	}
}

func strPtr(s string) *string { return &s }

func TestListCandidates(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	created := time.Date(2026, 4, 2, 8, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows(candidateColumns()).
		AddRow("doc-1", "certificate.pdf", "certificate-fitness",
			[]byte(`{"raw_content":"fit for work","structured_data":{"fitness_status":"fit"},"certificate_info":{},"document_type":"certificate"}`),
			StatusValidated, created,
			strPtr("Thabo"), strPtr("Nkosi"), strPtr("8001015009087"), strPtr("1980-01-01")).
		AddRow("doc-2", "scan.pdf", "examination",
			[]byte(`{"raw_content":"hearing normal"}`),
			StatusPending, created,
			nil, nil, nil, nil)

	mock.ExpectQuery("SELECT d.id, d.file_name").
		WithArgs(repoOrgID, []string{repoClientID}, 100).
		WillReturnRows(rows)

	repo := NewRepository(mock, 0)
	docs, err := repo.ListCandidates(context.Background(), repoCaller())
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "doc-1", docs[0].ID)
	assert.Equal(t, "fit for work", docs[0].Extracted.RawContent)
	require.NotNil(t, docs[0].Patient)
	assert.Equal(t, "Thabo Nkosi", docs[0].Patient.FullName())

	assert.Nil(t, docs[1].Patient)
	assert.Equal(t, "hearing normal", docs[1].Extracted.RawContent)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListCandidatesSkipsMalformedExtraction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows(candidateColumns()).
		AddRow("doc-bad", "scan.pdf", "examination",
			[]byte(`not json`),
			StatusPending, time.Now(),
			nil, nil, nil, nil).
		AddRow("doc-ok", "exam.pdf", "examination",
			[]byte(`{"raw_content":"vision test"}`),
			StatusPending, time.Now(),
			nil, nil, nil, nil)

	mock.ExpectQuery("SELECT d.id, d.file_name").
		WithArgs(repoOrgID, []string{}, 50).
		WillReturnRows(rows)

	caller := repoCaller()
	caller.ClientOrgIDs = nil

	repo := NewRepository(mock, 50)
	docs, err := repo.ListCandidates(context.Background(), caller)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "doc-ok", docs[0].ID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListCandidatesRejectsMissingOrg(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepository(mock, 0)
	_, err = repo.ListCandidates(context.Background(), tenancy.TrustedContext{UserID: "user-1"})
	assert.ErrorIs(t, err, tenancy.ErrMissingOrganization)
	require.NoError(t, mock.ExpectationsWereMet())
}
