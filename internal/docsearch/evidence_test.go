package docsearch

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildEvidence(t *testing.T) {
	created := time.Date(2026, 5, 12, 9, 30, 0, 0, time.UTC)
	docs := []ScoredDocument{
		{
			CandidateDocument: CandidateDocument{
				ID:           "doc-1",
				FileName:     "certificate.pdf",
				DocumentType: "certificate-fitness",
				Extracted: ExtractedData{
					RawContent:      "fit for work",
					StructuredData:  map[string]any{"fitness_status": "fit"},
					CertificateInfo: map[string]any{"expiry_date": "2026-11-01"},
				},
				ValidationStatus: StatusValidated,
				CreatedAt:        created,
				Patient: &PatientRef{
					FirstName: "Thabo",
					LastName:  "Nkosi",
					IDNumber:  "8001015009087",
				},
			},
			RelevanceScore: 17,
		},
		{
			CandidateDocument: CandidateDocument{
				ID:               "doc-2",
				FileName:         "exam.pdf",
				ValidationStatus: StatusPending,
				CreatedAt:        created,
			},
			RelevanceScore: 3,
		},
	}

	bundle := BuildEvidence(docs, 0)
	require.Len(t, bundle, 2)

	assert.Equal(t, "document_1", bundle[0].Key)
	assert.Equal(t, "document_2", bundle[1].Key)
	assert.Equal(t, "certificate.pdf", bundle[0].Filename)
	assert.Equal(t, 17, bundle[0].RelevanceScore)

	require.NotNil(t, bundle[0].PatientInfo)
	assert.Equal(t, "Thabo Nkosi", bundle[0].PatientInfo.Name)
	assert.Nil(t, bundle[1].PatientInfo)

	// Absent extraction sections marshal as empty objects, not null.
	assert.NotNil(t, bundle[1].MedicalData.StructuredData)
	assert.NotNil(t, bundle[1].MedicalData.CertificateInfo)
}

func TestBuildEvidenceTruncatesRawContent(t *testing.T) {
	long := strings.Repeat("x", 5000)
	docs := []ScoredDocument{{
		CandidateDocument: CandidateDocument{
			ID:        "doc-1",
			Extracted: ExtractedData{RawContent: long},
		},
	}}

	bundle := BuildEvidence(docs, 0)
	require.Len(t, bundle, 1)
	assert.Len(t, bundle[0].MedicalData.RawContent, defaultRawExcerptLimit)

	bundle = BuildEvidence(docs, 100)
	assert.Len(t, bundle[0].MedicalData.RawContent, 100)
}

// A byte cap landing inside a multi-byte character backs up to the previous
// rune boundary instead of emitting a broken sequence.
func TestBuildEvidenceTruncatesOnRuneBoundary(t *testing.T) {
	// "é" is two bytes, so a 5-byte cap falls mid-rune.
	docs := []ScoredDocument{{
		CandidateDocument: CandidateDocument{
			ID:        "doc-1",
			Extracted: ExtractedData{RawContent: "ééééé"},
		},
	}}

	bundle := BuildEvidence(docs, 5)
	require.Len(t, bundle, 1)
	excerpt := bundle[0].MedicalData.RawContent
	assert.Equal(t, "éé", excerpt)
	assert.True(t, utf8.ValidString(excerpt))
}

func TestEvidenceBundleMarshalPreservesOrder(t *testing.T) {
	// Twelve entries so document_10..document_12 would sort before
	// document_2 under lexicographic map-key ordering.
	docs := make([]ScoredDocument, 12)
	for i := range docs {
		docs[i] = ScoredDocument{
			CandidateDocument: CandidateDocument{ID: "doc"},
			RelevanceScore:    12 - i,
		}
	}

	payload, err := json.Marshal(BuildEvidence(docs, 0))
	require.NoError(t, err)

	text := string(payload)
	for i := 1; i < 12; i++ {
		this := strings.Index(text, `"document_`+strconv.Itoa(i)+`"`)
		next := strings.Index(text, `"document_`+strconv.Itoa(i+1)+`"`)
		require.GreaterOrEqual(t, this, 0)
		require.GreaterOrEqual(t, next, 0)
		assert.Less(t, this, next, "document_%d must precede document_%d", i, i+1)
	}

	// Still a valid JSON object keyed by document_N.
	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Len(t, decoded, 12)
}
