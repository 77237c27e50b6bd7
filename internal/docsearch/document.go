package docsearch

import (
	"encoding/json"
	"strings"
	"time"
)

// Validation status values as stored by the document pipeline.
const (
	StatusValidated   = "validated"
	StatusUnvalidated = "unvalidated"
	StatusPending     = "pending"
)

// PatientRef identifies the patient a document belongs to. It may be absent
// when a document has not yet been linked to a patient record.
type PatientRef struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	IDNumber    string `json:"id_number"`
	DateOfBirth string `json:"date_of_birth"`
}

// FullName joins the patient's first and last names.
func (p PatientRef) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// ExtractedData is the OCR pipeline's output attached to a document. Any of
// its sections may be partial or empty; ranking treats absence as zero signal.
type ExtractedData struct {
	RawContent      string         `json:"raw_content"`
	StructuredData  map[string]any `json:"structured_data"`
	CertificateInfo map[string]any `json:"certificate_info"`
	DocumentType    string         `json:"document_type"`
}

// CandidateDocument is a document visible to the caller, already restricted
// to the caller's tenant scope by the repository query.
type CandidateDocument struct {
	ID               string
	FileName         string
	DocumentType     string
	Extracted        ExtractedData
	ValidationStatus string
	CreatedAt        time.Time
	Patient          *PatientRef
}

// ScoredDocument pairs a candidate with its computed relevance score.
// Scores are computed fresh per request and never persisted.
type ScoredDocument struct {
	CandidateDocument
	RelevanceScore int
}

// searchableContent returns the three ranked fields lowercased: raw OCR text,
// structured fields serialized to text, and certificate fields serialized to
// text.
func (d CandidateDocument) searchableContent() (raw, structured, certificate string) {
	raw = strings.ToLower(d.Extracted.RawContent)
	structured = lowerJSON(d.Extracted.StructuredData)
	certificate = lowerJSON(d.Extracted.CertificateInfo)
	return raw, structured, certificate
}

func lowerJSON(fields map[string]any) string {
	if len(fields) == 0 {
		return "{}"
	}
	b, err := json.Marshal(fields)
	if err != nil {
		return "{}"
	}
	return strings.ToLower(string(b))
}
