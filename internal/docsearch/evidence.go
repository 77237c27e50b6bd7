package docsearch

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
	"unicode/utf8"
)

// defaultRawExcerptLimit caps how much raw OCR text a single evidence entry
// carries to the oracle.
const defaultRawExcerptLimit = 2000

type evidencePatient struct {
	Name        string `json:"name"`
	IDNumber    string `json:"id_number"`
	DateOfBirth string `json:"date_of_birth"`
}

type evidenceMedicalData struct {
	StructuredData  map[string]any `json:"structured_data"`
	RawContent      string         `json:"raw_content"`
	CertificateInfo map[string]any `json:"certificate_info"`
}

// EvidenceEntry is the trimmed projection of one scored document handed to
// the oracle.
type EvidenceEntry struct {
	Key              string              `json:"-"`
	Filename         string              `json:"filename"`
	DocumentType     string              `json:"document_type"`
	PatientInfo      *evidencePatient    `json:"patient_info"`
	MedicalData      evidenceMedicalData `json:"medical_data"`
	ValidationStatus string              `json:"validation_status"`
	CreatedDate      time.Time           `json:"created_date"`
	RelevanceScore   int                 `json:"relevance_score"`
	DocumentID       string              `json:"document_id"`
}

// EvidenceBundle is an ordered document_1, document_2, ... mapping. A plain
// map would lose the ranking order when marshaled (Go sorts map keys, so
// document_10 would precede document_2), hence the slice with a custom
// marshaler.
type EvidenceBundle []EvidenceEntry

// MarshalJSON emits the bundle as a JSON object whose keys appear in ranking
// order.
func (b EvidenceBundle) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, entry := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(entry.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(entry)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// BuildEvidence packages scored documents into the bundle submitted to the
// oracle. Raw OCR text is truncated to rawExcerptLimit bytes per document;
// zero or negative means the default cap.
func BuildEvidence(docs []ScoredDocument, rawExcerptLimit int) EvidenceBundle {
	if rawExcerptLimit <= 0 {
		rawExcerptLimit = defaultRawExcerptLimit
	}

	bundle := make(EvidenceBundle, 0, len(docs))
	for i, doc := range docs {
		entry := EvidenceEntry{
			Key:          documentKey(i + 1),
			Filename:     doc.FileName,
			DocumentType: doc.DocumentType,
			MedicalData: evidenceMedicalData{
				StructuredData:  orEmptyMap(doc.Extracted.StructuredData),
				RawContent:      truncate(doc.Extracted.RawContent, rawExcerptLimit),
				CertificateInfo: orEmptyMap(doc.Extracted.CertificateInfo),
			},
			ValidationStatus: doc.ValidationStatus,
			CreatedDate:      doc.CreatedAt,
			RelevanceScore:   doc.RelevanceScore,
			DocumentID:       doc.ID,
		}
		if doc.Patient != nil {
			entry.PatientInfo = &evidencePatient{
				Name:        doc.Patient.FullName(),
				IDNumber:    doc.Patient.IDNumber,
				DateOfBirth: doc.Patient.DateOfBirth,
			}
		}
		bundle = append(bundle, entry)
	}
	return bundle
}

func documentKey(n int) string {
	return "document_" + strconv.Itoa(n)
}

// truncate cuts s to at most limit bytes, backing up to a rune boundary so
// OCR text with multi-byte characters is never split mid-sequence.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func orEmptyMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
