package docsearch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surehealth/occuhealth-ai-platform/internal/oracle"
)

type stubOracle struct {
	lastReq oracle.Request
	text    string
	err     error
}

func (s *stubOracle) Complete(_ context.Context, req oracle.Request) (oracle.Response, error) {
	s.lastReq = req
	if s.err != nil {
		return oracle.Response{}, s.err
	}
	return oracle.Response{Text: s.text}, nil
}

const validOracleJSON = `{
	"answer": "Two workers have expired certificates.",
	"reasoning": "Both certificates show expiry dates in the past.",
	"supporting_documents": [{
		"document_key": "document_1",
		"filename": "certificate.pdf",
		"patient_name": "Thabo Nkosi",
		"relevant_findings": ["Certificate expired 2026-01-15"],
		"confidence": 9,
		"validation_status": "validated"
	}],
	"medical_summary": "Expired certificates of fitness.",
	"recommendations": ["Schedule renewal examinations"]
}`

func testEvidence() EvidenceBundle {
	return BuildEvidence([]ScoredDocument{{
		CandidateDocument: CandidateDocument{ID: "doc-1", FileName: "certificate.pdf"},
		RelevanceScore:    12,
	}}, 0)
}

func TestSynthesizeSuccess(t *testing.T) {
	client := &stubOracle{text: validOracleJSON}
	s := NewSynthesizer(client, nil)

	answer, err := s.Synthesize(context.Background(), "who has expired certificates?", testEvidence())
	require.NoError(t, err)

	assert.Equal(t, "Two workers have expired certificates.", answer.Answer)
	require.Len(t, answer.SupportingDocuments, 1)
	assert.Equal(t, "document_1", answer.SupportingDocuments[0].DocumentKey)
	assert.Equal(t, float64(9), answer.SupportingDocuments[0].Confidence)

	// The prompt carries the question, the evidence, and the constrained
	// instruction contract.
	assert.Contains(t, client.lastReq.Prompt, "who has expired certificates?")
	assert.Contains(t, client.lastReq.Prompt, `"document_1"`)
	assert.Contains(t, client.lastReq.Prompt, "Base your answer ONLY on the medical evidence provided")
	assert.Equal(t, oracleSystemInstruction, client.lastReq.System)
}

func TestSynthesizeStripsCodeFence(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"json fence", "```json\n" + validOracleJSON + "\n```"},
		{"bare fence", "```\n" + validOracleJSON + "\n```"},
		{"leading whitespace", "\n  ```json\n" + validOracleJSON + "\n```  "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSynthesizer(&stubOracle{text: tt.text}, nil)
			answer, err := s.Synthesize(context.Background(), "question", testEvidence())
			require.NoError(t, err)
			assert.Equal(t, "Two workers have expired certificates.", answer.Answer)
		})
	}
}

func TestSynthesizeFallbacks(t *testing.T) {
	tests := []struct {
		name   string
		client *stubOracle
	}{
		{"oracle error", &stubOracle{err: errors.New("connection refused")}},
		{"not JSON", &stubOracle{text: "I think the answer is probably yes."}},
		{"missing answer field", &stubOracle{text: `{"reasoning": "because"}`}},
		{"truncated JSON", &stubOracle{text: `{"answer": "partial`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSynthesizer(tt.client, nil)
			answer, err := s.Synthesize(context.Background(), "question", testEvidence())

			require.Error(t, err)
			require.NotNil(t, answer, "fallback answer must always be usable")
			assert.Contains(t, answer.Answer, "error while analyzing")
			assert.Empty(t, answer.SupportingDocuments)
			assert.NotNil(t, answer.SupportingDocuments)
		})
	}
}
