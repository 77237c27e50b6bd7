package docsearch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/surehealth/occuhealth-ai-platform/internal/oracle"
	"github.com/surehealth/occuhealth-ai-platform/pkg/logging"
)

var synthesizerTracer = otel.Tracer("occuhealth.internal.docsearch.synthesizer")

const oracleSystemInstruction = "You are a medical document analysis expert. " +
	"Provide accurate, evidence-based answers about occupational health records."

const oraclePromptTemplate = `You are a medical document analysis expert specializing in occupational health records. Analyze the provided medical documents and answer the user's question.

IMPORTANT INSTRUCTIONS:
1. Base your answer ONLY on the medical evidence provided
2. If information is missing or unclear, state this explicitly
3. Consider validation status (validated documents are more reliable)
4. Focus on occupational health: fitness for work, test results, medical restrictions
5. Provide specific references to documents and patients when possible

Return your response in JSON format with these keys:
{
  "answer": "Comprehensive answer based on medical evidence",
  "reasoning": "Step-by-step medical reasoning process",
  "supporting_documents": [
    {
      "document_key": "document_1",
      "filename": "actual_filename.pdf",
      "patient_name": "Patient Name",
      "relevant_findings": ["Specific medical findings that support the answer"],
      "confidence": 8,
      "validation_status": "validated"
    }
  ],
  "medical_summary": "Brief summary of key medical findings",
  "recommendations": ["Any recommendations based on the findings"]
}

User Question: %s

Medical Evidence:
%s

Remember: Only reference information that actually appears in the provided evidence.`

// SupportingDocument is one citation in a synthesized answer.
type SupportingDocument struct {
	DocumentKey      string   `json:"document_key"`
	Filename         string   `json:"filename"`
	PatientName      string   `json:"patient_name"`
	RelevantFindings []string `json:"relevant_findings"`
	Confidence       float64  `json:"confidence"`
	ValidationStatus string   `json:"validation_status"`
}

// Answer is the oracle's structured response after validation.
type Answer struct {
	Answer              string               `json:"answer"`
	Reasoning           string               `json:"reasoning"`
	SupportingDocuments []SupportingDocument `json:"supporting_documents"`
	MedicalSummary      string               `json:"medical_summary,omitempty"`
	Recommendations     []string             `json:"recommendations,omitempty"`
}

// Synthesizer submits evidence bundles to the answer-generation oracle and
// validates what comes back. The oracle's output is hostile input: any parse
// failure or network error yields the typed fallback answer, never an error
// reaching the caller's response path.
type Synthesizer struct {
	client oracle.Client
	logger *logging.Logger
}

// NewSynthesizer wires the synthesizer to a completion client.
func NewSynthesizer(client oracle.Client, logger *logging.Logger) *Synthesizer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Synthesizer{client: client, logger: logger}
}

// Synthesize asks the oracle to answer the question from the evidence bundle.
// The returned error is non-nil only to let callers record the failure; the
// Answer is always usable.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, evidence EvidenceBundle) (*Answer, error) {
	ctx, span := synthesizerTracer.Start(ctx, "docsearch.synthesize")
	defer span.End()
	span.SetAttributes(attribute.Int("occuhealth.evidence_docs", len(evidence)))

	evidenceJSON, err := json.MarshalIndent(evidence, "", "  ")
	if err != nil {
		span.RecordError(err)
		return s.fallback(err), err
	}

	resp, err := s.client.Complete(ctx, oracle.Request{
		System:      oracleSystemInstruction,
		Prompt:      fmt.Sprintf(oraclePromptTemplate, question, evidenceJSON),
		MaxTokens:   2500,
		Temperature: 0.2,
	})
	if err != nil {
		span.RecordError(err)
		s.logger.Error("oracle completion failed", "error", err)
		return s.fallback(err), err
	}

	answer, err := parseOracleResponse(resp.Text)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("oracle response rejected", "error", err)
		return s.fallback(err), err
	}
	return answer, nil
}

// parseOracleResponse strips fenced-code wrapping and decodes the fixed JSON
// shape, rejecting responses missing the required fields.
func parseOracleResponse(raw string) (*Answer, error) {
	cleaned := stripCodeFence(strings.TrimSpace(raw))

	var answer Answer
	decoder := json.NewDecoder(strings.NewReader(cleaned))
	if err := decoder.Decode(&answer); err != nil {
		return nil, fmt.Errorf("docsearch: oracle response is not valid JSON: %w", err)
	}
	if answer.Answer == "" {
		return nil, fmt.Errorf("docsearch: oracle response missing answer field")
	}
	if answer.SupportingDocuments == nil {
		answer.SupportingDocuments = []SupportingDocument{}
	}
	return &answer, nil
}

func stripCodeFence(s string) string {
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	} else {
		return s
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func (s *Synthesizer) fallback(cause error) *Answer {
	return &Answer{
		Answer:              "I encountered an error while analyzing the medical documents. Please try rephrasing your question.",
		Reasoning:           fmt.Sprintf("Analysis error: %v", cause),
		SupportingDocuments: []SupportingDocument{},
		MedicalSummary:      "Unable to analyze medical data due to processing error",
		Recommendations:     []string{"Please try rephrasing your question or contact support"},
	}
}
