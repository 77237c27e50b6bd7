package docsearch

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/surehealth/occuhealth-ai-platform/internal/compliance"
	"github.com/surehealth/occuhealth-ai-platform/internal/observability/metrics"
	"github.com/surehealth/occuhealth-ai-platform/internal/tenancy"
	"github.com/surehealth/occuhealth-ai-platform/pkg/logging"
)

// ErrEmptyQuery rejects requests with no question text.
var ErrEmptyQuery = errors.New("docsearch: query cannot be empty")

const defaultMaxEvidenceDocs = 20

// Example questions shown alongside every evidence-path response.
var medicalSuggestions = []string{
	"Show me workers with vision test results",
	"Find patients with hearing test abnormalities",
	"What are the drug screening results for recent examinations?",
	"Which workers have fitness restrictions?",
	"Show me expired medical certificates",
	"Find workers who need follow-up medical care",
	"What medical conditions were found in recent exams?",
	"Show me compliance status for workers",
	"Find all blood pressure test results",
	"Which workers passed their physical examinations?",
}

// MedicalSuggestions returns a copy of the example question list.
func MedicalSuggestions() []string {
	out := make([]string, len(medicalSuggestions))
	copy(out, medicalSuggestions)
	return out
}

// ChatRequest is the inbound payload for the evidence pipeline.
type ChatRequest struct {
	Query      string                 `json:"query"`
	Caller     tenancy.TrustedContext `json:"caller_context"`
	MaxResults int                    `json:"max_results,omitempty"`
}

// ChatResponse is the evidence-path response. The no-match case uses the
// same shape with an explanatory answer and DocumentCount zero.
type ChatResponse struct {
	Success             bool                 `json:"success"`
	Answer              string               `json:"answer"`
	Reasoning           string               `json:"reasoning"`
	SupportingDocuments []SupportingDocument `json:"supporting_documents"`
	DocumentCount       int                  `json:"document_count"`
	SuggestedQueries    []string             `json:"suggested_queries"`
	MedicalSummary      string               `json:"medical_summary,omitempty"`
	Recommendations     []string             `json:"recommendations,omitempty"`
	Hint                string               `json:"hint,omitempty"`
}

// CandidateLister loads tenant-scoped candidate documents.
type CandidateLister interface {
	ListCandidates(ctx context.Context, caller tenancy.TrustedContext) ([]CandidateDocument, error)
}

// AnswerSynthesizer turns an evidence bundle into a validated answer.
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, question string, evidence EvidenceBundle) (*Answer, error)
}

// QueryAuditor records processed queries; audit failures never fail requests.
type QueryAuditor interface {
	LogQuery(ctx context.Context, event compliance.QueryAuditEvent) error
}

// Service runs the evidence pipeline: load candidates, rank, bundle
// evidence, synthesize.
type Service struct {
	repo            CandidateLister
	synthesizer     AnswerSynthesizer
	cache           *AnswerCache
	auditor         QueryAuditor
	metrics         *metrics.QueryMetrics
	logger          *logging.Logger
	maxEvidenceDocs int
	rawExcerptLimit int
}

// ServiceOptions tunes the evidence pipeline's bounds.
type ServiceOptions struct {
	MaxEvidenceDocs int
	RawExcerptLimit int
}

// NewService wires the evidence pipeline.
func NewService(repo CandidateLister, synthesizer AnswerSynthesizer, cache *AnswerCache,
	auditor QueryAuditor, m *metrics.QueryMetrics, logger *logging.Logger, opts ServiceOptions) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if opts.MaxEvidenceDocs <= 0 {
		opts.MaxEvidenceDocs = defaultMaxEvidenceDocs
	}
	return &Service{
		repo:            repo,
		synthesizer:     synthesizer,
		cache:           cache,
		auditor:         auditor,
		metrics:         m,
		logger:          logger,
		maxEvidenceDocs: opts.MaxEvidenceDocs,
		rawExcerptLimit: opts.RawExcerptLimit,
	}
}

// ProcessChat answers a free-text question from document evidence. Oracle
// failures surface as the typed fallback answer inside a success response;
// only input validation and store failures return errors.
func (s *Service) ProcessChat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		s.finish(ctx, req, compliance.OutcomeInvalidInput, 0)
		return nil, ErrEmptyQuery
	}
	if err := req.Caller.Validate(); err != nil {
		s.finish(ctx, req, compliance.OutcomeInvalidInput, 0)
		return nil, err
	}

	if cached, ok := s.cache.Get(ctx, req.Caller.OrgID, req.Query); ok {
		s.metrics.ObserveCacheLookup(true)
		s.logger.Info("evidence answer served from cache", "org_id", req.Caller.OrgID)
		s.finish(ctx, req, compliance.OutcomeSuccess, cached.DocumentCount)
		return cached, nil
	}
	s.metrics.ObserveCacheLookup(false)

	candidates, err := s.repo.ListCandidates(ctx, req.Caller)
	if err != nil {
		s.finish(ctx, req, compliance.OutcomeExecFailed, 0)
		return nil, err
	}

	terms := ExtractSearchTerms(req.Query)
	ranked := Rank(candidates, req.Query, terms)

	if len(ranked) == 0 {
		// Nothing relevant: answer directly without an oracle call.
		s.logger.Info("no relevant documents for evidence query",
			"org_id", req.Caller.OrgID,
			"candidates", len(candidates),
		)
		s.finish(ctx, req, compliance.OutcomeNoMatch, 0)
		return &ChatResponse{
			Success: true,
			Answer: "I couldn't find any medical documents containing information relevant to your query. " +
				"Please make sure you have uploaded medical documents with extracted data, or try asking about different medical topics.",
			Reasoning:           "No documents matched the search terms in your question.",
			SupportingDocuments: []SupportingDocument{},
			DocumentCount:       0,
			SuggestedQueries:    MedicalSuggestions(),
			Hint:                "Try broader medical terms like 'vision tests', 'drug screening', or 'worker fitness'",
		}, nil
	}

	maxDocs := req.MaxResults
	if maxDocs <= 0 || maxDocs > s.maxEvidenceDocs {
		maxDocs = s.maxEvidenceDocs
	}
	if len(ranked) > maxDocs {
		ranked = ranked[:maxDocs]
	}

	evidence := BuildEvidence(ranked, s.rawExcerptLimit)

	start := time.Now()
	answer, synthErr := s.synthesizer.Synthesize(ctx, req.Query, evidence)
	s.metrics.ObserveOracleLatency(time.Since(start).Seconds())

	outcome := compliance.OutcomeSuccess
	if synthErr != nil {
		outcome = compliance.OutcomeOracleFailed
	}

	resp := &ChatResponse{
		Success:             true,
		Answer:              answer.Answer,
		Reasoning:           answer.Reasoning,
		SupportingDocuments: answer.SupportingDocuments,
		DocumentCount:       len(ranked),
		SuggestedQueries:    MedicalSuggestions(),
		MedicalSummary:      answer.MedicalSummary,
		Recommendations:     answer.Recommendations,
	}

	s.logger.Info("evidence query answered",
		"org_id", req.Caller.OrgID,
		"documents", len(ranked),
		"oracle_ok", synthErr == nil,
	)
	s.finish(ctx, req, outcome, len(ranked))

	if synthErr == nil {
		s.cache.Put(ctx, req.Caller.OrgID, req.Query, resp)
	}
	return resp, nil
}

func (s *Service) finish(ctx context.Context, req ChatRequest, outcome compliance.Outcome, count int) {
	s.metrics.ObserveEvidence(string(outcome))
	if s.auditor == nil {
		return
	}
	err := s.auditor.LogQuery(ctx, compliance.QueryAuditEvent{
		OrgID:       req.Caller.OrgID,
		UserID:      req.Caller.UserID,
		Pipeline:    compliance.PipelineEvidence,
		Query:       req.Query,
		Outcome:     outcome,
		ResultCount: count,
	})
	if err != nil {
		s.logger.Warn("failed to record query audit event", "error", err)
	}
}
