package nlquery

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

// ErrEmptyQuery rejects requests with no query text.
var ErrEmptyQuery = errors.New("nlquery: query cannot be empty")

// ErrNoIntentMatch signals that no template recognized the query. It is a
// designed fallback path, not a processing fault: callers should route the
// question to the document-evidence pipeline or show suggestions.
var ErrNoIntentMatch = errors.New("nlquery: no intent matched the query")

// Request is the inbound payload for both pipelines.
type Request struct {
	Query      string                 `json:"query"`
	Caller     tenancy.TrustedContext `json:"caller_context"`
	MaxResults int                    `json:"max_results,omitempty"`
}

// SuccessResponse is the structured-query success shape.
type SuccessResponse struct {
	Success          bool             `json:"success"`
	Data             []map[string]any `json:"data"`
	RowCount         int              `json:"row_count"`
	QueryExplanation string           `json:"query_explanation"`
	SuggestedQueries []string         `json:"suggested_queries"`
}

// FailureResponse is the shared failure shape for both pipelines.
type FailureResponse struct {
	Success          bool     `json:"success"`
	Error            string   `json:"error"`
	SuggestedQueries []string `json:"suggested_queries"`
	Hint             string   `json:"hint,omitempty"`
}

// QueryAuditor records processed queries; audit failures never fail requests.
type QueryAuditor interface {
	LogQuery(ctx context.Context, event compliance.QueryAuditEvent) error
}

// Service runs the structured pipeline: match intent, extract parameters,
// bind under the caller's tenant scope, execute.
type Service struct {
	executor *Executor
	auditor  QueryAuditor
	metrics  *metrics.QueryMetrics
	logger   *logging.Logger
}

// NewService wires the structured query pipeline.
func NewService(executor *Executor, auditor QueryAuditor, m *metrics.QueryMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{executor: executor, auditor: auditor, metrics: m, logger: logger}
}

// ProcessQuery runs one request through the pipeline. The returned error is
// one of: a validation error, ErrNoIntentMatch, a *BindError, or a
// *ExecutionError; the handler maps each to the documented failure shape.
func (s *Service) ProcessQuery(ctx context.Context, req Request) (*SuccessResponse, error) {
	if strings.TrimSpace(req.Query) == "" {
		s.finish(ctx, req, "", compliance.OutcomeInvalidInput, 0)
		return nil, ErrEmptyQuery
	}
	if err := req.Caller.Validate(); err != nil {
		s.finish(ctx, req, "", compliance.OutcomeInvalidInput, 0)
		return nil, err
	}

	tpl, ok := MatchIntent(req.Query)
	if !ok {
		s.finish(ctx, req, "", compliance.OutcomeNoMatch, 0)
		return nil, ErrNoIntentMatch
	}
	s.metrics.ObserveIntentMatch(tpl.Name)

	params := ExtractParams(req.Query)
	bound, err := Bind(tpl, params, req.Caller)
	if err != nil {
		s.logger.Error("query binding refused",
			"intent", tpl.Name,
			"org_id", req.Caller.OrgID,
			"error", err,
		)
		s.finish(ctx, req, tpl.Name, compliance.OutcomeBindFailed, 0)
		return nil, err
	}

	start := time.Now()
	result, err := s.executor.Execute(ctx, bound, req.MaxResults)
	s.metrics.ObserveExecutorLatency(time.Since(start).Seconds())
	if err != nil {
		s.finish(ctx, req, tpl.Name, compliance.OutcomeExecFailed, 0)
		return nil, err
	}

	s.logger.Info("structured query executed",
		"intent", tpl.Name,
		"org_id", req.Caller.OrgID,
		"row_count", result.RowCount,
	)
	s.finish(ctx, req, tpl.Name, compliance.OutcomeSuccess, result.RowCount)

	return &SuccessResponse{
		Success:          true,
		Data:             result.Rows,
		RowCount:         result.RowCount,
		QueryExplanation: result.Explanation,
		SuggestedQueries: SuggestedQueries(),
	}, nil
}

func (s *Service) finish(ctx context.Context, req Request, intent string, outcome compliance.Outcome, count int) {
	s.metrics.ObserveStructured(string(outcome))
	if s.auditor == nil {
		return
	}
	err := s.auditor.LogQuery(ctx, compliance.QueryAuditEvent{
		OrgID:       req.Caller.OrgID,
		UserID:      req.Caller.UserID,
		Pipeline:    compliance.PipelineStructured,
		Intent:      intent,
		Query:       req.Query,
		Outcome:     outcome,
		ResultCount: count,
	})
	if err != nil {
		s.logger.Warn("failed to record query audit event", "error", err)
	}
}
