package nlquery

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/surehealth/occuhealth-ai-platform/pkg/logging"
)

var executorTracer = otel.Tracer("occuhealth.internal.nlquery.executor")

// ExecutionError carries the store's message for a rejected bound query.
// Execution is read-only and idempotent, so failures are surfaced verbatim
// and never retried.
type ExecutionError struct {
	Message string
}

func (e *ExecutionError) Error() string {
	return "nlquery: execution failed: " + e.Message
}

// Querier is the subset of pgxpool.Pool the executor needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QueryResult is the outcome of one structured query execution.
type QueryResult struct {
	Rows        []map[string]any
	RowCount    int
	Explanation string
}

// defaultMaxResults caps result sets when no limit is configured.
const defaultMaxResults = 100

// Executor submits bound queries through the tenant store's single
// server-side execution primitive, which enforces the result cap.
type Executor struct {
	db         Querier
	maxResults int
	logger     *logging.Logger
}

// NewExecutor creates an executor over the given connection. maxResults is
// the hard per-query result cap; zero or negative selects the default.
func NewExecutor(db Querier, maxResults int, logger *logging.Logger) *Executor {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Executor{db: db, maxResults: maxResults, logger: logger}
}

// Execute runs the bound query and returns rows plus the template
// description as a human-readable explanation. The request's maxResults may
// lower the configured cap but never raise it.
func (e *Executor) Execute(ctx context.Context, bound BoundQuery, maxResults int) (*QueryResult, error) {
	ctx, span := executorTracer.Start(ctx, "nlquery.execute")
	defer span.End()
	span.SetAttributes(attribute.String("occuhealth.intent", bound.Template.Name))

	limit := e.maxResults
	if maxResults > 0 && maxResults < limit {
		limit = maxResults
	}

	var payload []byte
	err := e.db.QueryRow(ctx,
		`SELECT execute_secure_query($1, $2)`,
		bound.SQL, limit,
	).Scan(&payload)
	if err != nil {
		span.RecordError(err)
		e.logger.Error("structured query execution failed",
			"intent", bound.Template.Name,
			"error", err,
		)
		return nil, &ExecutionError{Message: err.Error()}
	}

	var decoded struct {
		Data     []map[string]any `json:"data"`
		RowCount int              `json:"row_count"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		span.RecordError(err)
		return nil, &ExecutionError{Message: fmt.Sprintf("malformed store response: %v", err)}
	}

	if decoded.Data == nil {
		decoded.Data = []map[string]any{}
	}

	return &QueryResult{
		Rows:        decoded.Data,
		RowCount:    decoded.RowCount,
		Explanation: bound.Template.Description,
	}, nil
}
