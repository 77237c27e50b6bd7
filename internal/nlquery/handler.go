package nlquery

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/surehealth/occuhealth-ai-platform/internal/tenancy"
	"github.com/surehealth/occuhealth-ai-platform/pkg/logging"
)

// Handler wires HTTP requests to the structured query service.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a structured query handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Query handles POST /api/query.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode query request", "error", err)
		h.writeFailure(w, http.StatusBadRequest, "Invalid request body", "")
		return
	}

	// An authenticated caller identity always wins over the request body.
	if caller, ok := tenancy.CallerFromContext(r.Context()); ok {
		req.Caller = caller
	}

	resp, err := h.service.ProcessQuery(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var bindErr *BindError
	var execErr *ExecutionError

	switch {
	case errors.Is(err, ErrEmptyQuery):
		h.writeFailure(w, http.StatusBadRequest, "Query cannot be empty", "")
	case errors.Is(err, tenancy.ErrMissingOrganization):
		h.writeFailure(w, http.StatusBadRequest,
			"Invalid user context - organization ID required", "")
	case errors.Is(err, ErrNoIntentMatch):
		h.writeFailure(w, http.StatusBadRequest,
			"I couldn't match your question to a known query",
			"Try rephrasing your query or use one of the suggested examples")
	case errors.As(err, &bindErr):
		h.writeFailure(w, http.StatusInternalServerError,
			"Query could not be safely prepared", "")
	case errors.As(err, &execErr):
		h.writeFailure(w, http.StatusInternalServerError, execErr.Error(), "")
	default:
		h.logger.Error("unexpected query pipeline error", "error", err)
		h.writeFailure(w, http.StatusInternalServerError, "Internal server error", "")
	}
}

func (h *Handler) writeFailure(w http.ResponseWriter, status int, message, hint string) {
	h.writeJSON(w, status, FailureResponse{
		Success:          false,
		Error:            message,
		SuggestedQueries: SuggestedQueries(),
		Hint:             hint,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
