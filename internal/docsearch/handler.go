package docsearch

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/surehealth/occuhealth-ai-platform/internal/tenancy"
	"github.com/surehealth/occuhealth-ai-platform/pkg/logging"
)

// Handler wires HTTP requests to the evidence pipeline.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a document-chat handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// failureResponse is the shared failure shape for both pipelines.
type failureResponse struct {
	Success          bool     `json:"success"`
	Error            string   `json:"error"`
	SuggestedQueries []string `json:"suggested_queries"`
	Hint             string   `json:"hint,omitempty"`
}

// Chat handles POST /api/document-chat.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("failed to decode chat request", "error", err)
		h.writeFailure(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	// An authenticated caller identity always wins over the request body.
	if caller, ok := tenancy.CallerFromContext(r.Context()); ok {
		req.Caller = caller
	}

	resp, err := h.service.ProcessChat(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyQuery):
			h.writeFailure(w, http.StatusBadRequest, "Query cannot be empty")
		case errors.Is(err, tenancy.ErrMissingOrganization):
			h.writeFailure(w, http.StatusBadRequest, "Invalid user context - organization ID required")
		default:
			h.logger.Error("evidence pipeline failed", "error", err)
			h.writeFailure(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) writeFailure(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, failureResponse{
		Success:          false,
		Error:            message,
		SuggestedQueries: MedicalSuggestions(),
		Hint:             "Please try rephrasing your question using medical terms",
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", "error", err)
	}
}
