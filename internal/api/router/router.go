package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/surehealth/occuhealth-ai-platform/internal/docsearch"
	httpmiddleware "github.com/surehealth/occuhealth-ai-platform/internal/http/middleware"
	"github.com/surehealth/occuhealth-ai-platform/internal/nlquery"
	"github.com/surehealth/occuhealth-ai-platform/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	QueryHandler       *nlquery.Handler
	ChatHandler        *docsearch.Handler
	MetricsHandler     http.Handler
	APIAuthSecret      string
	CORSAllowedOrigins []string

	// Requests per second and burst for the tenant API group. Zero disables
	// rate limiting.
	RateLimitPerSec float64
	RateLimitBurst  int
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints.
	r.Group(func(public chi.Router) {
		public.Get("/health", handleHealth)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Tenant-scoped query API.
	r.Route("/api", func(api chi.Router) {
		api.Use(httpmiddleware.TenantJWT(cfg.APIAuthSecret))
		if cfg.RateLimitPerSec > 0 {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSec, cfg.RateLimitBurst))
		}
		if cfg.QueryHandler != nil {
			api.Post("/query", cfg.QueryHandler.Query)
		}
		if cfg.ChatHandler != nil {
			api.Post("/document-chat", cfg.ChatHandler.Chat)
		}
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
