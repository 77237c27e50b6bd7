package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/surehealth/occuhealth-ai-platform/internal/api/router"
	"github.com/surehealth/occuhealth-ai-platform/internal/compliance"
	appconfig "github.com/surehealth/occuhealth-ai-platform/internal/config"
	"github.com/surehealth/occuhealth-ai-platform/internal/docsearch"
	"github.com/surehealth/occuhealth-ai-platform/internal/nlquery"
	"github.com/surehealth/occuhealth-ai-platform/internal/observability/metrics"
	"github.com/surehealth/occuhealth-ai-platform/internal/oracle"
	"github.com/surehealth/occuhealth-ai-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting occuhealth-ai-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	auditDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open audit database handle", "error", err)
		os.Exit(1)
	}
	defer func() { _ = auditDB.Close() }()

	oracleClient, err := buildOracle(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to configure oracle", "error", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient = redis.NewClient(opts)
		defer func() { _ = redisClient.Close() }()
	}

	queryMetrics := metrics.NewQueryMetrics(nil)
	auditStore := compliance.NewAuditStore(auditDB)

	queryService := nlquery.NewService(nlquery.NewExecutor(pool, cfg.MaxQueryResults, logger), auditStore, queryMetrics, logger)
	queryHandler := nlquery.NewHandler(queryService, logger)

	chatService := docsearch.NewService(
		docsearch.NewRepository(pool, cfg.CandidateFetch),
		docsearch.NewSynthesizer(oracleClient, logger),
		docsearch.NewAnswerCache(redisClient, cfg.AnswerCacheTTL, logger),
		auditStore,
		queryMetrics,
		logger,
		docsearch.ServiceOptions{
			MaxEvidenceDocs: cfg.MaxEvidenceDocs,
			RawExcerptLimit: cfg.RawExcerptLimit,
		},
	)
	chatHandler := docsearch.NewHandler(chatService, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		QueryHandler:       queryHandler,
		ChatHandler:        chatHandler,
		MetricsHandler:     promhttp.Handler(),
		APIAuthSecret:      cfg.APITokenHMAC,
		CORSAllowedOrigins: cfg.CORSOrigins,
		RateLimitPerSec:    cfg.RateLimitPerSec,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildOracle wires the completion providers: OpenAI primary, Gemini
// fallback. At least one must be configured.
func buildOracle(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (oracle.Client, error) {
	var primary, secondary oracle.Client

	if cfg.OpenAIAPIKey != "" {
		client, err := oracle.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OracleTimeout)
		if err != nil {
			return nil, err
		}
		primary = client
	}
	if cfg.GeminiAPIKey != "" {
		client, err := oracle.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		if primary == nil {
			primary = client
		} else {
			secondary = client
		}
	}

	switch {
	case primary == nil:
		return nil, errors.New("no completion provider configured: set OPENAI_API_KEY or GEMINI_API_KEY")
	case secondary == nil:
		return primary, nil
	default:
		return oracle.NewFallbackClient(primary, secondary, logger), nil
	}
}
