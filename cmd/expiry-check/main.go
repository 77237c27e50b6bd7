// Command expiry-check emails each organization a digest of certificates of
// fitness expiring within the configured window. Intended to run on a daily
// schedule.
package main

import (
	"context"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	appconfig "github.com/surehealth/occuhealth-ai-platform/internal/config"
	"github.com/surehealth/occuhealth-ai-platform/internal/notify"
	"github.com/surehealth/occuhealth-ai-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	var sender notify.EmailSender = notify.NewStubEmailSender(logger)
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		sender = sg
	}

	notifier := notify.NewExpiryNotifier(
		notify.NewCertificateStore(pool),
		sender,
		cfg.ExpiryWindowDays,
		logger,
	)

	sent, err := notifier.Run(ctx)
	if err != nil {
		logger.Error("expiry check failed", "error", err)
		os.Exit(1)
	}
	logger.Info("expiry check complete", "digests_sent", sent, "window_days", cfg.ExpiryWindowDays)
}
