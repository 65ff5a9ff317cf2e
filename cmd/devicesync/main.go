// Command devicesync runs a single provider sync pass and exits. It exists for
// running syncs out of band (cron, manual backfill) next to the in-process
// worker the server starts.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/shanebarringer/ultracoach-sub001/internal/config"
	"github.com/shanebarringer/ultracoach-sub001/internal/crypto"
	"github.com/shanebarringer/ultracoach-sub001/internal/database"
	"github.com/shanebarringer/ultracoach-sub001/internal/integration"
	"github.com/shanebarringer/ultracoach-sub001/internal/logging"
)

func main() {
	clock := clockwork.NewRealClock()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)

	if !cfg.IntegrationsEnabled() {
		slog.Error("No fitness-device provider configured, nothing to sync")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	var cryptoSvc crypto.Service = crypto.NoopService{}
	if cfg.TokenEncryptionKey != "" {
		cryptoSvc, err = crypto.NewAesGcmCryptoService(cfg.TokenEncryptionKey)
		if err != nil {
			slog.Error("Failed to create crypto service", "error", err)
			os.Exit(1)
		}
	}

	client := integration.NewHTTPClient(integration.ClientConfig{
		ClientID:     cfg.ProviderClientID,
		ClientSecret: cfg.ProviderClientSecret,
		AuthURL:      cfg.ProviderAuthURL,
		TokenURL:     cfg.ProviderTokenURL,
		APIURL:       cfg.ProviderAPIURL,
		RedirectURI:  cfg.ProviderRedirectURI,
	})

	worker := integration.NewSyncWorker(
		database.NewIntegrationRepo(pool, cryptoSvc),
		database.NewWorkoutRepo(pool),
		database.NewNotificationRepo(pool),
		client,
		clock,
		cfg.SyncInterval,
	)

	if err := worker.RunOnce(context.Background()); err != nil {
		slog.Error("Sync pass failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Sync pass complete")
}
