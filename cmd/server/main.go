package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/shanebarringer/ultracoach-sub001/internal/app"
	"github.com/shanebarringer/ultracoach-sub001/internal/config"
	"github.com/shanebarringer/ultracoach-sub001/internal/crypto"
	"github.com/shanebarringer/ultracoach-sub001/internal/database"
	"github.com/shanebarringer/ultracoach-sub001/internal/integration"
	"github.com/shanebarringer/ultracoach-sub001/internal/logging"
	"github.com/shanebarringer/ultracoach-sub001/internal/redis"
	"github.com/shanebarringer/ultracoach-sub001/internal/server"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupRedis(cfg *config.Config) *redis.Client {
	client, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func setupCrypto(cfg *config.Config) crypto.Service {
	if cfg.TokenEncryptionKey == "" {
		slog.Warn("TOKEN_ENCRYPTION_KEY not set, provider tokens are stored unencrypted")
		return crypto.NoopService{}
	}

	svc, err := crypto.NewAesGcmCryptoService(cfg.TokenEncryptionKey)
	if err != nil {
		slog.Error("Failed to create crypto service", "error", err)
		os.Exit(1)
	}
	return svc
}

func runGracefulShutdown(srv *server.Server, cancelWorkers context.CancelFunc) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		cancelWorkers()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	redisClient := setupRedis(cfg)
	defer func() { _ = redisClient.Close() }()

	cryptoSvc := setupCrypto(cfg)

	integrationRepo := database.NewIntegrationRepo(pool, cryptoSvc)

	var providerClient integration.ProviderClient
	var signer *crypto.StateSigner
	if cfg.IntegrationsEnabled() {
		providerClient = integration.NewHTTPClient(integration.ClientConfig{
			ClientID:     cfg.ProviderClientID,
			ClientSecret: cfg.ProviderClientSecret,
			AuthURL:      cfg.ProviderAuthURL,
			TokenURL:     cfg.ProviderTokenURL,
			APIURL:       cfg.ProviderAPIURL,
			RedirectURI:  cfg.ProviderRedirectURI,
		})
		signer = crypto.NewStateSigner(cfg.StateSigningKey)
	}

	workoutRepo := database.NewWorkoutRepo(pool)
	notificationRepo := database.NewNotificationRepo(pool)

	pubsub := redis.NewPubSub(redisClient)

	appSvc := app.NewService(app.Deps{
		Users:         database.NewUserRepo(pool),
		Settings:      database.NewSettingsRepo(pool),
		Relationships: database.NewRelationshipRepo(pool),
		Invitations:   database.NewInvitationRepo(pool),
		Plans:         database.NewTrainingPlanRepo(pool),
		Workouts:      workoutRepo,
		Conversations: database.NewConversationRepo(pool),
		Messages:      database.NewMessageRepo(pool),
		Races:         database.NewRaceRepo(pool),
		Notifications: notificationRepo,
		Integrations:  integrationRepo,
		Unread:        redis.NewUnreadStore(redisClient),
		Publisher:     pubsub,
		Dashboards:    redis.NewDashboardCache(redisClient),
		Provider:      providerClient,
		Signer:        signer,
		ProviderName:  cfg.ProviderName,
		Clock:         clock,
	})

	srv := server.NewServer(cfg, appSvc, pubsub, pool, redisClient, clock)

	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	if cfg.IntegrationsEnabled() {
		worker := integration.NewSyncWorker(integrationRepo, workoutRepo, notificationRepo, providerClient, clock, cfg.SyncInterval)
		go worker.Run(workerCtx)
	}

	done := runGracefulShutdown(srv, cancelWorkers)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
