package config

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

type Config struct {
	AppEnv      string `env:"APP_ENV" default:"development"`
	Port        string `env:"PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	SessionSecret string        `env:"SESSION_SECRET"`
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" default:"168h"` // 7 days

	// 64 hex chars (32 bytes) for AES-256-GCM token encryption. Empty means
	// tokens are stored in plaintext (dev/test only).
	TokenEncryptionKey string `env:"TOKEN_ENCRYPTION_KEY"`
	// Key for HMAC-signing OAuth state during the integration connect flow.
	StateSigningKey string `env:"STATE_SIGNING_KEY"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	// Fitness-device provider. All four must be set together; leaving them
	// empty disables the integration routes and the sync worker.
	ProviderName         string `env:"PROVIDER_NAME" default:"strava"`
	ProviderClientID     string `env:"PROVIDER_CLIENT_ID"`
	ProviderClientSecret string `env:"PROVIDER_CLIENT_SECRET"`
	ProviderAuthURL      string `env:"PROVIDER_AUTH_URL"`
	ProviderTokenURL     string `env:"PROVIDER_TOKEN_URL"`
	ProviderAPIURL       string `env:"PROVIDER_API_URL"`
	ProviderRedirectURI  string `env:"PROVIDER_REDIRECT_URI"`

	SyncInterval time.Duration `env:"SYNC_INTERVAL" default:"15m"`

	MaxImportBytes int64 `env:"MAX_IMPORT_BYTES" default:"10485760"` // 10 MiB
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// IntegrationsEnabled reports whether the provider OAuth flow and sync worker
// should run.
func (c *Config) IntegrationsEnabled() bool {
	return c.ProviderClientID != ""
}

func validate(cfg *Config) error {
	required := map[string]string{
		"DATABASE_URL":   cfg.DatabaseURL,
		"REDIS_URL":      cfg.RedisURL,
		"SESSION_SECRET": cfg.SessionSecret,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}

	if cfg.TokenEncryptionKey != "" {
		keyBytes, err := hex.DecodeString(cfg.TokenEncryptionKey)
		if err != nil {
			return fmt.Errorf("TOKEN_ENCRYPTION_KEY must be valid hex: %w", err)
		}
		if len(keyBytes) != 32 {
			return fmt.Errorf("TOKEN_ENCRYPTION_KEY must be exactly 64 hex characters (32 bytes), got %d bytes", len(keyBytes))
		}
	}

	// Provider config: all or nothing.
	if cfg.ProviderClientID != "" || cfg.ProviderClientSecret != "" || cfg.ProviderRedirectURI != "" {
		providerRequired := map[string]string{
			"PROVIDER_CLIENT_ID":     cfg.ProviderClientID,
			"PROVIDER_CLIENT_SECRET": cfg.ProviderClientSecret,
			"PROVIDER_AUTH_URL":      cfg.ProviderAuthURL,
			"PROVIDER_TOKEN_URL":     cfg.ProviderTokenURL,
			"PROVIDER_API_URL":       cfg.ProviderAPIURL,
			"PROVIDER_REDIRECT_URI":  cfg.ProviderRedirectURI,
		}
		for name, value := range providerRequired {
			if value == "" {
				return fmt.Errorf("%s is required when provider integration is configured", name)
			}
		}
		if cfg.StateSigningKey == "" {
			return fmt.Errorf("STATE_SIGNING_KEY is required when provider integration is configured")
		}
		if len(cfg.StateSigningKey) < 16 {
			return fmt.Errorf("STATE_SIGNING_KEY must be at least 16 characters")
		}
	}

	return nil
}
