package integration

import (
	"context"
	"time"
)

// TokenResult holds the outcome of a provider token exchange or refresh.
type TokenResult struct {
	AccessToken    string
	RefreshToken   string
	ExpiresIn      int // seconds
	ProviderUserID string
}

// Activity is one recorded workout pulled from the provider API.
type Activity struct {
	ID           string
	Name         string
	Sport        string
	StartTime    time.Time
	Duration     time.Duration
	DistanceM    float64
	AvgHeartRate *int
}

// ProviderClient is the fitness-device provider API surface the rest of the
// app depends on. The production implementation is HTTPClient; tests use
// function-field mocks.
type ProviderClient interface {
	AuthorizeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*TokenResult, error)
	RefreshToken(ctx context.Context, refreshToken string) (*TokenResult, error)
	ListActivities(ctx context.Context, accessToken string, since time.Time) ([]Activity, error)
}
