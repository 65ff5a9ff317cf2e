package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// IntegrationAccount is a linked fitness-device provider account. Tokens are
// encrypted at the repository layer, the domain only ever sees plaintext.
type IntegrationAccount struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Provider       string
	ProviderUserID string
	AccessToken    string
	RefreshToken   string
	TokenExpiry    time.Time
	LastSyncAt     time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type IntegrationRepository interface {
	GetByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*IntegrationAccount, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*IntegrationAccount, error)
	// ListDueForSync returns accounts whose last sync is older than cutoff.
	ListDueForSync(ctx context.Context, cutoff time.Time, limit int) ([]*IntegrationAccount, error)
	Upsert(ctx context.Context, acc *IntegrationAccount) (*IntegrationAccount, error)
	UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, tokenExpiry time.Time) error
	UpdateLastSync(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, userID uuid.UUID, provider string) error
}
