package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
)

const oauthStateTTL = 10 * time.Minute

// IntegrationStatus is the sanitized view of a linked provider account.
// Tokens never leave the service layer.
type IntegrationStatus struct {
	Provider    string    `json:"provider"`
	ConnectedAt time.Time `json:"connected_at"`
	LastSyncAt  time.Time `json:"last_sync_at"`
}

// ListIntegrations returns the actor's linked provider accounts without
// token material.
func (s *Service) ListIntegrations(ctx context.Context, actor *domain.User) ([]IntegrationStatus, error) {
	accounts, err := s.integrations.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	statuses := make([]IntegrationStatus, 0, len(accounts))
	for _, acc := range accounts {
		statuses = append(statuses, IntegrationStatus{
			Provider:    acc.Provider,
			ConnectedAt: acc.CreatedAt,
			LastSyncAt:  acc.LastSyncAt,
		})
	}
	return statuses, nil
}

// IntegrationConnectURL builds the provider authorize URL with an HMAC-signed
// state binding the flow to the actor.
func (s *Service) IntegrationConnectURL(actor *domain.User, provider string) (string, error) {
	if s.provider == nil {
		return "", fmt.Errorf("no fitness-device provider configured")
	}
	if provider != s.providerName {
		return "", domain.ErrIntegrationNotFound
	}

	state := s.signer.Sign(actor.ID.String(), s.clock.Now().Add(oauthStateTTL))
	return s.provider.AuthorizeURL(state), nil
}

// CompleteIntegrationCallback verifies the signed state, exchanges the code,
// and stores the encrypted tokens. Returns the user the account was linked to.
func (s *Service) CompleteIntegrationCallback(ctx context.Context, state, code string) (*domain.User, error) {
	if s.provider == nil {
		return nil, fmt.Errorf("no fitness-device provider configured")
	}

	payload, err := s.signer.Verify(state, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("invalid oauth state: %w", err)
	}
	userID, err := uuid.Parse(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth state payload: %w", err)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	token, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	account := &domain.IntegrationAccount{
		UserID:         user.ID,
		Provider:       s.providerName,
		ProviderUserID: token.ProviderUserID,
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
		TokenExpiry:    s.clock.Now().Add(time.Duration(token.ExpiresIn) * time.Second),
	}
	if _, err := s.integrations.Upsert(ctx, account); err != nil {
		return nil, err
	}
	return user, nil
}

// DisconnectIntegration unlinks a provider account.
func (s *Service) DisconnectIntegration(ctx context.Context, actor *domain.User, provider string) error {
	return s.integrations.Delete(ctx, actor.ID, provider)
}

// ListNotifications returns the actor's notifications.
func (s *Service) ListNotifications(ctx context.Context, actor *domain.User, unreadOnly bool, limit int) ([]*domain.Notification, error) {
	return s.notifications.ListByUser(ctx, actor.ID, unreadOnly, limit)
}

// MarkNotificationRead marks one notification of the actor read.
func (s *Service) MarkNotificationRead(ctx context.Context, actor *domain.User, id uuid.UUID) error {
	return s.notifications.MarkRead(ctx, id, actor.ID)
}

// MarkAllNotificationsRead marks every notification of the actor read.
func (s *Service) MarkAllNotificationsRead(ctx context.Context, actor *domain.User) error {
	return s.notifications.MarkAllRead(ctx, actor.ID)
}
