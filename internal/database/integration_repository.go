package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shanebarringer/ultracoach-sub001/internal/crypto"
	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
)

const integrationColumns = `id, user_id, provider, provider_user_id, access_token, refresh_token, token_expiry, last_sync_at, created_at, updated_at`

// IntegrationRepo stores linked provider accounts. Access and refresh tokens
// are encrypted at this boundary; the rest of the app only sees plaintext.
type IntegrationRepo struct {
	db     *pgxpool.Pool
	crypto crypto.Service
}

func NewIntegrationRepo(db *pgxpool.Pool, cryptoSvc crypto.Service) *IntegrationRepo {
	return &IntegrationRepo{db: db, crypto: cryptoSvc}
}

func (r *IntegrationRepo) scanAccount(row pgx.Row) (*domain.IntegrationAccount, error) {
	var acc domain.IntegrationAccount
	err := row.Scan(
		&acc.ID, &acc.UserID, &acc.Provider, &acc.ProviderUserID,
		&acc.AccessToken, &acc.RefreshToken, &acc.TokenExpiry,
		&acc.LastSyncAt, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrIntegrationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan integration account: %w", err)
	}
	if err := r.decryptTokens(&acc); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *IntegrationRepo) decryptTokens(acc *domain.IntegrationAccount) error {
	var err error
	acc.AccessToken, err = r.crypto.Decrypt(acc.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to decrypt access token: %w", err)
	}
	acc.RefreshToken, err = r.crypto.Decrypt(acc.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to decrypt refresh token: %w", err)
	}
	return nil
}

func (r *IntegrationRepo) encryptTokens(accessToken, refreshToken string) (string, string, error) {
	encAccess, err := r.crypto.Encrypt(accessToken)
	if err != nil {
		return "", "", fmt.Errorf("failed to encrypt access token: %w", err)
	}
	encRefresh, err := r.crypto.Encrypt(refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("failed to encrypt refresh token: %w", err)
	}
	return encAccess, encRefresh, nil
}

func (r *IntegrationRepo) GetByUserAndProvider(ctx context.Context, userID uuid.UUID, provider string) (*domain.IntegrationAccount, error) {
	return r.scanAccount(r.db.QueryRow(ctx,
		`SELECT `+integrationColumns+` FROM integration_accounts WHERE user_id = $1 AND provider = $2`,
		userID, provider))
}

func (r *IntegrationRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.IntegrationAccount, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+integrationColumns+` FROM integration_accounts WHERE user_id = $1 ORDER BY provider`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list integration accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.IntegrationAccount
	for rows.Next() {
		acc, err := r.scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

func (r *IntegrationRepo) ListDueForSync(ctx context.Context, cutoff time.Time, limit int) ([]*domain.IntegrationAccount, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+integrationColumns+`
		FROM integration_accounts
		WHERE last_sync_at < $1
		ORDER BY last_sync_at
		LIMIT $2
	`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts due for sync: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.IntegrationAccount
	for rows.Next() {
		acc, err := r.scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, rows.Err()
}

func (r *IntegrationRepo) Upsert(ctx context.Context, acc *domain.IntegrationAccount) (*domain.IntegrationAccount, error) {
	encAccess, encRefresh, err := r.encryptTokens(acc.AccessToken, acc.RefreshToken)
	if err != nil {
		return nil, err
	}

	return r.scanAccount(r.db.QueryRow(ctx, `
		INSERT INTO integration_accounts (user_id, provider, provider_user_id, access_token, refresh_token, token_expiry, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (user_id, provider) DO UPDATE SET
			provider_user_id = EXCLUDED.provider_user_id,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expiry = EXCLUDED.token_expiry,
			updated_at = NOW()
		RETURNING `+integrationColumns+`
	`, acc.UserID, acc.Provider, acc.ProviderUserID, encAccess, encRefresh, acc.TokenExpiry))
}

func (r *IntegrationRepo) UpdateTokens(ctx context.Context, id uuid.UUID, accessToken, refreshToken string, tokenExpiry time.Time) error {
	encAccess, encRefresh, err := r.encryptTokens(accessToken, refreshToken)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE integration_accounts
		SET access_token = $1, refresh_token = $2, token_expiry = $3, updated_at = NOW()
		WHERE id = $4
	`, encAccess, encRefresh, tokenExpiry, id)
	if err != nil {
		return fmt.Errorf("failed to update integration tokens: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIntegrationNotFound
	}
	return nil
}

func (r *IntegrationRepo) UpdateLastSync(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE integration_accounts SET last_sync_at = $1, updated_at = NOW() WHERE id = $2
	`, at, id)
	if err != nil {
		return fmt.Errorf("failed to update last sync: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIntegrationNotFound
	}
	return nil
}

func (r *IntegrationRepo) Delete(ctx context.Context, userID uuid.UUID, provider string) error {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM integration_accounts WHERE user_id = $1 AND provider = $2`, userID, provider)
	if err != nil {
		return fmt.Errorf("failed to delete integration account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrIntegrationNotFound
	}
	return nil
}
