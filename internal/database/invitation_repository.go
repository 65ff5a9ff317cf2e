package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
)

const invitationColumns = `id, inviter_id, inviter_role, invitee_email, token, status, expires_at, created_at, updated_at`

type InvitationRepo struct {
	db *pgxpool.Pool
}

func NewInvitationRepo(db *pgxpool.Pool) *InvitationRepo {
	return &InvitationRepo{db: db}
}

func scanInvitation(row pgx.Row) (*domain.Invitation, error) {
	var inv domain.Invitation
	err := row.Scan(
		&inv.ID, &inv.InviterID, &inv.InviterRole, &inv.InviteeEmail, &inv.Token,
		&inv.Status, &inv.ExpiresAt, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan invitation: %w", err)
	}
	return &inv, nil
}

func (r *InvitationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invitation, error) {
	return scanInvitation(r.db.QueryRow(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE id = $1`, id))
}

func (r *InvitationRepo) GetByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	return scanInvitation(r.db.QueryRow(ctx,
		`SELECT `+invitationColumns+` FROM invitations WHERE token = $1`, token))
}

func (r *InvitationRepo) ListByInviter(ctx context.Context, inviterID uuid.UUID) ([]*domain.Invitation, error) {
	return r.list(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE inviter_id = $1 ORDER BY created_at DESC`, inviterID)
}

func (r *InvitationRepo) ListByInviteeEmail(ctx context.Context, email string) ([]*domain.Invitation, error) {
	return r.list(ctx, `SELECT `+invitationColumns+` FROM invitations WHERE invitee_email = $1 ORDER BY created_at DESC`, email)
}

func (r *InvitationRepo) list(ctx context.Context, query string, arg any) ([]*domain.Invitation, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	defer rows.Close()

	var invs []*domain.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
	return invs, rows.Err()
}

func (r *InvitationRepo) Create(ctx context.Context, inv *domain.Invitation) (*domain.Invitation, error) {
	return scanInvitation(r.db.QueryRow(ctx, `
		INSERT INTO invitations (inviter_id, inviter_role, invitee_email, token, status, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'pending', $5, NOW(), NOW())
		RETURNING `+invitationColumns+`
	`, inv.InviterID, inv.InviterRole, inv.InviteeEmail, inv.Token, inv.ExpiresAt))
}

func (r *InvitationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.InvitationStatus) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE invitations SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update invitation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInvitationNotFound
	}
	return nil
}
