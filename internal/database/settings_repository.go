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

type SettingsRepo struct {
	db *pgxpool.Pool
}

func NewSettingsRepo(db *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{db: db}
}

func (r *SettingsRepo) Get(ctx context.Context, userID uuid.UUID) (*domain.Settings, error) {
	var s domain.Settings
	err := r.db.QueryRow(ctx, `
		SELECT user_id, units, timezone, week_start_day, email_opt_in, updated_at
		FROM settings
		WHERE user_id = $1
	`, userID).Scan(&s.UserID, &s.Units, &s.Timezone, &s.WeekStartDay, &s.EmailOptIn, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSettingsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return &s, nil
}

func (r *SettingsRepo) Update(ctx context.Context, s *domain.Settings) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE settings
		SET units = $1, timezone = $2, week_start_day = $3, email_opt_in = $4, updated_at = NOW()
		WHERE user_id = $5
	`, s.Units, s.Timezone, s.WeekStartDay, s.EmailOptIn, s.UserID)
	if err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSettingsNotFound
	}
	return nil
}
