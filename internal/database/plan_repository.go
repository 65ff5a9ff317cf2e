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

const planColumns = `id, coach_id, athlete_id, name, description, start_date, end_date, status, created_at, updated_at`

type TrainingPlanRepo struct {
	db *pgxpool.Pool
}

func NewTrainingPlanRepo(db *pgxpool.Pool) *TrainingPlanRepo {
	return &TrainingPlanRepo{db: db}
}

func scanPlan(row pgx.Row) (*domain.TrainingPlan, error) {
	var p domain.TrainingPlan
	err := row.Scan(
		&p.ID, &p.CoachID, &p.AthleteID, &p.Name, &p.Description,
		&p.StartDate, &p.EndDate, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan training plan: %w", err)
	}
	return &p, nil
}

func (r *TrainingPlanRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TrainingPlan, error) {
	return scanPlan(r.db.QueryRow(ctx,
		`SELECT `+planColumns+` FROM training_plans WHERE id = $1`, id))
}

func (r *TrainingPlanRepo) ListByCoach(ctx context.Context, coachID uuid.UUID) ([]*domain.TrainingPlan, error) {
	return r.list(ctx, `SELECT `+planColumns+` FROM training_plans WHERE coach_id = $1 ORDER BY created_at DESC`, coachID)
}

func (r *TrainingPlanRepo) ListByAthlete(ctx context.Context, athleteID uuid.UUID) ([]*domain.TrainingPlan, error) {
	return r.list(ctx, `SELECT `+planColumns+` FROM training_plans WHERE athlete_id = $1 ORDER BY created_at DESC`, athleteID)
}

func (r *TrainingPlanRepo) list(ctx context.Context, query string, arg any) ([]*domain.TrainingPlan, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list training plans: %w", err)
	}
	defer rows.Close()

	var plans []*domain.TrainingPlan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *TrainingPlanRepo) Create(ctx context.Context, p *domain.TrainingPlan) (*domain.TrainingPlan, error) {
	return scanPlan(r.db.QueryRow(ctx, `
		INSERT INTO training_plans (coach_id, athlete_id, name, description, start_date, end_date, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'draft', NOW(), NOW())
		RETURNING `+planColumns+`
	`, p.CoachID, p.AthleteID, p.Name, p.Description, p.StartDate, p.EndDate))
}

func (r *TrainingPlanRepo) Update(ctx context.Context, p *domain.TrainingPlan) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE training_plans
		SET name = $1, description = $2, start_date = $3, end_date = $4, updated_at = NOW()
		WHERE id = $5
	`, p.Name, p.Description, p.StartDate, p.EndDate, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update training plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPlanNotFound
	}
	return nil
}

func (r *TrainingPlanRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PlanStatus) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE training_plans SET status = $1, updated_at = NOW() WHERE id = $2
	`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update training plan status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPlanNotFound
	}
	return nil
}

func (r *TrainingPlanRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM training_plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete training plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPlanNotFound
	}
	return nil
}
