package database

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
)

const workoutColumns = `id, athlete_id, plan_id, title, sport, date, status,
	planned_duration_s, planned_distance_m, actual_duration_s, actual_distance_m,
	avg_heart_rate, notes, external_provider, external_activity_id, created_at, updated_at`

const defaultWorkoutListLimit = 200

type WorkoutRepo struct {
	db *pgxpool.Pool
}

func NewWorkoutRepo(db *pgxpool.Pool) *WorkoutRepo {
	return &WorkoutRepo{db: db}
}

func scanWorkout(row pgx.Row) (*domain.Workout, error) {
	var (
		w                domain.Workout
		plannedDurationS *int64
		actualDurationS  *int64
	)
	err := row.Scan(
		&w.ID, &w.AthleteID, &w.PlanID, &w.Title, &w.Sport, &w.Date, &w.Status,
		&plannedDurationS, &w.PlannedDistance, &actualDurationS, &w.ActualDistance,
		&w.AvgHeartRate, &w.Notes, &w.ExternalProvider, &w.ExternalActivityID,
		&w.CreatedAt, &w.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrWorkoutNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan workout: %w", err)
	}
	w.PlannedDuration = secondsToDuration(plannedDurationS)
	w.ActualDuration = secondsToDuration(actualDurationS)
	return &w, nil
}

func (r *WorkoutRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workout, error) {
	return scanWorkout(r.db.QueryRow(ctx,
		`SELECT `+workoutColumns+` FROM workouts WHERE id = $1`, id))
}

func (r *WorkoutRepo) List(ctx context.Context, filter domain.WorkoutFilter) ([]*domain.Workout, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, cond+"$"+strconv.Itoa(len(args)))
	}

	add("athlete_id = ", filter.AthleteID)
	if filter.PlanID != nil {
		add("plan_id = ", *filter.PlanID)
	}
	if filter.Status != "" {
		add("status = ", filter.Status)
	}
	if !filter.From.IsZero() {
		add("date >= ", filter.From)
	}
	if !filter.To.IsZero() {
		add("date < ", filter.To)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultWorkoutListLimit
	}
	args = append(args, limit)

	query := `SELECT ` + workoutColumns + ` FROM workouts WHERE ` +
		strings.Join(conds, " AND ") +
		` ORDER BY date DESC LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list workouts: %w", err)
	}
	defer rows.Close()

	var workouts []*domain.Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}

func (r *WorkoutRepo) Create(ctx context.Context, w *domain.Workout) (*domain.Workout, error) {
	status := w.Status
	if status == "" {
		status = domain.WorkoutPlanned
	}
	return scanWorkout(r.db.QueryRow(ctx, `
		INSERT INTO workouts (athlete_id, plan_id, title, sport, date, status,
			planned_duration_s, planned_distance_m, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING `+workoutColumns+`
	`, w.AthleteID, w.PlanID, w.Title, w.Sport, w.Date, status,
		durationToSeconds(w.PlannedDuration), w.PlannedDistance, w.Notes))
}

func (r *WorkoutRepo) Update(ctx context.Context, w *domain.Workout) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE workouts
		SET title = $1, sport = $2, date = $3, status = $4,
			planned_duration_s = $5, planned_distance_m = $6,
			actual_duration_s = $7, actual_distance_m = $8,
			avg_heart_rate = $9, notes = $10, updated_at = NOW()
		WHERE id = $11
	`, w.Title, w.Sport, w.Date, w.Status,
		durationToSeconds(w.PlannedDuration), w.PlannedDistance,
		durationToSeconds(w.ActualDuration), w.ActualDistance,
		w.AvgHeartRate, w.Notes, w.ID)
	if err != nil {
		return fmt.Errorf("failed to update workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWorkoutNotFound
	}
	return nil
}

func (r *WorkoutRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM workouts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete workout: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWorkoutNotFound
	}
	return nil
}

func (r *WorkoutRepo) UpsertExternal(ctx context.Context, w *domain.Workout) (*domain.Workout, error) {
	created, err := scanWorkout(r.db.QueryRow(ctx, `
		INSERT INTO workouts (athlete_id, title, sport, date, status,
			actual_duration_s, actual_distance_m, avg_heart_rate, notes,
			external_provider, external_activity_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, 'completed', $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING `+workoutColumns+`
	`, w.AthleteID, w.Title, w.Sport, w.Date,
		durationToSeconds(w.ActualDuration), w.ActualDistance, w.AvgHeartRate, w.Notes,
		w.ExternalProvider, w.ExternalActivityID))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateActivity
		}
		return nil, err
	}
	return created, nil
}

func (r *WorkoutRepo) CountByStatus(ctx context.Context, athleteID uuid.UUID, status domain.WorkoutStatus, from, to time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM workouts
		WHERE athlete_id = $1 AND status = $2 AND date >= $3 AND date < $4
	`, athleteID, status, from, to).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count workouts: %w", err)
	}
	return count, nil
}
