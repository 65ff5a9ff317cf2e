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

const raceColumns = `id, athlete_id, name, sport, date, distance_m, finish_time_s, source, created_at`

type RaceRepo struct {
	db *pgxpool.Pool
}

func NewRaceRepo(db *pgxpool.Pool) *RaceRepo {
	return &RaceRepo{db: db}
}

func scanRace(row pgx.Row) (*domain.Race, error) {
	var (
		race        domain.Race
		finishTimeS *int64
	)
	err := row.Scan(
		&race.ID, &race.AthleteID, &race.Name, &race.Sport, &race.Date,
		&race.DistanceM, &finishTimeS, &race.Source, &race.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRaceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan race: %w", err)
	}
	race.FinishTime = secondsToDuration(finishTimeS)
	return &race, nil
}

func (r *RaceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Race, error) {
	return scanRace(r.db.QueryRow(ctx,
		`SELECT `+raceColumns+` FROM races WHERE id = $1`, id))
}

func (r *RaceRepo) ListByAthlete(ctx context.Context, athleteID uuid.UUID) ([]*domain.Race, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+raceColumns+` FROM races WHERE athlete_id = $1 ORDER BY date`, athleteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list races: %w", err)
	}
	defer rows.Close()

	var races []*domain.Race
	for rows.Next() {
		race, err := scanRace(rows)
		if err != nil {
			return nil, err
		}
		races = append(races, race)
	}
	return races, rows.Err()
}

func (r *RaceRepo) Create(ctx context.Context, race *domain.Race) (*domain.Race, error) {
	return scanRace(r.db.QueryRow(ctx, `
		INSERT INTO races (athlete_id, name, sport, date, distance_m, finish_time_s, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING `+raceColumns+`
	`, race.AthleteID, race.Name, race.Sport, race.Date, race.DistanceM,
		durationToSeconds(race.FinishTime), race.Source))
}

func (r *RaceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM races WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete race: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRaceNotFound
	}
	return nil
}
