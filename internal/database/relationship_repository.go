package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
)

const relationshipColumns = `id, coach_id, athlete_id, status, started_at, ended_at`

type RelationshipRepo struct {
	db *pgxpool.Pool
}

func NewRelationshipRepo(db *pgxpool.Pool) *RelationshipRepo {
	return &RelationshipRepo{db: db}
}

func scanRelationship(row pgx.Row) (*domain.Relationship, error) {
	var rel domain.Relationship
	err := row.Scan(&rel.ID, &rel.CoachID, &rel.AthleteID, &rel.Status, &rel.StartedAt, &rel.EndedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrRelationshipNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan relationship: %w", err)
	}
	return &rel, nil
}

func (r *RelationshipRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Relationship, error) {
	return scanRelationship(r.db.QueryRow(ctx,
		`SELECT `+relationshipColumns+` FROM relationships WHERE id = $1`, id))
}

func (r *RelationshipRepo) GetActiveByPair(ctx context.Context, coachID, athleteID uuid.UUID) (*domain.Relationship, error) {
	return scanRelationship(r.db.QueryRow(ctx, `
		SELECT `+relationshipColumns+`
		FROM relationships
		WHERE coach_id = $1 AND athlete_id = $2 AND status = 'active'
	`, coachID, athleteID))
}

func (r *RelationshipRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Relationship, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+relationshipColumns+`
		FROM relationships
		WHERE coach_id = $1 OR athlete_id = $1
		ORDER BY started_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}
	defer rows.Close()

	var rels []*domain.Relationship
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}

func (r *RelationshipRepo) Create(ctx context.Context, coachID, athleteID uuid.UUID) (*domain.Relationship, error) {
	rel, err := scanRelationship(r.db.QueryRow(ctx, `
		INSERT INTO relationships (coach_id, athlete_id, status, started_at)
		VALUES ($1, $2, 'active', NOW())
		RETURNING `+relationshipColumns+`
	`, coachID, athleteID))
	if err != nil {
		// The partial unique index rejects a second active pair.
		if isUniqueViolation(err) {
			return nil, domain.ErrRelationshipExists
		}
		return nil, err
	}
	return rel, nil
}

func (r *RelationshipRepo) End(ctx context.Context, id uuid.UUID, endedAt time.Time) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE relationships
		SET status = 'ended', ended_at = $1
		WHERE id = $2 AND status = 'active'
	`, endedAt, id)
	if err != nil {
		return fmt.Errorf("failed to end relationship: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRelationshipNotFound
	}
	return nil
}
