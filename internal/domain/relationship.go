package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type RelationshipStatus string

const (
	RelationshipActive RelationshipStatus = "active"
	RelationshipEnded  RelationshipStatus = "ended"
)

type Relationship struct {
	ID        uuid.UUID
	CoachID   uuid.UUID
	AthleteID uuid.UUID
	Status    RelationshipStatus
	StartedAt time.Time
	EndedAt   *time.Time
}

type RelationshipRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Relationship, error)
	GetActiveByPair(ctx context.Context, coachID, athleteID uuid.UUID) (*Relationship, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Relationship, error)
	Create(ctx context.Context, coachID, athleteID uuid.UUID) (*Relationship, error)
	End(ctx context.Context, id uuid.UUID, endedAt time.Time) error
}
