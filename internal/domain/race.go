package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type RaceSource string

const (
	RaceSourceManual RaceSource = "manual"
	RaceSourceGPX    RaceSource = "gpx"
	RaceSourceCSV    RaceSource = "csv"
)

type Race struct {
	ID         uuid.UUID
	AthleteID  uuid.UUID
	Name       string
	Sport      string
	Date       time.Time
	DistanceM  float64
	FinishTime *time.Duration
	Source     RaceSource
	CreatedAt  time.Time
}

type RaceRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Race, error)
	ListByAthlete(ctx context.Context, athleteID uuid.UUID) ([]*Race, error)
	Create(ctx context.Context, r *Race) (*Race, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
