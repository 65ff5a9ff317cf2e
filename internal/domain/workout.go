package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type WorkoutStatus string

const (
	WorkoutPlanned   WorkoutStatus = "planned"
	WorkoutCompleted WorkoutStatus = "completed"
	WorkoutSkipped   WorkoutStatus = "skipped"
)

// CanTransitionTo reports whether a workout may move from its current status
// to the target. Planned workouts can complete or skip; completed and skipped
// are terminal.
func (s WorkoutStatus) CanTransitionTo(target WorkoutStatus) bool {
	return s == WorkoutPlanned && (target == WorkoutCompleted || target == WorkoutSkipped)
}

type Workout struct {
	ID        uuid.UUID
	AthleteID uuid.UUID
	PlanID    *uuid.UUID // nil for ad-hoc workouts
	Title     string
	Sport     string
	Date      time.Time
	Status    WorkoutStatus

	// Planned targets, set by the coach or the athlete.
	PlannedDuration *time.Duration
	PlannedDistance *float64 // meters

	// Results, meaningful once the workout is completed.
	ActualDuration *time.Duration
	ActualDistance *float64 // meters
	AvgHeartRate   *int

	Notes string

	// External reference for device-synced workouts; (provider, activity id)
	// is unique so re-syncing the same activity is a no-op.
	ExternalProvider   string
	ExternalActivityID string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// WorkoutFilter narrows List queries. Zero values mean "no constraint".
type WorkoutFilter struct {
	AthleteID uuid.UUID
	PlanID    *uuid.UUID
	Status    WorkoutStatus
	From      time.Time
	To        time.Time
	Limit     int
}

type WorkoutRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Workout, error)
	List(ctx context.Context, filter WorkoutFilter) ([]*Workout, error)
	Create(ctx context.Context, w *Workout) (*Workout, error)
	Update(ctx context.Context, w *Workout) error
	Delete(ctx context.Context, id uuid.UUID) error
	// UpsertExternal inserts a device-synced workout, returning
	// ErrDuplicateActivity if the (provider, activity id) pair exists.
	UpsertExternal(ctx context.Context, w *Workout) (*Workout, error)
	CountByStatus(ctx context.Context, athleteID uuid.UUID, status WorkoutStatus, from, to time.Time) (int, error)
}
