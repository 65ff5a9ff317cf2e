package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type PlanStatus string

const (
	PlanDraft    PlanStatus = "draft"
	PlanActive   PlanStatus = "active"
	PlanArchived PlanStatus = "archived"
)

type TrainingPlan struct {
	ID          uuid.UUID
	CoachID     uuid.UUID
	AthleteID   uuid.UUID
	Name        string
	Description string
	StartDate   *time.Time
	EndDate     *time.Time
	Status      PlanStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type TrainingPlanRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*TrainingPlan, error)
	ListByCoach(ctx context.Context, coachID uuid.UUID) ([]*TrainingPlan, error)
	ListByAthlete(ctx context.Context, athleteID uuid.UUID) ([]*TrainingPlan, error)
	Create(ctx context.Context, p *TrainingPlan) (*TrainingPlan, error)
	Update(ctx context.Context, p *TrainingPlan) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status PlanStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
}
