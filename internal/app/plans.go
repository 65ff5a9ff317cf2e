package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
)

// ListPlans returns the actor's training plans: owned ones for coaches,
// assigned ones for athletes.
func (s *Service) ListPlans(ctx context.Context, actor *domain.User) ([]*domain.TrainingPlan, error) {
	if actor.Role == domain.RoleCoach {
		return s.plans.ListByCoach(ctx, actor.ID)
	}
	return s.plans.ListByAthlete(ctx, actor.ID)
}

// GetPlan returns one plan visible to the actor.
func (s *Service) GetPlan(ctx context.Context, actor *domain.User, id uuid.UUID) (*domain.TrainingPlan, error) {
	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan.CoachID != actor.ID && plan.AthleteID != actor.ID {
		return nil, domain.ErrPlanNotFound
	}
	return plan, nil
}

// CreatePlan creates a draft plan. Only coaches create plans, and only for
// athletes they actively coach.
func (s *Service) CreatePlan(ctx context.Context, actor *domain.User, plan *domain.TrainingPlan) (*domain.TrainingPlan, error) {
	if actor.Role != domain.RoleCoach {
		return nil, fmt.Errorf("%w: only coaches create training plans", domain.ErrInvalidInput)
	}
	if plan.Name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if !s.canCoach(ctx, actor.ID, plan.AthleteID) {
		return nil, domain.ErrRelationshipNotFound
	}
	if plan.StartDate != nil && plan.EndDate != nil && plan.EndDate.Before(*plan.StartDate) {
		return nil, fmt.Errorf("%w: end date precedes start date", domain.ErrInvalidInput)
	}

	plan.CoachID = actor.ID
	plan.Status = domain.PlanDraft
	return s.plans.Create(ctx, plan)
}

// UpdatePlan edits a plan the actor owns.
func (s *Service) UpdatePlan(ctx context.Context, actor *domain.User, plan *domain.TrainingPlan) (*domain.TrainingPlan, error) {
	existing, err := s.ownedPlan(ctx, actor, plan.ID)
	if err != nil {
		return nil, err
	}

	existing.Name = plan.Name
	existing.Description = plan.Description
	existing.StartDate = plan.StartDate
	existing.EndDate = plan.EndDate

	if err := s.plans.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// DeletePlan removes a plan the actor owns. Workouts keep existing but lose
// their plan reference (ON DELETE SET NULL).
func (s *Service) DeletePlan(ctx context.Context, actor *domain.User, id uuid.UUID) error {
	plan, err := s.ownedPlan(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.plans.Delete(ctx, plan.ID); err != nil {
		return err
	}
	s.invalidateDashboards(ctx, plan.AthleteID)
	return nil
}

// ActivatePlan publishes a draft plan to its athlete.
func (s *Service) ActivatePlan(ctx context.Context, actor *domain.User, id uuid.UUID) (*domain.TrainingPlan, error) {
	plan, err := s.ownedPlan(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if plan.Status != domain.PlanDraft {
		return nil, fmt.Errorf("%w: only draft plans can be activated", domain.ErrInvalidTransition)
	}

	if err := s.plans.UpdateStatus(ctx, plan.ID, domain.PlanActive); err != nil {
		return nil, err
	}
	plan.Status = domain.PlanActive

	if _, err := s.notifications.Create(ctx, plan.AthleteID, domain.NotificationPlanAssigned, map[string]any{
		"plan_id": plan.ID.String(),
		"name":    plan.Name,
	}); err != nil {
		slog.Warn("Failed to create plan notification", "plan_id", plan.ID, "error", err)
	}

	s.invalidateDashboards(ctx, plan.AthleteID)
	return plan, nil
}

// ArchivePlan retires an active plan.
func (s *Service) ArchivePlan(ctx context.Context, actor *domain.User, id uuid.UUID) (*domain.TrainingPlan, error) {
	plan, err := s.ownedPlan(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if plan.Status != domain.PlanActive {
		return nil, fmt.Errorf("%w: only active plans can be archived", domain.ErrInvalidTransition)
	}

	if err := s.plans.UpdateStatus(ctx, plan.ID, domain.PlanArchived); err != nil {
		return nil, err
	}
	plan.Status = domain.PlanArchived
	s.invalidateDashboards(ctx, plan.AthleteID)
	return plan, nil
}

func (s *Service) ownedPlan(ctx context.Context, actor *domain.User, id uuid.UUID) (*domain.TrainingPlan, error) {
	plan, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if plan.CoachID != actor.ID {
		return nil, domain.ErrPlanNotFound
	}
	return plan, nil
}
