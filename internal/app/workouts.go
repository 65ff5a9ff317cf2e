package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
	"github.com/shanebarringer/ultracoach-sub001/internal/metrics"
)

// WorkoutResults are the measured outcomes reported when completing a workout.
type WorkoutResults struct {
	Duration     *time.Duration
	DistanceM    *float64
	AvgHeartRate *int
	Notes        string
}

// ListWorkouts returns workouts for filter.AthleteID, visible to the actor.
func (s *Service) ListWorkouts(ctx context.Context, actor *domain.User, filter domain.WorkoutFilter) ([]*domain.Workout, error) {
	if filter.AthleteID == uuid.Nil {
		filter.AthleteID = actor.ID
	}
	if !s.canAccessAthlete(ctx, actor, filter.AthleteID) {
		return nil, domain.ErrWorkoutNotFound
	}
	return s.workouts.List(ctx, filter)
}

// GetWorkout returns one workout if the actor may see it.
func (s *Service) GetWorkout(ctx context.Context, actor *domain.User, id uuid.UUID) (*domain.Workout, error) {
	workout, err := s.workouts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canAccessAthlete(ctx, actor, workout.AthleteID) {
		return nil, domain.ErrWorkoutNotFound
	}
	return workout, nil
}

// CreateWorkout creates a planned workout. Athletes create their own; coaches
// create for their athletes, optionally inside one of their plans.
func (s *Service) CreateWorkout(ctx context.Context, actor *domain.User, workout *domain.Workout) (*domain.Workout, error) {
	if workout.AthleteID == uuid.Nil {
		workout.AthleteID = actor.ID
	}
	if !s.canAccessAthlete(ctx, actor, workout.AthleteID) {
		return nil, domain.ErrWorkoutNotFound
	}
	if workout.Title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}

	if workout.PlanID != nil {
		plan, err := s.plans.GetByID(ctx, *workout.PlanID)
		if err != nil {
			return nil, err
		}
		if plan.AthleteID != workout.AthleteID {
			return nil, fmt.Errorf("%w: workout athlete does not match plan athlete", domain.ErrInvalidInput)
		}
	}

	created, err := s.workouts.Create(ctx, workout)
	if err != nil {
		return nil, err
	}

	metrics.WorkoutsLogged.WithLabelValues(string(created.Status)).Inc()
	s.invalidateDashboards(ctx, created.AthleteID)
	return created, nil
}

// UpdateWorkout edits a planned workout's details. Status changes go through
// CompleteWorkout/SkipWorkout, not here.
func (s *Service) UpdateWorkout(ctx context.Context, actor *domain.User, workout *domain.Workout) (*domain.Workout, error) {
	existing, err := s.GetWorkout(ctx, actor, workout.ID)
	if err != nil {
		return nil, err
	}
	if workout.Status != "" && workout.Status != existing.Status {
		return nil, domain.ErrInvalidTransition
	}

	existing.Title = workout.Title
	existing.Sport = workout.Sport
	existing.Date = workout.Date
	existing.PlannedDuration = workout.PlannedDuration
	existing.PlannedDistance = workout.PlannedDistance
	existing.Notes = workout.Notes

	if err := s.workouts.Update(ctx, existing); err != nil {
		return nil, err
	}
	s.invalidateDashboards(ctx, existing.AthleteID)
	return existing, nil
}

// DeleteWorkout removes a workout the actor may manage.
func (s *Service) DeleteWorkout(ctx context.Context, actor *domain.User, id uuid.UUID) error {
	workout, err := s.GetWorkout(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.workouts.Delete(ctx, workout.ID); err != nil {
		return err
	}
	s.invalidateDashboards(ctx, workout.AthleteID)
	return nil
}

// CompleteWorkout moves a planned workout to completed and records results.
func (s *Service) CompleteWorkout(ctx context.Context, actor *domain.User, id uuid.UUID, results WorkoutResults) (*domain.Workout, error) {
	return s.transitionWorkout(ctx, actor, id, domain.WorkoutCompleted, &results)
}

// SkipWorkout moves a planned workout to skipped.
func (s *Service) SkipWorkout(ctx context.Context, actor *domain.User, id uuid.UUID) (*domain.Workout, error) {
	return s.transitionWorkout(ctx, actor, id, domain.WorkoutSkipped, nil)
}

func (s *Service) transitionWorkout(ctx context.Context, actor *domain.User, id uuid.UUID, target domain.WorkoutStatus, results *WorkoutResults) (*domain.Workout, error) {
	workout, err := s.GetWorkout(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !workout.Status.CanTransitionTo(target) {
		return nil, domain.ErrInvalidTransition
	}

	workout.Status = target
	if results != nil {
		workout.ActualDuration = results.Duration
		workout.ActualDistance = results.DistanceM
		workout.AvgHeartRate = results.AvgHeartRate
		if results.Notes != "" {
			workout.Notes = results.Notes
		}
	}

	if err := s.workouts.Update(ctx, workout); err != nil {
		return nil, err
	}

	metrics.WorkoutsLogged.WithLabelValues(string(target)).Inc()
	s.invalidateDashboards(ctx, workout.AthleteID)
	return workout, nil
}
