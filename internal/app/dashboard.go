package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
)

const upcomingWindow = 7 * 24 * time.Hour

// Dashboard is the role-specific aggregate behind GET /api/dashboard. It is
// cached as JSON, so every field carries a tag.
type Dashboard struct {
	Role               domain.Role       `json:"role"`
	UpcomingWorkouts   []WorkoutItem     `json:"upcoming_workouts"`
	CompletedThisWeek  int               `json:"completed_this_week"`
	PlannedThisWeek    int               `json:"planned_this_week"`
	UnreadMessages     int               `json:"unread_messages"`
	PendingInvitations int               `json:"pending_invitations"`
	UpcomingRaces      []RaceItem        `json:"upcoming_races,omitempty"`
	Athletes           []AthleteOverview `json:"athletes,omitempty"`
}

type WorkoutItem struct {
	ID              uuid.UUID  `json:"id"`
	AthleteID       uuid.UUID  `json:"athlete_id"`
	Title           string     `json:"title"`
	Sport           string     `json:"sport"`
	Date            time.Time  `json:"date"`
	Status          string     `json:"status"`
	PlannedDuration *int64     `json:"planned_duration_s,omitempty"`
	PlannedDistance *float64   `json:"planned_distance_m,omitempty"`
	PlanID          *uuid.UUID `json:"plan_id,omitempty"`
}

type RaceItem struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Sport     string    `json:"sport"`
	Date      time.Time `json:"date"`
	DistanceM float64   `json:"distance_m"`
}

// AthleteOverview is one coached athlete's week at a glance.
type AthleteOverview struct {
	AthleteID         uuid.UUID `json:"athlete_id"`
	DisplayName       string    `json:"display_name"`
	PlannedThisWeek   int       `json:"planned_this_week"`
	CompletedThisWeek int       `json:"completed_this_week"`
}

func workoutItem(w *domain.Workout) WorkoutItem {
	item := WorkoutItem{
		ID:              w.ID,
		AthleteID:       w.AthleteID,
		Title:           w.Title,
		Sport:           w.Sport,
		Date:            w.Date,
		Status:          string(w.Status),
		PlannedDistance: w.PlannedDistance,
		PlanID:          w.PlanID,
	}
	if w.PlannedDuration != nil {
		secs := int64(w.PlannedDuration.Seconds())
		item.PlannedDuration = &secs
	}
	return item
}

// GetDashboard assembles the role-specific dashboard, served from cache when
// fresh. Concurrent misses for the same user share one assembly.
func (s *Service) GetDashboard(ctx context.Context, user *domain.User) (*Dashboard, error) {
	var cached Dashboard
	if s.dashboards != nil && s.dashboards.Get(ctx, user.ID, &cached) {
		return &cached, nil
	}

	result, err, _ := s.dashboardGroup.Do(user.ID.String(), func() (any, error) {
		return s.buildDashboard(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Dashboard), nil
}

func (s *Service) buildDashboard(ctx context.Context, user *domain.User) (*Dashboard, error) {
	var (
		dashboard *Dashboard
		err       error
	)
	if user.Role == domain.RoleCoach {
		dashboard, err = s.coachDashboard(ctx, user)
	} else {
		dashboard, err = s.athleteDashboard(ctx, user)
	}
	if err != nil {
		return nil, err
	}

	if s.unread != nil {
		unread, err := s.unread.Total(ctx, user.ID)
		if err != nil {
			slog.Warn("Failed to load unread totals for dashboard", "user_id", user.ID, "error", err)
		}
		dashboard.UnreadMessages = unread
	}

	pending, err := s.countPendingInvitations(ctx, user)
	if err != nil {
		return nil, err
	}
	dashboard.PendingInvitations = pending

	if s.dashboards != nil {
		s.dashboards.Set(ctx, user.ID, dashboard)
	}
	return dashboard, nil
}

func (s *Service) athleteDashboard(ctx context.Context, user *domain.User) (*Dashboard, error) {
	now := s.clock.Now()
	weekStart := startOfWeek(now)

	upcoming, err := s.workouts.List(ctx, domain.WorkoutFilter{
		AthleteID: user.ID,
		Status:    domain.WorkoutPlanned,
		From:      now.Truncate(24 * time.Hour),
		To:        now.Add(upcomingWindow),
		Limit:     20,
	})
	if err != nil {
		return nil, err
	}

	completed, err := s.workouts.CountByStatus(ctx, user.ID, domain.WorkoutCompleted, weekStart, weekStart.Add(7*24*time.Hour))
	if err != nil {
		return nil, err
	}
	planned, err := s.workouts.CountByStatus(ctx, user.ID, domain.WorkoutPlanned, weekStart, weekStart.Add(7*24*time.Hour))
	if err != nil {
		return nil, err
	}

	races, err := s.races.ListByAthlete(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{
		Role:              user.Role,
		CompletedThisWeek: completed,
		PlannedThisWeek:   planned,
		UpcomingWorkouts:  make([]WorkoutItem, 0, len(upcoming)),
	}
	for _, w := range upcoming {
		dashboard.UpcomingWorkouts = append(dashboard.UpcomingWorkouts, workoutItem(w))
	}
	for _, race := range races {
		if race.Date.Before(now) {
			continue
		}
		dashboard.UpcomingRaces = append(dashboard.UpcomingRaces, RaceItem{
			ID: race.ID, Name: race.Name, Sport: race.Sport,
			Date: race.Date, DistanceM: race.DistanceM,
		})
	}
	return dashboard, nil
}

func (s *Service) coachDashboard(ctx context.Context, user *domain.User) (*Dashboard, error) {
	now := s.clock.Now()
	weekStart := startOfWeek(now)

	relationships, err := s.relationships.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	dashboard := &Dashboard{
		Role:             user.Role,
		UpcomingWorkouts: []WorkoutItem{},
	}

	for _, rel := range relationships {
		if rel.Status != domain.RelationshipActive {
			continue
		}
		athlete, err := s.users.GetByID(ctx, rel.AthleteID)
		if err != nil {
			return nil, err
		}

		planned, err := s.workouts.CountByStatus(ctx, rel.AthleteID, domain.WorkoutPlanned, weekStart, weekStart.Add(7*24*time.Hour))
		if err != nil {
			return nil, err
		}
		completed, err := s.workouts.CountByStatus(ctx, rel.AthleteID, domain.WorkoutCompleted, weekStart, weekStart.Add(7*24*time.Hour))
		if err != nil {
			return nil, err
		}

		dashboard.Athletes = append(dashboard.Athletes, AthleteOverview{
			AthleteID:         athlete.ID,
			DisplayName:       athlete.DisplayName,
			PlannedThisWeek:   planned,
			CompletedThisWeek: completed,
		})
		dashboard.PlannedThisWeek += planned
		dashboard.CompletedThisWeek += completed
	}

	return dashboard, nil
}

func (s *Service) countPendingInvitations(ctx context.Context, user *domain.User) (int, error) {
	now := s.clock.Now()
	invitations, err := s.invitations.ListByInviteeEmail(ctx, user.Email)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, inv := range invitations {
		if inv.Open(now) {
			count++
		}
	}
	return count, nil
}

// invalidateDashboards drops the cached dashboards of the athlete and of
// every coach actively linked to them; dashboards aggregate both sides.
func (s *Service) invalidateDashboards(ctx context.Context, athleteID uuid.UUID) {
	if s.dashboards == nil {
		return
	}

	ids := []uuid.UUID{athleteID}
	relationships, err := s.relationships.ListByUser(ctx, athleteID)
	if err == nil {
		for _, rel := range relationships {
			if rel.Status == domain.RelationshipActive {
				ids = append(ids, rel.CoachID)
			}
		}
	}

	if err := s.dashboards.Invalidate(ctx, ids...); err != nil {
		slog.Warn("Failed to invalidate dashboard cache", "error", err)
	}
}

// startOfWeek returns Monday 00:00 of now's week.
func startOfWeek(now time.Time) time.Time {
	day := now.Truncate(24 * time.Hour)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return day.AddDate(0, 0, -(weekday - 1))
}
