package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/shanebarringer/ultracoach-sub001/internal/app"
	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
	apperrors "github.com/shanebarringer/ultracoach-sub001/internal/errors"
)

// Durations cross the wire as whole seconds, distances as meters.
type workoutResponse struct {
	ID               uuid.UUID  `json:"id"`
	AthleteID        uuid.UUID  `json:"athlete_id"`
	PlanID           *uuid.UUID `json:"plan_id,omitempty"`
	Title            string     `json:"title"`
	Sport            string     `json:"sport"`
	Date             time.Time  `json:"date"`
	Status           string     `json:"status"`
	PlannedDurationS *int64     `json:"planned_duration_s,omitempty"`
	PlannedDistanceM *float64   `json:"planned_distance_m,omitempty"`
	ActualDurationS  *int64     `json:"actual_duration_s,omitempty"`
	ActualDistanceM  *float64   `json:"actual_distance_m,omitempty"`
	AvgHeartRate     *int       `json:"avg_heart_rate,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	ExternalProvider string     `json:"external_provider,omitempty"`
	ClientRef        string     `json:"client_ref,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func toWorkoutResponse(w *domain.Workout, clientRef string) workoutResponse {
	resp := workoutResponse{
		ID:               w.ID,
		AthleteID:        w.AthleteID,
		PlanID:           w.PlanID,
		Title:            w.Title,
		Sport:            w.Sport,
		Date:             w.Date,
		Status:           string(w.Status),
		PlannedDistanceM: w.PlannedDistance,
		ActualDistanceM:  w.ActualDistance,
		AvgHeartRate:     w.AvgHeartRate,
		Notes:            w.Notes,
		ExternalProvider: w.ExternalProvider,
		ClientRef:        clientRef,
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
	}
	resp.PlannedDurationS = durationSeconds(w.PlannedDuration)
	resp.ActualDurationS = durationSeconds(w.ActualDuration)
	return resp
}

func durationSeconds(d *time.Duration) *int64 {
	if d == nil {
		return nil
	}
	secs := int64(d.Seconds())
	return &secs
}

func secondsDuration(secs *int64) *time.Duration {
	if secs == nil {
		return nil
	}
	d := time.Duration(*secs) * time.Second
	return &d
}

type workoutRequest struct {
	AthleteID        *uuid.UUID `json:"athlete_id"`
	PlanID           *uuid.UUID `json:"plan_id"`
	Title            string     `json:"title"`
	Sport            string     `json:"sport"`
	Date             time.Time  `json:"date"`
	PlannedDurationS *int64     `json:"planned_duration_s"`
	PlannedDistanceM *float64   `json:"planned_distance_m"`
	Notes            string     `json:"notes"`
	ClientRef        string     `json:"client_ref"`
}

func (s *Server) handleListWorkouts(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	filter := domain.WorkoutFilter{}
	if raw := c.QueryParam("athlete_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return apperrors.ValidationError("invalid athlete_id")
		}
		filter.AthleteID = id
	}
	if raw := c.QueryParam("status"); raw != "" {
		filter.Status = domain.WorkoutStatus(raw)
	}
	if raw := c.QueryParam("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return apperrors.ValidationError("invalid from timestamp")
		}
		filter.From = t
	}
	if raw := c.QueryParam("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return apperrors.ValidationError("invalid to timestamp")
		}
		filter.To = t
	}

	workouts, err := s.app.ListWorkouts(c.Request().Context(), user, filter)
	if err != nil {
		return mapDomainErr(err, "failed to list workouts")
	}

	resp := make([]workoutResponse, 0, len(workouts))
	for _, w := range workouts {
		resp = append(resp, toWorkoutResponse(w, ""))
	}
	return c.JSON(200, resp)
}

func (s *Server) handleGetWorkout(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	workout, err := s.app.GetWorkout(c.Request().Context(), user, id)
	if err != nil {
		return mapDomainErr(err, "failed to load workout")
	}
	return c.JSON(200, toWorkoutResponse(workout, ""))
}

func (s *Server) handleCreateWorkout(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req workoutRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Title == "" {
		return apperrors.ValidationError("title is required")
	}
	if req.Date.IsZero() {
		return apperrors.ValidationError("date is required")
	}

	workout := &domain.Workout{
		PlanID:          req.PlanID,
		Title:           req.Title,
		Sport:           req.Sport,
		Date:            req.Date,
		Status:          domain.WorkoutPlanned,
		PlannedDuration: secondsDuration(req.PlannedDurationS),
		PlannedDistance: req.PlannedDistanceM,
		Notes:           req.Notes,
	}
	if req.AthleteID != nil {
		workout.AthleteID = *req.AthleteID
	}

	created, err := s.app.CreateWorkout(c.Request().Context(), user, workout)
	if err != nil {
		return mapDomainErr(err, "failed to create workout")
	}
	return c.JSON(201, toWorkoutResponse(created, req.ClientRef))
}

func (s *Server) handleUpdateWorkout(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req workoutRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Title == "" {
		return apperrors.ValidationError("title is required")
	}

	updated, err := s.app.UpdateWorkout(c.Request().Context(), user, &domain.Workout{
		ID:              id,
		Title:           req.Title,
		Sport:           req.Sport,
		Date:            req.Date,
		PlannedDuration: secondsDuration(req.PlannedDurationS),
		PlannedDistance: req.PlannedDistanceM,
		Notes:           req.Notes,
	})
	if err != nil {
		return mapDomainErr(err, "failed to update workout")
	}
	return c.JSON(200, toWorkoutResponse(updated, req.ClientRef))
}

func (s *Server) handleDeleteWorkout(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	if err := s.app.DeleteWorkout(c.Request().Context(), user, id); err != nil {
		return mapDomainErr(err, "failed to delete workout")
	}
	return c.NoContent(204)
}

type completeWorkoutRequest struct {
	DurationS    *int64   `json:"duration_s"`
	DistanceM    *float64 `json:"distance_m"`
	AvgHeartRate *int     `json:"avg_heart_rate"`
	Notes        string   `json:"notes"`
}

func (s *Server) handleCompleteWorkout(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req completeWorkoutRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	workout, err := s.app.CompleteWorkout(c.Request().Context(), user, id, app.WorkoutResults{
		Duration:     secondsDuration(req.DurationS),
		DistanceM:    req.DistanceM,
		AvgHeartRate: req.AvgHeartRate,
		Notes:        req.Notes,
	})
	if err != nil {
		return mapDomainErr(err, "failed to complete workout")
	}
	return c.JSON(200, toWorkoutResponse(workout, ""))
}

func (s *Server) handleSkipWorkout(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	workout, err := s.app.SkipWorkout(c.Request().Context(), user, id)
	if err != nil {
		return mapDomainErr(err, "failed to skip workout")
	}
	return c.JSON(200, toWorkoutResponse(workout, ""))
}
