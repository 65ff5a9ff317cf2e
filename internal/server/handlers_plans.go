package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
	apperrors "github.com/shanebarringer/ultracoach-sub001/internal/errors"
)

type planResponse struct {
	ID          uuid.UUID  `json:"id"`
	CoachID     uuid.UUID  `json:"coach_id"`
	AthleteID   uuid.UUID  `json:"athlete_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Status      string     `json:"status"`
	ClientRef   string     `json:"client_ref,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toPlanResponse(p *domain.TrainingPlan, clientRef string) planResponse {
	return planResponse{
		ID:          p.ID,
		CoachID:     p.CoachID,
		AthleteID:   p.AthleteID,
		Name:        p.Name,
		Description: p.Description,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		Status:      string(p.Status),
		ClientRef:   clientRef,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type planRequest struct {
	AthleteID   uuid.UUID  `json:"athlete_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"start_date"`
	EndDate     *time.Time `json:"end_date"`
	ClientRef   string     `json:"client_ref"`
}

func (s *Server) handleListPlans(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	plans, err := s.app.ListPlans(c.Request().Context(), user)
	if err != nil {
		return mapDomainErr(err, "failed to list training plans")
	}

	resp := make([]planResponse, 0, len(plans))
	for _, p := range plans {
		resp = append(resp, toPlanResponse(p, ""))
	}
	return c.JSON(200, resp)
}

func (s *Server) handleGetPlan(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	plan, err := s.app.GetPlan(c.Request().Context(), user, id)
	if err != nil {
		return mapDomainErr(err, "failed to load training plan")
	}
	return c.JSON(200, toPlanResponse(plan, ""))
}

func (s *Server) handleCreatePlan(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if user.Role != domain.RoleCoach {
		return apperrors.ForbiddenError("only coaches create training plans")
	}

	var req planRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Name == "" {
		return apperrors.ValidationError("name is required")
	}
	if req.AthleteID == uuid.Nil {
		return apperrors.ValidationError("athlete_id is required")
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return apperrors.ValidationError("end_date precedes start_date")
	}

	plan, err := s.app.CreatePlan(c.Request().Context(), user, &domain.TrainingPlan{
		AthleteID:   req.AthleteID,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		return mapDomainErr(err, "failed to create training plan")
	}
	return c.JSON(201, toPlanResponse(plan, req.ClientRef))
}

func (s *Server) handleUpdatePlan(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req planRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Name == "" {
		return apperrors.ValidationError("name is required")
	}

	plan, err := s.app.UpdatePlan(c.Request().Context(), user, &domain.TrainingPlan{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	})
	if err != nil {
		return mapDomainErr(err, "failed to update training plan")
	}
	return c.JSON(200, toPlanResponse(plan, req.ClientRef))
}

func (s *Server) handleDeletePlan(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	if err := s.app.DeletePlan(c.Request().Context(), user, id); err != nil {
		return mapDomainErr(err, "failed to delete training plan")
	}
	return c.NoContent(204)
}

func (s *Server) handleActivatePlan(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	plan, err := s.app.ActivatePlan(c.Request().Context(), user, id)
	if err != nil {
		return mapDomainErr(err, "failed to activate training plan")
	}
	return c.JSON(200, toPlanResponse(plan, ""))
}

func (s *Server) handleArchivePlan(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	plan, err := s.app.ArchivePlan(c.Request().Context(), user, id)
	if err != nil {
		return mapDomainErr(err, "failed to archive training plan")
	}
	return c.JSON(200, toPlanResponse(plan, ""))
}
