package server

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
	apperrors "github.com/shanebarringer/ultracoach-sub001/internal/errors"
)

func (s *Server) handleDashboard(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	dashboard, err := s.app.GetDashboard(c.Request().Context(), user)
	if err != nil {
		return mapDomainErr(err, "failed to load dashboard")
	}
	return c.JSON(200, dashboard)
}

type settingsPayload struct {
	Units        string `json:"units"`
	Timezone     string `json:"timezone"`
	WeekStartDay int    `json:"week_start_day"`
	EmailOptIn   bool   `json:"email_opt_in"`
	UpdatedAt    time.Time `json:"updated_at,omitempty"`
}

func (s *Server) handleGetSettings(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	settings, err := s.app.GetSettings(c.Request().Context(), user.ID)
	if err != nil {
		return mapDomainErr(err, "failed to load settings")
	}
	return c.JSON(200, settingsPayload{
		Units:        settings.Units,
		Timezone:     settings.Timezone,
		WeekStartDay: settings.WeekStartDay,
		EmailOptIn:   settings.EmailOptIn,
		UpdatedAt:    settings.UpdatedAt,
	})
}

func (s *Server) handleUpdateSettings(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req settingsPayload
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Units != "metric" && req.Units != "imperial" {
		return apperrors.ValidationError("units must be metric or imperial")
	}
	if req.WeekStartDay < 0 || req.WeekStartDay > 6 {
		return apperrors.ValidationError("week_start_day must be 0..6")
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			return apperrors.ValidationError("unknown timezone").WithField("timezone", req.Timezone)
		}
	}

	updated, err := s.app.UpdateSettings(c.Request().Context(), &domain.Settings{
		UserID:       user.ID,
		Units:        req.Units,
		Timezone:     req.Timezone,
		WeekStartDay: req.WeekStartDay,
		EmailOptIn:   req.EmailOptIn,
	})
	if err != nil {
		return mapDomainErr(err, "failed to update settings")
	}
	return c.JSON(200, settingsPayload{
		Units:        updated.Units,
		Timezone:     updated.Timezone,
		WeekStartDay: updated.WeekStartDay,
		EmailOptIn:   updated.EmailOptIn,
		UpdatedAt:    updated.UpdatedAt,
	})
}
