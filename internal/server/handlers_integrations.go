package server

import (
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/shanebarringer/ultracoach-sub001/internal/crypto"
	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
	apperrors "github.com/shanebarringer/ultracoach-sub001/internal/errors"
)

func (s *Server) handleListIntegrations(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	statuses, err := s.app.ListIntegrations(c.Request().Context(), user)
	if err != nil {
		return mapDomainErr(err, "failed to list integrations")
	}
	return c.JSON(200, statuses)
}

func (s *Server) handleIntegrationConnect(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	url, err := s.app.IntegrationConnectURL(user, c.Param("provider"))
	if err != nil {
		return mapDomainErr(err, "failed to build connect url")
	}
	return c.JSON(200, map[string]string{"url": url})
}

// handleIntegrationCallback completes the provider OAuth flow. The provider
// redirects the browser here, so the route sits outside the session-bound API
// group and trusts the signed state instead.
func (s *Server) handleIntegrationCallback(c echo.Context) error {
	state := c.QueryParam("state")
	code := c.QueryParam("code")
	if state == "" || code == "" {
		return apperrors.ValidationError("state and code are required")
	}

	user, err := s.app.CompleteIntegrationCallback(c.Request().Context(), state, code)
	if err != nil {
		if errors.Is(err, crypto.ErrInvalidState) {
			return apperrors.ValidationError("invalid oauth state")
		}
		return mapDomainErr(err, "failed to complete provider callback")
	}

	return c.JSON(200, map[string]string{
		"status":  "connected",
		"user_id": user.ID.String(),
	})
}

func (s *Server) handleIntegrationDisconnect(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := s.app.DisconnectIntegration(c.Request().Context(), user, c.Param("provider")); err != nil {
		return mapDomainErr(err, "failed to disconnect integration")
	}
	return c.NoContent(204)
}

const defaultNotificationLimit = 50

type notificationResponse struct {
	ID        uuid.UUID      `json:"id"`
	Kind      string         `json:"kind"`
	Payload   map[string]any `json:"payload"`
	Read      bool           `json:"read"`
	CreatedAt time.Time      `json:"created_at"`
}

func toNotificationResponse(n *domain.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		Kind:      string(n.Kind),
		Payload:   n.Payload,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}

func (s *Server) handleListNotifications(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	unreadOnly := c.QueryParam("unread") == "true"

	limit := defaultNotificationLimit
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > 200 {
			return apperrors.ValidationError("limit must be between 1 and 200")
		}
	}

	notifications, err := s.app.ListNotifications(c.Request().Context(), user, unreadOnly, limit)
	if err != nil {
		return mapDomainErr(err, "failed to list notifications")
	}

	resp := make([]notificationResponse, 0, len(notifications))
	for _, n := range notifications {
		resp = append(resp, toNotificationResponse(n))
	}
	return c.JSON(200, resp)
}

func (s *Server) handleMarkNotificationRead(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	if err := s.app.MarkNotificationRead(c.Request().Context(), user, id); err != nil {
		return mapDomainErr(err, "failed to mark notification read")
	}
	return c.JSON(200, map[string]string{"status": "ok"})
}

func (s *Server) handleMarkAllNotificationsRead(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	if err := s.app.MarkAllNotificationsRead(c.Request().Context(), user); err != nil {
		return mapDomainErr(err, "failed to mark notifications read")
	}
	return c.JSON(200, map[string]string{"status": "ok"})
}
