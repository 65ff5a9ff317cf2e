package server

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
	apperrors "github.com/shanebarringer/ultracoach-sub001/internal/errors"
)

type invitationResponse struct {
	ID           uuid.UUID `json:"id"`
	InviterID    uuid.UUID `json:"inviter_id"`
	InviterRole  string    `json:"inviter_role"`
	InviteeEmail string    `json:"invitee_email"`
	Status       string    `json:"status"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func toInvitationResponse(inv *domain.Invitation) invitationResponse {
	return invitationResponse{
		ID:           inv.ID,
		InviterID:    inv.InviterID,
		InviterRole:  string(inv.InviterRole),
		InviteeEmail: inv.InviteeEmail,
		Status:       string(inv.Status),
		ExpiresAt:    inv.ExpiresAt,
		CreatedAt:    inv.CreatedAt,
	}
}

type relationshipResponse struct {
	ID        uuid.UUID  `json:"id"`
	CoachID   uuid.UUID  `json:"coach_id"`
	AthleteID uuid.UUID  `json:"athlete_id"`
	Status    string     `json:"status"`
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

func toRelationshipResponse(rel *domain.Relationship) relationshipResponse {
	return relationshipResponse{
		ID:        rel.ID,
		CoachID:   rel.CoachID,
		AthleteID: rel.AthleteID,
		Status:    string(rel.Status),
		StartedAt: rel.StartedAt,
		EndedAt:   rel.EndedAt,
	}
}

func (s *Server) handleListInvitations(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	sent, received, err := s.app.ListInvitations(c.Request().Context(), user)
	if err != nil {
		return mapDomainErr(err, "failed to list invitations")
	}

	resp := struct {
		Sent     []invitationResponse `json:"sent"`
		Received []invitationResponse `json:"received"`
	}{
		Sent:     make([]invitationResponse, 0, len(sent)),
		Received: make([]invitationResponse, 0, len(received)),
	}
	for _, inv := range sent {
		resp.Sent = append(resp.Sent, toInvitationResponse(inv))
	}
	for _, inv := range received {
		resp.Received = append(resp.Received, toInvitationResponse(inv))
	}
	return c.JSON(200, resp)
}

type createInvitationRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleCreateInvitation(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req createInvitationRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return apperrors.ValidationError("a valid email is required")
	}

	invitation, err := s.app.CreateInvitation(c.Request().Context(), user, email)
	if err != nil {
		return mapDomainErr(err, "failed to create invitation")
	}
	return c.JSON(201, toInvitationResponse(invitation))
}

func (s *Server) handleAcceptInvitation(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	relationship, err := s.app.AcceptInvitation(c.Request().Context(), user, id)
	if err != nil {
		return mapDomainErr(err, "failed to accept invitation")
	}
	return c.JSON(200, toRelationshipResponse(relationship))
}

type acceptInvitationByTokenRequest struct {
	Token string `json:"token"`
}

// handleAcceptInvitationByToken accepts via the token from the invite link,
// for invitees who signed up under a different email than the one invited.
func (s *Server) handleAcceptInvitationByToken(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req acceptInvitationByTokenRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	relationship, err := s.app.AcceptInvitationByToken(c.Request().Context(), user, strings.TrimSpace(req.Token))
	if err != nil {
		return mapDomainErr(err, "failed to accept invitation")
	}
	return c.JSON(200, toRelationshipResponse(relationship))
}

func (s *Server) handleDeclineInvitation(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	if err := s.app.DeclineInvitation(c.Request().Context(), user, id); err != nil {
		return mapDomainErr(err, "failed to decline invitation")
	}
	return c.JSON(200, map[string]string{"status": "ok"})
}

func (s *Server) handleCancelInvitation(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	if err := s.app.CancelInvitation(c.Request().Context(), user, id); err != nil {
		return mapDomainErr(err, "failed to cancel invitation")
	}
	return c.JSON(200, map[string]string{"status": "ok"})
}

func (s *Server) handleListRelationships(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	relationships, err := s.app.ListRelationships(c.Request().Context(), user)
	if err != nil {
		return mapDomainErr(err, "failed to list relationships")
	}

	resp := make([]relationshipResponse, 0, len(relationships))
	for _, rel := range relationships {
		resp = append(resp, toRelationshipResponse(rel))
	}
	return c.JSON(200, resp)
}

func (s *Server) handleEndRelationship(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	if err := s.app.EndRelationship(c.Request().Context(), user, id); err != nil {
		return mapDomainErr(err, "failed to end relationship")
	}
	return c.JSON(200, map[string]string{"status": "ok"})
}
