package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
)

const invitationTTL = 14 * 24 * time.Hour

// CreateInvitation invites inviteeEmail to the other side of a coaching
// relationship. The invitee need not have an account yet; the invitation is
// matched by email on their dashboard once they do.
func (s *Service) CreateInvitation(ctx context.Context, actor *domain.User, inviteeEmail string) (*domain.Invitation, error) {
	inviteeEmail = strings.ToLower(strings.TrimSpace(inviteeEmail))
	if inviteeEmail == "" {
		return nil, fmt.Errorf("%w: invitee email is required", domain.ErrInvalidInput)
	}
	if inviteeEmail == actor.Email {
		return nil, fmt.Errorf("%w: cannot invite yourself", domain.ErrInvalidInput)
	}

	invitation := &domain.Invitation{
		InviterID:    actor.ID,
		InviterRole:  actor.Role,
		InviteeEmail: inviteeEmail,
		Token:        uuid.NewString(),
		Status:       domain.InvitationPending,
		ExpiresAt:    s.clock.Now().Add(invitationTTL),
	}

	created, err := s.invitations.Create(ctx, invitation)
	if err != nil {
		return nil, err
	}

	// Notify the invitee if they already have an account.
	if invitee, err := s.users.GetByEmail(ctx, inviteeEmail); err == nil {
		if _, err := s.notifications.Create(ctx, invitee.ID, domain.NotificationInvitation, map[string]any{
			"invitation_id": created.ID.String(),
			"inviter":       actor.DisplayName,
		}); err != nil {
			slog.Warn("Failed to create invitation notification", "error", err)
		}
	}

	return created, nil
}

// ListInvitations returns invitations the actor sent plus open ones addressed
// to them.
func (s *Service) ListInvitations(ctx context.Context, actor *domain.User) (sent, received []*domain.Invitation, err error) {
	sent, err = s.invitations.ListByInviter(ctx, actor.ID)
	if err != nil {
		return nil, nil, err
	}
	received, err = s.invitations.ListByInviteeEmail(ctx, actor.Email)
	if err != nil {
		return nil, nil, err
	}
	return sent, received, nil
}

// AcceptInvitation turns an open invitation into an active relationship with
// its conversation. Accepting anything but a pending, unexpired invitation
// addressed to the actor is a conflict.
func (s *Service) AcceptInvitation(ctx context.Context, actor *domain.User, id uuid.UUID) (*domain.Relationship, error) {
	invitation, err := s.invitations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if invitation.InviteeEmail != actor.Email {
		return nil, domain.ErrInvitationNotFound
	}
	return s.acceptInvitation(ctx, actor, invitation)
}

// AcceptInvitationByToken accepts the invitation bearing token. The token
// travels in the invite link, so possession stands in for the email match;
// the invitee may sign up under a different address than the one invited.
func (s *Service) AcceptInvitationByToken(ctx context.Context, actor *domain.User, token string) (*domain.Relationship, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: token is required", domain.ErrInvalidInput)
	}
	invitation, err := s.invitations.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.acceptInvitation(ctx, actor, invitation)
}

func (s *Service) acceptInvitation(ctx context.Context, actor *domain.User, invitation *domain.Invitation) (*domain.Relationship, error) {
	if !invitation.Open(s.clock.Now()) {
		return nil, domain.ErrInvitationNotOpen
	}
	if invitation.InviterRole == actor.Role {
		return nil, fmt.Errorf("%w: inviter and invitee have the same role", domain.ErrInvalidInput)
	}

	coachID, athleteID := invitation.InviterID, actor.ID
	if invitation.InviterRole == domain.RoleAthlete {
		coachID, athleteID = actor.ID, invitation.InviterID
	}

	relationship, err := s.relationships.Create(ctx, coachID, athleteID)
	if err != nil {
		return nil, err
	}

	if _, err := s.conversations.Create(ctx, relationship.ID, coachID, athleteID); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	if err := s.invitations.UpdateStatus(ctx, invitation.ID, domain.InvitationAccepted); err != nil {
		return nil, err
	}

	if _, err := s.notifications.Create(ctx, invitation.InviterID, domain.NotificationInvitation, map[string]any{
		"invitation_id": invitation.ID.String(),
		"status":        string(domain.InvitationAccepted),
		"accepted_by":   actor.DisplayName,
	}); err != nil {
		slog.Warn("Failed to create acceptance notification", "error", err)
	}

	s.invalidateDashboards(ctx, athleteID)
	return relationship, nil
}

// DeclineInvitation closes an open invitation addressed to the actor.
func (s *Service) DeclineInvitation(ctx context.Context, actor *domain.User, id uuid.UUID) error {
	invitation, err := s.invitations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if invitation.InviteeEmail != actor.Email {
		return domain.ErrInvitationNotFound
	}
	if !invitation.Open(s.clock.Now()) {
		return domain.ErrInvitationNotOpen
	}
	return s.invitations.UpdateStatus(ctx, id, domain.InvitationDeclined)
}

// CancelInvitation withdraws a pending invitation the actor sent.
func (s *Service) CancelInvitation(ctx context.Context, actor *domain.User, id uuid.UUID) error {
	invitation, err := s.invitations.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if invitation.InviterID != actor.ID {
		return domain.ErrInvitationNotFound
	}
	if invitation.Status != domain.InvitationPending {
		return domain.ErrInvitationNotOpen
	}
	return s.invitations.UpdateStatus(ctx, id, domain.InvitationCancelled)
}

// ListRelationships returns all relationships the actor is part of.
func (s *Service) ListRelationships(ctx context.Context, actor *domain.User) ([]*domain.Relationship, error) {
	return s.relationships.ListByUser(ctx, actor.ID)
}

// EndRelationship ends an active relationship; either member may end it.
// The conversation and its history stay readable.
func (s *Service) EndRelationship(ctx context.Context, actor *domain.User, id uuid.UUID) error {
	relationship, err := s.relationships.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if relationship.CoachID != actor.ID && relationship.AthleteID != actor.ID {
		return domain.ErrRelationshipNotFound
	}

	if err := s.relationships.End(ctx, id, s.clock.Now()); err != nil {
		return err
	}
	s.invalidateDashboards(ctx, relationship.AthleteID)
	return nil
}
