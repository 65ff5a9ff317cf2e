package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type InvitationStatus string

const (
	InvitationPending   InvitationStatus = "pending"
	InvitationAccepted  InvitationStatus = "accepted"
	InvitationDeclined  InvitationStatus = "declined"
	InvitationCancelled InvitationStatus = "cancelled"
	InvitationExpired   InvitationStatus = "expired"
)

// Invitation is how a coach and an athlete find each other. The inviter's
// role decides which side of the relationship the invitee lands on.
type Invitation struct {
	ID           uuid.UUID
	InviterID    uuid.UUID
	InviterRole  Role
	InviteeEmail string
	Token        string
	Status       InvitationStatus
	ExpiresAt    time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Open reports whether the invitation can still be accepted at time now.
func (i *Invitation) Open(now time.Time) bool {
	return i.Status == InvitationPending && now.Before(i.ExpiresAt)
}

type InvitationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Invitation, error)
	GetByToken(ctx context.Context, token string) (*Invitation, error)
	ListByInviter(ctx context.Context, inviterID uuid.UUID) ([]*Invitation, error)
	ListByInviteeEmail(ctx context.Context, email string) ([]*Invitation, error)
	Create(ctx context.Context, inv *Invitation) (*Invitation, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status InvitationStatus) error
}
