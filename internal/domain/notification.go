package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotificationMessage       NotificationKind = "message"
	NotificationInvitation    NotificationKind = "invitation"
	NotificationPlanAssigned  NotificationKind = "plan_assigned"
	NotificationWorkoutSynced NotificationKind = "workout_synced"
)

type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Kind      NotificationKind
	Payload   map[string]any
	Read      bool
	CreatedAt time.Time
}

type NotificationRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*Notification, error)
	Create(ctx context.Context, userID uuid.UUID, kind NotificationKind, payload map[string]any) (*Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}
