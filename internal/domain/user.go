package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleCoach   Role = "coach"
	RoleAthlete Role = "athlete"
)

type User struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	DisplayName  string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type UserRepository interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, email, passwordHash, displayName string, role Role) (*User, error)
}

// Settings is the per-user preference record. Every user has exactly one row,
// created lazily with defaults on first read.
type Settings struct {
	UserID       uuid.UUID
	Units        string // "metric" or "imperial"
	Timezone     string
	WeekStartDay int // 0 = Sunday, 1 = Monday
	EmailOptIn   bool
	UpdatedAt    time.Time
}

type SettingsRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*Settings, error)
	Update(ctx context.Context, s *Settings) error
}
