package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/singleflight"

	"github.com/shanebarringer/ultracoach-sub001/internal/crypto"
	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
	"github.com/shanebarringer/ultracoach-sub001/internal/integration"
	"github.com/shanebarringer/ultracoach-sub001/internal/redis"
)

// UnreadCounter tracks unread message counts per (user, conversation).
type UnreadCounter interface {
	Increment(ctx context.Context, userID, conversationID uuid.UUID) error
	Reset(ctx context.Context, userID, conversationID uuid.UUID) error
	Counts(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error)
	Total(ctx context.Context, userID uuid.UUID) (int, error)
}

// MessagePublisher fans chat messages out across server instances.
type MessagePublisher interface {
	PublishMessage(ctx context.Context, event redis.MessageEvent) error
}

// DashboardCache is the best-effort cache in front of dashboard assembly.
type DashboardCache interface {
	Get(ctx context.Context, userID uuid.UUID, dest any) bool
	Set(ctx context.Context, userID uuid.UUID, dashboard any)
	Invalidate(ctx context.Context, userIDs ...uuid.UUID) error
}

// Service is the application layer, the only component that references
// multiple domain components. It orchestrates all use cases.
type Service struct {
	users         domain.UserRepository
	settings      domain.SettingsRepository
	relationships domain.RelationshipRepository
	invitations   domain.InvitationRepository
	plans         domain.TrainingPlanRepository
	workouts      domain.WorkoutRepository
	conversations domain.ConversationRepository
	messages      domain.MessageRepository
	races         domain.RaceRepository
	notifications domain.NotificationRepository
	integrations  domain.IntegrationRepository

	unread     UnreadCounter
	publisher  MessagePublisher
	dashboards DashboardCache

	provider     integration.ProviderClient
	signer       *crypto.StateSigner
	providerName string

	// Collapses concurrent dashboard rebuilds for the same user after a
	// cache miss.
	dashboardGroup singleflight.Group

	clock clockwork.Clock
}

// Deps bundles everything the service needs. Provider and Signer may be nil
// when no fitness-device integration is configured.
type Deps struct {
	Users         domain.UserRepository
	Settings      domain.SettingsRepository
	Relationships domain.RelationshipRepository
	Invitations   domain.InvitationRepository
	Plans         domain.TrainingPlanRepository
	Workouts      domain.WorkoutRepository
	Conversations domain.ConversationRepository
	Messages      domain.MessageRepository
	Races         domain.RaceRepository
	Notifications domain.NotificationRepository
	Integrations  domain.IntegrationRepository

	Unread     UnreadCounter
	Publisher  MessagePublisher
	Dashboards DashboardCache

	Provider     integration.ProviderClient
	Signer       *crypto.StateSigner
	ProviderName string

	Clock clockwork.Clock
}

func NewService(deps Deps) *Service {
	return &Service{
		users:         deps.Users,
		settings:      deps.Settings,
		relationships: deps.Relationships,
		invitations:   deps.Invitations,
		plans:         deps.Plans,
		workouts:      deps.Workouts,
		conversations: deps.Conversations,
		messages:      deps.Messages,
		races:         deps.Races,
		notifications: deps.Notifications,
		integrations:  deps.Integrations,
		unread:        deps.Unread,
		publisher:     deps.Publisher,
		dashboards:    deps.Dashboards,
		provider:      deps.Provider,
		signer:        deps.Signer,
		providerName:  deps.ProviderName,
		clock:         deps.Clock,
	}
}

// Register creates a user with a bcrypt-hashed password and default settings.
func (s *Service) Register(ctx context.Context, email, password, displayName string, role domain.Role) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}
	if role != domain.RoleCoach && role != domain.RoleAthlete {
		return nil, fmt.Errorf("%w: role must be coach or athlete", domain.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return s.users.Create(ctx, email, string(hash), displayName, role)
}

// Login verifies credentials and returns the user. Wrong email and wrong
// password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		// Burn a comparison anyway so response timing does not reveal
		// whether the email exists.
		_ = bcrypt.CompareHashAndPassword(
			[]byte("$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"), []byte(password))
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return user, nil
}

// GetUserByID retrieves a user by ID.
func (s *Service) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// GetSettings returns the user's preferences.
func (s *Service) GetSettings(ctx context.Context, userID uuid.UUID) (*domain.Settings, error) {
	return s.settings.Get(ctx, userID)
}

// UpdateSettings replaces the user's preferences.
func (s *Service) UpdateSettings(ctx context.Context, settings *domain.Settings) (*domain.Settings, error) {
	if settings.Units != "metric" && settings.Units != "imperial" {
		return nil, fmt.Errorf("%w: units must be metric or imperial", domain.ErrInvalidInput)
	}
	if settings.WeekStartDay < 0 || settings.WeekStartDay > 6 {
		return nil, fmt.Errorf("%w: week start day must be 0..6", domain.ErrInvalidInput)
	}
	if err := s.settings.Update(ctx, settings); err != nil {
		return nil, err
	}
	return s.settings.Get(ctx, settings.UserID)
}

// canCoach reports whether coachID has an active relationship with athleteID.
func (s *Service) canCoach(ctx context.Context, coachID, athleteID uuid.UUID) bool {
	_, err := s.relationships.GetActiveByPair(ctx, coachID, athleteID)
	return err == nil
}

// canAccessAthlete is the shared read-access rule: athletes see their own
// data, coaches see their athletes'.
func (s *Service) canAccessAthlete(ctx context.Context, actor *domain.User, athleteID uuid.UUID) bool {
	if actor.ID == athleteID {
		return true
	}
	return actor.Role == domain.RoleCoach && s.canCoach(ctx, actor.ID, athleteID)
}
