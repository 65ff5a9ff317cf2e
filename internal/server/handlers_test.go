package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/shanebarringer/ultracoach-sub001/internal/app"
	"github.com/shanebarringer/ultracoach-sub001/internal/config"
	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
	apperrors "github.com/shanebarringer/ultracoach-sub001/internal/errors"
	"github.com/shanebarringer/ultracoach-sub001/internal/redis"
)

// --- Mock repositories ---
//
// Embedding the interface lets each test implement only the methods it
// touches; unimplemented calls panic loudly.

type mockUserRepo struct {
	domain.UserRepository
	GetByIDFn    func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	GetByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	CreateFn     func(ctx context.Context, email, passwordHash, displayName string, role domain.Role) (*domain.User, error)
}

func (m *mockUserRepo) GetByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return m.GetByIDFn(ctx, userID)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return m.GetByEmailFn(ctx, email)
}

func (m *mockUserRepo) Create(ctx context.Context, email, passwordHash, displayName string, role domain.Role) (*domain.User, error) {
	return m.CreateFn(ctx, email, passwordHash, displayName, role)
}

type mockWorkoutRepo struct {
	domain.WorkoutRepository
	GetByIDFn func(ctx context.Context, id uuid.UUID) (*domain.Workout, error)
	ListFn    func(ctx context.Context, filter domain.WorkoutFilter) ([]*domain.Workout, error)
	CreateFn  func(ctx context.Context, w *domain.Workout) (*domain.Workout, error)
	UpdateFn  func(ctx context.Context, w *domain.Workout) error
}

func (m *mockWorkoutRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workout, error) {
	return m.GetByIDFn(ctx, id)
}

func (m *mockWorkoutRepo) List(ctx context.Context, filter domain.WorkoutFilter) ([]*domain.Workout, error) {
	return m.ListFn(ctx, filter)
}

func (m *mockWorkoutRepo) Create(ctx context.Context, w *domain.Workout) (*domain.Workout, error) {
	return m.CreateFn(ctx, w)
}

func (m *mockWorkoutRepo) Update(ctx context.Context, w *domain.Workout) error {
	return m.UpdateFn(ctx, w)
}

type mockConversationRepo struct {
	domain.ConversationRepository
	GetByIDFn func(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	CreateFn  func(ctx context.Context, relationshipID, coachID, athleteID uuid.UUID) (*domain.Conversation, error)
}

func (m *mockConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	return m.GetByIDFn(ctx, id)
}

func (m *mockConversationRepo) Create(ctx context.Context, relationshipID, coachID, athleteID uuid.UUID) (*domain.Conversation, error) {
	return m.CreateFn(ctx, relationshipID, coachID, athleteID)
}

type mockMessageRepo struct {
	domain.MessageRepository
	ListFn   func(ctx context.Context, conversationID uuid.UUID, before time.Time, limit int) ([]*domain.Message, error)
	CreateFn func(ctx context.Context, conversationID, senderID uuid.UUID, body string) (*domain.Message, error)
}

func (m *mockMessageRepo) List(ctx context.Context, conversationID uuid.UUID, before time.Time, limit int) ([]*domain.Message, error) {
	return m.ListFn(ctx, conversationID, before, limit)
}

func (m *mockMessageRepo) Create(ctx context.Context, conversationID, senderID uuid.UUID, body string) (*domain.Message, error) {
	return m.CreateFn(ctx, conversationID, senderID, body)
}

type mockRaceRepo struct {
	domain.RaceRepository
	GetByIDFn func(ctx context.Context, id uuid.UUID) (*domain.Race, error)
	CreateFn  func(ctx context.Context, r *domain.Race) (*domain.Race, error)
}

func (m *mockRaceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Race, error) {
	return m.GetByIDFn(ctx, id)
}

func (m *mockRaceRepo) Create(ctx context.Context, r *domain.Race) (*domain.Race, error) {
	return m.CreateFn(ctx, r)
}

type mockRelationshipRepo struct {
	domain.RelationshipRepository
	GetByIDFn         func(ctx context.Context, id uuid.UUID) (*domain.Relationship, error)
	GetActiveByPairFn func(ctx context.Context, coachID, athleteID uuid.UUID) (*domain.Relationship, error)
	ListByUserFn      func(ctx context.Context, userID uuid.UUID) ([]*domain.Relationship, error)
	CreateFn          func(ctx context.Context, coachID, athleteID uuid.UUID) (*domain.Relationship, error)
}

func (m *mockRelationshipRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Relationship, error) {
	return m.GetByIDFn(ctx, id)
}

func (m *mockRelationshipRepo) GetActiveByPair(ctx context.Context, coachID, athleteID uuid.UUID) (*domain.Relationship, error) {
	return m.GetActiveByPairFn(ctx, coachID, athleteID)
}

func (m *mockRelationshipRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Relationship, error) {
	return m.ListByUserFn(ctx, userID)
}

func (m *mockRelationshipRepo) Create(ctx context.Context, coachID, athleteID uuid.UUID) (*domain.Relationship, error) {
	return m.CreateFn(ctx, coachID, athleteID)
}

type mockInvitationRepo struct {
	domain.InvitationRepository
	GetByTokenFn   func(ctx context.Context, token string) (*domain.Invitation, error)
	UpdateStatusFn func(ctx context.Context, id uuid.UUID, status domain.InvitationStatus) error
}

func (m *mockInvitationRepo) GetByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	return m.GetByTokenFn(ctx, token)
}

func (m *mockInvitationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.InvitationStatus) error {
	return m.UpdateStatusFn(ctx, id, status)
}

type mockTrainingPlanRepo struct {
	domain.TrainingPlanRepository
	GetByIDFn func(ctx context.Context, id uuid.UUID) (*domain.TrainingPlan, error)
}

func (m *mockTrainingPlanRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TrainingPlan, error) {
	return m.GetByIDFn(ctx, id)
}

type mockNotificationRepo struct {
	domain.NotificationRepository
	CreateFn func(ctx context.Context, userID uuid.UUID, kind domain.NotificationKind, payload map[string]any) (*domain.Notification, error)
}

func (m *mockNotificationRepo) Create(ctx context.Context, userID uuid.UUID, kind domain.NotificationKind, payload map[string]any) (*domain.Notification, error) {
	if m.CreateFn == nil {
		return &domain.Notification{}, nil
	}
	return m.CreateFn(ctx, userID, kind, payload)
}

type mockUnread struct {
	IncrementFn func(ctx context.Context, userID, conversationID uuid.UUID) error
	ResetFn     func(ctx context.Context, userID, conversationID uuid.UUID) error
	CountsFn    func(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error)
	TotalFn     func(ctx context.Context, userID uuid.UUID) (int, error)
}

func (m *mockUnread) Increment(ctx context.Context, userID, conversationID uuid.UUID) error {
	return m.IncrementFn(ctx, userID, conversationID)
}

func (m *mockUnread) Reset(ctx context.Context, userID, conversationID uuid.UUID) error {
	return m.ResetFn(ctx, userID, conversationID)
}

func (m *mockUnread) Counts(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	return m.CountsFn(ctx, userID)
}

func (m *mockUnread) Total(ctx context.Context, userID uuid.UUID) (int, error) {
	return m.TotalFn(ctx, userID)
}

type mockPublisher struct {
	PublishMessageFn func(ctx context.Context, event redis.MessageEvent) error
}

func (m *mockPublisher) PublishMessage(ctx context.Context, event redis.MessageEvent) error {
	return m.PublishMessageFn(ctx, event)
}

// mockPinger serves both health check interfaces.
type mockPinger struct {
	pingErr error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.pingErr
}

// --- Test helpers ---

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:         "test",
		Port:           "0",
		SessionSecret:  "test-secret-key-32-bytes-long!!!",
		SessionMaxAge:  time.Hour,
		MaxImportBytes: 1 << 20,
	}
}

func newTestServer(t *testing.T, deps app.Deps, opts ...func(*Server)) *Server {
	t.Helper()

	if deps.Clock == nil {
		deps.Clock = clockwork.NewFakeClock()
	}

	srv := NewServer(testConfig(), app.NewService(deps), nil, nil, nil, clockwork.NewFakeClock())
	t.Cleanup(srv.hub.Stop)

	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

func withPostgresHealth(pg postgresHealthChecker) func(*Server) {
	return func(s *Server) {
		s.postgresHealth = pg
	}
}

func withRedisHealth(r redisHealthChecker) func(*Server) {
	return func(s *Server) {
		s.redisHealth = r
	}
}

// callHandler wraps a handler with the error middleware, matching production
// behavior.
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return apperrors.Middleware()(handler)(c)
}

// setSessionUserID stores a logged-in session on the request. The session
// registry caches per request pointer, so serving the same request afterwards
// sees the values without a cookie round trip.
func setSessionUserID(t *testing.T, srv *Server, req *http.Request, rec *httptest.ResponseRecorder, userID uuid.UUID) {
	t.Helper()
	session, err := srv.sessionStore.Get(req, sessionName)
	require.NoError(t, err)
	session.Values[sessionKeyUser] = userID.String()
	require.NoError(t, session.Save(req, rec))
}

func coachUser() *domain.User {
	return &domain.User{ID: uuid.New(), Email: "coach@example.com", DisplayName: "Coach", Role: domain.RoleCoach}
}

func athleteUser() *domain.User {
	return &domain.User{ID: uuid.New(), Email: "athlete@example.com", DisplayName: "Athlete", Role: domain.RoleAthlete}
}
