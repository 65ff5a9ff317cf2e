package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
	"github.com/shanebarringer/ultracoach-sub001/internal/redis"
)

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
	GetByIDFn       func(ctx context.Context, id uuid.UUID) (*domain.Workout, error)
	ListFn          func(ctx context.Context, filter domain.WorkoutFilter) ([]*domain.Workout, error)
	CreateFn        func(ctx context.Context, w *domain.Workout) (*domain.Workout, error)
	UpdateFn        func(ctx context.Context, w *domain.Workout) error
	DeleteFn        func(ctx context.Context, id uuid.UUID) error
	CountByStatusFn func(ctx context.Context, athleteID uuid.UUID, status domain.WorkoutStatus, from, to time.Time) (int, error)
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

func (m *mockWorkoutRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.DeleteFn(ctx, id)
}

func (m *mockWorkoutRepo) CountByStatus(ctx context.Context, athleteID uuid.UUID, status domain.WorkoutStatus, from, to time.Time) (int, error) {
	return m.CountByStatusFn(ctx, athleteID, status, from, to)
}

type mockRelationshipRepo struct {
	domain.RelationshipRepository
	GetByIDFn         func(ctx context.Context, id uuid.UUID) (*domain.Relationship, error)
	GetActiveByPairFn func(ctx context.Context, coachID, athleteID uuid.UUID) (*domain.Relationship, error)
	ListByUserFn      func(ctx context.Context, userID uuid.UUID) ([]*domain.Relationship, error)
	CreateFn          func(ctx context.Context, coachID, athleteID uuid.UUID) (*domain.Relationship, error)
	EndFn             func(ctx context.Context, id uuid.UUID, endedAt time.Time) error
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

func (m *mockRelationshipRepo) End(ctx context.Context, id uuid.UUID, endedAt time.Time) error {
	return m.EndFn(ctx, id, endedAt)
}

type mockInvitationRepo struct {
	domain.InvitationRepository
	GetByIDFn            func(ctx context.Context, id uuid.UUID) (*domain.Invitation, error)
	GetByTokenFn         func(ctx context.Context, token string) (*domain.Invitation, error)
	ListByInviteeEmailFn func(ctx context.Context, email string) ([]*domain.Invitation, error)
	CreateFn             func(ctx context.Context, inv *domain.Invitation) (*domain.Invitation, error)
	UpdateStatusFn       func(ctx context.Context, id uuid.UUID, status domain.InvitationStatus) error
}

func (m *mockInvitationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invitation, error) {
	return m.GetByIDFn(ctx, id)
}

func (m *mockInvitationRepo) GetByToken(ctx context.Context, token string) (*domain.Invitation, error) {
	return m.GetByTokenFn(ctx, token)
}

func (m *mockInvitationRepo) ListByInviteeEmail(ctx context.Context, email string) ([]*domain.Invitation, error) {
	return m.ListByInviteeEmailFn(ctx, email)
}

func (m *mockInvitationRepo) Create(ctx context.Context, inv *domain.Invitation) (*domain.Invitation, error) {
	return m.CreateFn(ctx, inv)
}

func (m *mockInvitationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.InvitationStatus) error {
	return m.UpdateStatusFn(ctx, id, status)
}

type mockTrainingPlanRepo struct {
	domain.TrainingPlanRepository
	GetByIDFn      func(ctx context.Context, id uuid.UUID) (*domain.TrainingPlan, error)
	CreateFn       func(ctx context.Context, p *domain.TrainingPlan) (*domain.TrainingPlan, error)
	UpdateStatusFn func(ctx context.Context, id uuid.UUID, status domain.PlanStatus) error
}

func (m *mockTrainingPlanRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.TrainingPlan, error) {
	return m.GetByIDFn(ctx, id)
}

func (m *mockTrainingPlanRepo) Create(ctx context.Context, p *domain.TrainingPlan) (*domain.TrainingPlan, error) {
	return m.CreateFn(ctx, p)
}

func (m *mockTrainingPlanRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.PlanStatus) error {
	return m.UpdateStatusFn(ctx, id, status)
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
	CreateFn func(ctx context.Context, conversationID, senderID uuid.UUID, body string) (*domain.Message, error)
}

func (m *mockMessageRepo) Create(ctx context.Context, conversationID, senderID uuid.UUID, body string) (*domain.Message, error) {
	return m.CreateFn(ctx, conversationID, senderID, body)
}

type mockRaceRepo struct {
	domain.RaceRepository
	CreateFn        func(ctx context.Context, r *domain.Race) (*domain.Race, error)
	ListByAthleteFn func(ctx context.Context, athleteID uuid.UUID) ([]*domain.Race, error)
}

func (m *mockRaceRepo) Create(ctx context.Context, r *domain.Race) (*domain.Race, error) {
	return m.CreateFn(ctx, r)
}

func (m *mockRaceRepo) ListByAthlete(ctx context.Context, athleteID uuid.UUID) ([]*domain.Race, error) {
	return m.ListByAthleteFn(ctx, athleteID)
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

func coachUser() *domain.User {
	return &domain.User{ID: uuid.New(), Email: "coach@example.com", DisplayName: "Coach", Role: domain.RoleCoach}
}

func athleteUser() *domain.User {
	return &domain.User{ID: uuid.New(), Email: "athlete@example.com", DisplayName: "Athlete", Role: domain.RoleAthlete}
}
