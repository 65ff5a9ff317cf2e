package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
	"github.com/shanebarringer/ultracoach-sub001/internal/redis"
)

func TestSendMessage(t *testing.T) {
	coach := coachUser()
	athlete := athleteUser()
	conversation := &domain.Conversation{
		ID:             uuid.New(),
		RelationshipID: uuid.New(),
		CoachID:        coach.ID,
		AthleteID:      athlete.ID,
	}

	var (
		persisted    string
		unreadUser   uuid.UUID
		published    *redis.MessageEvent
		notifiedUser uuid.UUID
	)

	messageID := uuid.New()
	svc := NewService(Deps{
		Conversations: &mockConversationRepo{
			GetByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.Conversation, error) {
				return conversation, nil
			},
		},
		Relationships: &mockRelationshipRepo{
			GetByIDFn: func(_ context.Context, id uuid.UUID) (*domain.Relationship, error) {
				assert.Equal(t, conversation.RelationshipID, id)
				return &domain.Relationship{ID: id, Status: domain.RelationshipActive}, nil
			},
		},
		Messages: &mockMessageRepo{
			CreateFn: func(_ context.Context, conversationID, senderID uuid.UUID, body string) (*domain.Message, error) {
				persisted = body
				return &domain.Message{
					ID: messageID, ConversationID: conversationID,
					SenderID: senderID, Body: body, CreatedAt: time.Now(),
				}, nil
			},
		},
		Unread: &mockUnread{
			IncrementFn: func(_ context.Context, userID, conversationID uuid.UUID) error {
				unreadUser = userID
				return nil
			},
		},
		Publisher: &mockPublisher{
			PublishMessageFn: func(_ context.Context, event redis.MessageEvent) error {
				published = &event
				return nil
			},
		},
		Notifications: &mockNotificationRepo{
			CreateFn: func(_ context.Context, userID uuid.UUID, kind domain.NotificationKind, _ map[string]any) (*domain.Notification, error) {
				assert.Equal(t, domain.NotificationMessage, kind)
				notifiedUser = userID
				return &domain.Notification{}, nil
			},
		},
		Clock: clockwork.NewFakeClock(),
	})

	msg, err := svc.SendMessage(context.Background(), coach, conversation.ID, "  How was the long run?  ", "tmp-42")
	require.NoError(t, err)

	assert.Equal(t, "How was the long run?", persisted)
	assert.Equal(t, messageID, msg.ID)

	// The unread bump and notification go to the peer, never the sender.
	assert.Equal(t, athlete.ID, unreadUser)
	assert.Equal(t, athlete.ID, notifiedUser)

	require.NotNil(t, published)
	assert.Equal(t, messageID, published.MessageID)
	assert.Equal(t, coach.ID, published.SenderID)
	assert.Equal(t, "tmp-42", published.ClientRef)
}

func TestSendMessage_Validation(t *testing.T) {
	coach := coachUser()
	svc := NewService(Deps{Clock: clockwork.NewFakeClock()})

	_, err := svc.SendMessage(context.Background(), coach, uuid.New(), "   ", "")
	assert.Error(t, err)

	_, err = svc.SendMessage(context.Background(), coach, uuid.New(), strings.Repeat("x", maxMessageLength+1), "")
	assert.Error(t, err)
}

func TestSendMessage_NonMemberRejected(t *testing.T) {
	stranger := athleteUser()
	conversation := &domain.Conversation{
		ID:        uuid.New(),
		CoachID:   uuid.New(),
		AthleteID: uuid.New(),
	}

	svc := NewService(Deps{
		Conversations: &mockConversationRepo{
			GetByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.Conversation, error) {
				return conversation, nil
			},
		},
		Clock: clockwork.NewFakeClock(),
	})

	_, err := svc.SendMessage(context.Background(), stranger, conversation.ID, "hello", "")
	assert.ErrorIs(t, err, domain.ErrNotConversationPeer)
}

func TestSendMessage_EndedRelationshipRejected(t *testing.T) {
	coach := coachUser()
	athlete := athleteUser()
	conversation := &domain.Conversation{
		ID:             uuid.New(),
		RelationshipID: uuid.New(),
		CoachID:        coach.ID,
		AthleteID:      athlete.ID,
	}

	svc := NewService(Deps{
		Conversations: &mockConversationRepo{
			GetByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.Conversation, error) {
				return conversation, nil
			},
		},
		Relationships: &mockRelationshipRepo{
			GetByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.Relationship, error) {
				return &domain.Relationship{
					ID:     conversation.RelationshipID,
					Status: domain.RelationshipEnded,
				}, nil
			},
		},
		Messages: &mockMessageRepo{
			CreateFn: func(_ context.Context, _, _ uuid.UUID, _ string) (*domain.Message, error) {
				t.Fatal("message must not be persisted after the relationship ends")
				return nil, nil
			},
		},
		Clock: clockwork.NewFakeClock(),
	})

	_, err := svc.SendMessage(context.Background(), coach, conversation.ID, "one more session?", "")
	assert.ErrorIs(t, err, domain.ErrRelationshipEnded)
}

func TestMarkConversationRead(t *testing.T) {
	athlete := athleteUser()
	conversation := &domain.Conversation{
		ID:        uuid.New(),
		CoachID:   uuid.New(),
		AthleteID: athlete.ID,
	}

	var resetFor uuid.UUID
	svc := NewService(Deps{
		Conversations: &mockConversationRepo{
			GetByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.Conversation, error) {
				return conversation, nil
			},
		},
		Unread: &mockUnread{
			ResetFn: func(_ context.Context, userID, _ uuid.UUID) error {
				resetFor = userID
				return nil
			},
		},
		Clock: clockwork.NewFakeClock(),
	})

	require.NoError(t, svc.MarkConversationRead(context.Background(), athlete, conversation.ID))
	assert.Equal(t, athlete.ID, resetFor)
}
