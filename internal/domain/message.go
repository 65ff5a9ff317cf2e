package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Conversation links exactly one coach/athlete relationship to its message
// history. It is created together with the relationship.
type Conversation struct {
	ID             uuid.UUID
	RelationshipID uuid.UUID
	CoachID        uuid.UUID
	AthleteID      uuid.UUID
	CreatedAt      time.Time
}

// Member reports whether userID is one of the two conversation peers.
func (c *Conversation) Member(userID uuid.UUID) bool {
	return c.CoachID == userID || c.AthleteID == userID
}

// Peer returns the other member of the conversation.
func (c *Conversation) Peer(userID uuid.UUID) uuid.UUID {
	if c.CoachID == userID {
		return c.AthleteID
	}
	return c.CoachID
}

type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Body           string
	CreatedAt      time.Time
}

type ConversationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Conversation, error)
	GetByRelationship(ctx context.Context, relationshipID uuid.UUID) (*Conversation, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Conversation, error)
	Create(ctx context.Context, relationshipID, coachID, athleteID uuid.UUID) (*Conversation, error)
}

type MessageRepository interface {
	// List returns up to limit messages older than before (zero time means
	// newest), newest first. Cursor pagination for the chat history view.
	List(ctx context.Context, conversationID uuid.UUID, before time.Time, limit int) ([]*Message, error)
	Create(ctx context.Context, conversationID, senderID uuid.UUID, body string) (*Message, error)
	LatestPerConversation(ctx context.Context, conversationIDs []uuid.UUID) (map[uuid.UUID]*Message, error)
}
