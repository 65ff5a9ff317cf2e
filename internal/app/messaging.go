package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
	"github.com/shanebarringer/ultracoach-sub001/internal/metrics"
	"github.com/shanebarringer/ultracoach-sub001/internal/redis"
)

const maxMessageLength = 4000

// ConversationSummary is one row of the conversation list: the conversation,
// who the peer is, the latest message, and the unread count.
type ConversationSummary struct {
	Conversation *domain.Conversation
	Peer         *domain.User
	Latest       *domain.Message
	Unread       int
}

// ListConversations returns the actor's conversations, newest activity first
// already being the repository order.
func (s *Service) ListConversations(ctx context.Context, actor *domain.User) ([]ConversationSummary, error) {
	conversations, err := s.conversations.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if len(conversations) == 0 {
		return []ConversationSummary{}, nil
	}

	ids := make([]uuid.UUID, len(conversations))
	for i, c := range conversations {
		ids[i] = c.ID
	}
	latest, err := s.messages.LatestPerConversation(ctx, ids)
	if err != nil {
		return nil, err
	}

	var unread map[uuid.UUID]int
	if s.unread != nil {
		unread, err = s.unread.Counts(ctx, actor.ID)
		if err != nil {
			slog.Warn("Failed to load unread counts", "user_id", actor.ID, "error", err)
		}
	}

	summaries := make([]ConversationSummary, 0, len(conversations))
	for _, conv := range conversations {
		peer, err := s.users.GetByID(ctx, conv.Peer(actor.ID))
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, ConversationSummary{
			Conversation: conv,
			Peer:         peer,
			Latest:       latest[conv.ID],
			Unread:       unread[conv.ID],
		})
	}
	return summaries, nil
}

// GetConversation returns a conversation the actor belongs to.
func (s *Service) GetConversation(ctx context.Context, actor *domain.User, id uuid.UUID) (*domain.Conversation, error) {
	conv, err := s.conversations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !conv.Member(actor.ID) {
		return nil, domain.ErrNotConversationPeer
	}
	return conv, nil
}

// ListMessages pages through a conversation's history, newest first.
func (s *Service) ListMessages(ctx context.Context, actor *domain.User, conversationID uuid.UUID, before time.Time, limit int) ([]*domain.Message, error) {
	if _, err := s.GetConversation(ctx, actor, conversationID); err != nil {
		return nil, err
	}
	return s.messages.List(ctx, conversationID, before, limit)
}

// SendMessage persists a message, bumps the peer's unread counter, and
// publishes the event for websocket fanout. clientRef is echoed back so the
// sender can reconcile an optimistic placeholder. Sending requires the
// backing relationship to still be active; history stays readable after it
// ends, but no new messages may be added.
func (s *Service) SendMessage(ctx context.Context, actor *domain.User, conversationID uuid.UUID, body, clientRef string) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("%w: message body is required", domain.ErrInvalidInput)
	}
	if len(body) > maxMessageLength {
		return nil, fmt.Errorf("%w: message exceeds %d characters", domain.ErrInvalidInput, maxMessageLength)
	}

	conv, err := s.GetConversation(ctx, actor, conversationID)
	if err != nil {
		return nil, err
	}

	relationship, err := s.relationships.GetByID(ctx, conv.RelationshipID)
	if err != nil {
		return nil, err
	}
	if relationship.Status != domain.RelationshipActive {
		return nil, domain.ErrRelationshipEnded
	}

	message, err := s.messages.Create(ctx, conversationID, actor.ID, body)
	if err != nil {
		return nil, err
	}
	metrics.MessagesSent.Inc()

	peerID := conv.Peer(actor.ID)
	if s.unread != nil {
		if err := s.unread.Increment(ctx, peerID, conversationID); err != nil {
			slog.Warn("Failed to increment unread counter",
				"conversation_id", conversationID, "error", err)
		}
	}

	if s.publisher != nil {
		event := redis.MessageEvent{
			MessageID:      message.ID,
			ConversationID: conversationID,
			SenderID:       actor.ID,
			SenderName:     actor.DisplayName,
			Body:           message.Body,
			CreatedAt:      message.CreatedAt,
			ClientRef:      clientRef,
		}
		if err := s.publisher.PublishMessage(ctx, event); err != nil {
			slog.Warn("Failed to publish message event",
				"conversation_id", conversationID, "error", err)
		}
	}

	if _, err := s.notifications.Create(ctx, peerID, domain.NotificationMessage, map[string]any{
		"conversation_id": conversationID.String(),
		"sender":          actor.DisplayName,
	}); err != nil {
		slog.Warn("Failed to create message notification", "error", err)
	}

	return message, nil
}

// MarkConversationRead clears the actor's unread counter for a conversation.
func (s *Service) MarkConversationRead(ctx context.Context, actor *domain.User, conversationID uuid.UUID) error {
	if _, err := s.GetConversation(ctx, actor, conversationID); err != nil {
		return err
	}
	if s.unread == nil {
		return nil
	}
	return s.unread.Reset(ctx, actor.ID, conversationID)
}
