package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// MessageEvent is the chat message published via Redis Pub/Sub so every
// server instance can fan it out to its own websocket clients.
type MessageEvent struct {
	MessageID      uuid.UUID `json:"message_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	SenderName     string    `json:"sender_name"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
	ClientRef      string    `json:"client_ref,omitempty"`
}

func conversationChannel(conversationID uuid.UUID) string {
	return "conversation:" + conversationID.String()
}

// PubSub provides cross-instance chat broadcast via Redis Pub/Sub.
type PubSub struct {
	rdb *goredis.Client
}

// NewPubSub creates a new PubSub instance.
func NewPubSub(client *Client) *PubSub {
	return &PubSub{rdb: client.rdb}
}

// PublishMessage publishes a chat message to its conversation channel.
func (ps *PubSub) PublishMessage(ctx context.Context, event MessageEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal message event: %w", err)
	}
	return ps.rdb.Publish(ctx, conversationChannel(event.ConversationID), data).Err()
}

// Subscription represents an active Pub/Sub subscription for a conversation.
type Subscription struct {
	sub    *goredis.PubSub
	Ch     <-chan MessageEvent
	cancel context.CancelFunc
}

// Events returns the channel of decoded message events. It is closed when the
// subscription is.
func (s *Subscription) Events() <-chan MessageEvent {
	return s.Ch
}

// Close unsubscribes and closes the subscription.
func (s *Subscription) Close() {
	s.cancel()
	_ = s.sub.Close()
}

// SubscribeConversation subscribes to chat messages for a conversation.
// Returns a Subscription with a channel that receives events.
// Call subscription.Close() when done.
func (ps *PubSub) SubscribeConversation(ctx context.Context, conversationID uuid.UUID) *Subscription {
	sub := ps.rdb.Subscribe(ctx, conversationChannel(conversationID))

	subCtx, cancel := context.WithCancel(ctx)
	ch := make(chan MessageEvent, 16)

	go func() {
		defer close(ch)
		msgCh := sub.Channel()
		for {
			select {
			case msg, ok := <-msgCh:
				if !ok {
					return
				}
				var event MessageEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					slog.Warn("Failed to unmarshal pubsub message", "error", err)
					continue
				}
				select {
				case ch <- event:
				default:
					// Drop if receiver is slow
				}
			case <-subCtx.Done():
				return
			}
		}
	}()

	return &Subscription{
		sub:    sub,
		Ch:     ch,
		cancel: cancel,
	}
}
