package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// UnreadStore keeps per-user unread message counters in a Redis hash,
// one hash per user keyed by conversation ID. Counters are advisory:
// losing them degrades badges, never messages.
type UnreadStore struct {
	rdb *goredis.Client
}

func NewUnreadStore(client *Client) *UnreadStore {
	return &UnreadStore{rdb: client.rdb}
}

func unreadKey(userID uuid.UUID) string {
	return "unread:" + userID.String()
}

// Increment bumps the unread counter for one conversation of one user.
func (s *UnreadStore) Increment(ctx context.Context, userID, conversationID uuid.UUID) error {
	if err := s.rdb.HIncrBy(ctx, unreadKey(userID), conversationID.String(), 1).Err(); err != nil {
		return fmt.Errorf("failed to increment unread counter: %w", err)
	}
	return nil
}

// Reset clears the unread counter for one conversation, typically when
// the user opens it.
func (s *UnreadStore) Reset(ctx context.Context, userID, conversationID uuid.UUID) error {
	if err := s.rdb.HDel(ctx, unreadKey(userID), conversationID.String()).Err(); err != nil {
		return fmt.Errorf("failed to reset unread counter: %w", err)
	}
	return nil
}

// Counts returns unread counts per conversation for a user.
func (s *UnreadStore) Counts(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error) {
	fields, err := s.rdb.HGetAll(ctx, unreadKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load unread counters: %w", err)
	}

	counts := make(map[uuid.UUID]int, len(fields))
	for field, raw := range fields {
		conversationID, err := uuid.Parse(field)
		if err != nil {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			continue
		}
		counts[conversationID] = n
	}
	return counts, nil
}

// Total returns the sum of unread counters across all conversations.
func (s *UnreadStore) Total(ctx context.Context, userID uuid.UUID) (int, error) {
	counts, err := s.Counts(ctx, userID)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	return total, nil
}
