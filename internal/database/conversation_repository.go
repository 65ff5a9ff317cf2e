package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
)

const conversationColumns = `id, relationship_id, coach_id, athlete_id, created_at`

type ConversationRepo struct {
	db *pgxpool.Pool
}

func NewConversationRepo(db *pgxpool.Pool) *ConversationRepo {
	return &ConversationRepo{db: db}
}

func scanConversation(row pgx.Row) (*domain.Conversation, error) {
	var c domain.Conversation
	err := row.Scan(&c.ID, &c.RelationshipID, &c.CoachID, &c.AthleteID, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrConversationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan conversation: %w", err)
	}
	return &c, nil
}

func (r *ConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	return scanConversation(r.db.QueryRow(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id))
}

func (r *ConversationRepo) GetByRelationship(ctx context.Context, relationshipID uuid.UUID) (*domain.Conversation, error) {
	return scanConversation(r.db.QueryRow(ctx,
		`SELECT `+conversationColumns+` FROM conversations WHERE relationship_id = $1`, relationshipID))
}

func (r *ConversationRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Conversation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+conversationColumns+`
		FROM conversations
		WHERE coach_id = $1 OR athlete_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var convs []*domain.Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		convs = append(convs, c)
	}
	return convs, rows.Err()
}

func (r *ConversationRepo) Create(ctx context.Context, relationshipID, coachID, athleteID uuid.UUID) (*domain.Conversation, error) {
	return scanConversation(r.db.QueryRow(ctx, `
		INSERT INTO conversations (relationship_id, coach_id, athlete_id, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING `+conversationColumns+`
	`, relationshipID, coachID, athleteID))
}

// --- Messages ---

const messageColumns = `id, conversation_id, sender_id, body, created_at`

type MessageRepo struct {
	db *pgxpool.Pool
}

func NewMessageRepo(db *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{db: db}
}

func scanMessage(row pgx.Row) (*domain.Message, error) {
	var m domain.Message
	err := row.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Body, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan message: %w", err)
	}
	return &m, nil
}

func (r *MessageRepo) List(ctx context.Context, conversationID uuid.UUID, before time.Time, limit int) ([]*domain.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `SELECT ` + messageColumns + ` FROM messages WHERE conversation_id = $1`
	args := []any{conversationID}
	if !before.IsZero() {
		query += ` AND created_at < $2`
		args = append(args, before)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var msgs []*domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *MessageRepo) Create(ctx context.Context, conversationID, senderID uuid.UUID, body string) (*domain.Message, error) {
	return scanMessage(r.db.QueryRow(ctx, `
		INSERT INTO messages (conversation_id, sender_id, body, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING `+messageColumns+`
	`, conversationID, senderID, body))
}

func (r *MessageRepo) LatestPerConversation(ctx context.Context, conversationIDs []uuid.UUID) (map[uuid.UUID]*domain.Message, error) {
	if len(conversationIDs) == 0 {
		return map[uuid.UUID]*domain.Message{}, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT ON (conversation_id) `+messageColumns+`
		FROM messages
		WHERE conversation_id = ANY($1)
		ORDER BY conversation_id, created_at DESC
	`, conversationIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest messages: %w", err)
	}
	defer rows.Close()

	latest := make(map[uuid.UUID]*domain.Message, len(conversationIDs))
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		latest[m.ConversationID] = m
	}
	return latest, rows.Err()
}
