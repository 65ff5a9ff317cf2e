package server

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
	apperrors "github.com/shanebarringer/ultracoach-sub001/internal/errors"
)

const (
	defaultMessagePageSize = 50
	maxMessagePageSize     = 200
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Session cookie is SameSite=Lax; the browser already refuses to
		// attach it to cross-site websocket upgrades.
		return true
	},
}

type messageResponse struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	Body           string    `json:"body"`
	ClientRef      string    `json:"client_ref,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func toMessageResponse(m *domain.Message, clientRef string) messageResponse {
	return messageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Body:           m.Body,
		ClientRef:      clientRef,
		CreatedAt:      m.CreatedAt,
	}
}

type conversationSummaryResponse struct {
	ID        uuid.UUID        `json:"id"`
	Peer      userResponse     `json:"peer"`
	Latest    *messageResponse `json:"latest_message,omitempty"`
	Unread    int              `json:"unread"`
	CreatedAt time.Time        `json:"created_at"`
}

func (s *Server) handleListConversations(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	summaries, err := s.app.ListConversations(c.Request().Context(), user)
	if err != nil {
		return mapDomainErr(err, "failed to list conversations")
	}

	resp := make([]conversationSummaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		item := conversationSummaryResponse{
			ID:        summary.Conversation.ID,
			Peer:      toUserResponse(summary.Peer),
			Unread:    summary.Unread,
			CreatedAt: summary.Conversation.CreatedAt,
		}
		if summary.Latest != nil {
			latest := toMessageResponse(summary.Latest, "")
			item.Latest = &latest
		}
		resp = append(resp, item)
	}
	return c.JSON(200, resp)
}

func (s *Server) handleListMessages(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	conversationID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var before time.Time
	if raw := c.QueryParam("before"); raw != "" {
		before, err = time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return apperrors.ValidationError("invalid before cursor")
		}
	}

	limit := defaultMessagePageSize
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return apperrors.ValidationError("invalid limit")
		}
		if limit > maxMessagePageSize {
			limit = maxMessagePageSize
		}
	}

	messages, err := s.app.ListMessages(c.Request().Context(), user, conversationID, before, limit)
	if err != nil {
		return mapDomainErr(err, "failed to list messages")
	}

	resp := make([]messageResponse, 0, len(messages))
	for _, m := range messages {
		resp = append(resp, toMessageResponse(m, ""))
	}
	return c.JSON(200, resp)
}

type sendMessageRequest struct {
	Body      string `json:"body"`
	ClientRef string `json:"client_ref"`
}

func (s *Server) handleSendMessage(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	conversationID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if strings.TrimSpace(req.Body) == "" {
		return apperrors.ValidationError("message body is required")
	}

	message, err := s.app.SendMessage(c.Request().Context(), user, conversationID, req.Body, req.ClientRef)
	if err != nil {
		return mapDomainErr(err, "failed to send message")
	}
	return c.JSON(201, toMessageResponse(message, req.ClientRef))
}

func (s *Server) handleMarkConversationRead(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	conversationID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	if err := s.app.MarkConversationRead(c.Request().Context(), user, conversationID); err != nil {
		return mapDomainErr(err, "failed to mark conversation read")
	}
	return c.JSON(200, map[string]string{"status": "ok"})
}

// handleConversationSocket upgrades to a websocket and streams the
// conversation's message events until the client disconnects.
func (s *Server) handleConversationSocket(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	conversationID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}

	// Membership check happens before the upgrade so the client gets a
	// proper HTTP error instead of a dropped socket.
	if _, err := s.app.GetConversation(c.Request().Context(), user, conversationID); err != nil {
		return mapDomainErr(err, "failed to load conversation")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Warn("Websocket upgrade failed",
			"conversation_id", conversationID.String(), "error", err)
		return nil
	}

	if err := s.hub.Register(conversationID, conn); err != nil {
		slog.Warn("Websocket register rejected",
			"conversation_id", conversationID.String(), "error", err)
		// Hub already closed the connection.
		return nil
	}

	// Read pump: the client sends nothing meaningful, but reading keeps
	// pong handling alive and detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.hub.Unregister(conversationID, conn)
	return nil
}
