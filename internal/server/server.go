package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"

	"github.com/shanebarringer/ultracoach-sub001/internal/app"
	"github.com/shanebarringer/ultracoach-sub001/internal/broadcast"
	"github.com/shanebarringer/ultracoach-sub001/internal/config"
	"github.com/shanebarringer/ultracoach-sub001/internal/redis"
)

// Session keys
const (
	sessionName    = "ultracoach-session"
	sessionKeyUser = "user_id"
)

const maxClientsPerConversation = 32

// postgresHealthChecker is the minimal interface for PostgreSQL health checks.
type postgresHealthChecker interface {
	Ping(ctx context.Context) error
}

// redisHealthChecker is the minimal interface for Redis health checks.
type redisHealthChecker interface {
	Ping(ctx context.Context) error
}

// conversationSub is a live event stream for one conversation.
type conversationSub interface {
	Events() <-chan redis.MessageEvent
	Close()
}

// conversationSubscriber opens conversation event streams.
type conversationSubscriber interface {
	SubscribeConversation(ctx context.Context, conversationID uuid.UUID) conversationSub
}

// redisSubscriber adapts redis.PubSub to the conversationSubscriber seam.
type redisSubscriber struct {
	pubsub *redis.PubSub
}

func (r redisSubscriber) SubscribeConversation(ctx context.Context, conversationID uuid.UUID) conversationSub {
	return r.pubsub.SubscribeConversation(ctx, conversationID)
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	app        *app.Service
	hub        *broadcast.Hub
	subscriber conversationSubscriber

	sessionStore *sessions.CookieStore
	startTime    time.Time

	postgresHealth postgresHealthChecker
	redisHealth    redisHealthChecker

	// One Redis subscription per conversation with local websocket clients,
	// opened on first client and closed when the last one leaves.
	subsMu sync.Mutex
	subs   map[uuid.UUID]conversationSub
}

func NewServer(cfg *config.Config, appSvc *app.Service, pubsub *redis.PubSub, postgresHealth postgresHealthChecker, redisHealth redisHealthChecker, clock clockwork.Clock) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:           e,
		config:         cfg,
		app:            appSvc,
		sessionStore:   setupSessionStore(cfg),
		startTime:      time.Now(),
		postgresHealth: postgresHealth,
		redisHealth:    redisHealth,
		subs:           make(map[uuid.UUID]conversationSub),
	}
	if pubsub != nil {
		srv.subscriber = redisSubscriber{pubsub: pubsub}
	}

	srv.hub = broadcast.NewHub(srv.onFirstClient, srv.onConversationEmpty, clock, maxClientsPerConversation)
	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Stop()
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// onFirstClient opens the Redis subscription for a conversation and pumps its
// events into the hub. Runs on the first local websocket client. The hub calls
// it from a detached goroutine, so the triggering client may already be gone
// by the time the subscription is stored; the count re-check below closes the
// subscription in that case instead of leaking it.
func (s *Server) onFirstClient(conversationID uuid.UUID) {
	if s.subscriber == nil {
		return
	}

	sub := s.subscriber.SubscribeConversation(context.Background(), conversationID)

	s.subsMu.Lock()
	if _, exists := s.subs[conversationID]; exists {
		s.subsMu.Unlock()
		sub.Close()
		return
	}
	s.subs[conversationID] = sub
	s.subsMu.Unlock()

	go func() {
		for event := range sub.Events() {
			if err := s.hub.Broadcast(conversationID, event); err != nil {
				slog.Warn("Failed to broadcast message event",
					"conversation_id", conversationID.String(), "error", err)
			}
		}
	}()

	if s.hub.ClientCount(conversationID) == 0 {
		s.closeSub(conversationID, sub)
	}
}

// closeSub removes and closes the conversation's subscription, but only if it
// is still the one we stored. Owning the map entry makes Close exactly-once.
func (s *Server) closeSub(conversationID uuid.UUID, sub conversationSub) {
	s.subsMu.Lock()
	if s.subs[conversationID] != sub {
		s.subsMu.Unlock()
		return
	}
	delete(s.subs, conversationID)
	s.subsMu.Unlock()
	sub.Close()
}

// onConversationEmpty closes the Redis subscription once the last local
// websocket client of a conversation is gone.
func (s *Server) onConversationEmpty(conversationID uuid.UUID) {
	s.subsMu.Lock()
	sub, exists := s.subs[conversationID]
	delete(s.subs, conversationID)
	s.subsMu.Unlock()

	if exists {
		sub.Close()
	}
}

func setupSessionStore(cfg *config.Config) *sessions.CookieStore {
	sessionStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	sessionStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.SessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}
	return sessionStore
}
