package server

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/shanebarringer/ultracoach-sub001/internal/errors"
)

func (s *Server) registerRoutes() {
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	s.echo.Use(apperrors.Middleware())
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		HSTSMaxAge:         63072000, // 2 years; only sent over HTTPS
		HSTSPreloadEnabled: true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}))

	csrf := s.setupCSRFMiddleware()
	loginLimiter := newRateLimiter(1, 5)
	importLimiter := newRateLimiter(0.5, 3)

	// Observability endpoints, no auth
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Auth
	s.echo.POST("/auth/register", s.handleRegister, loginLimiter)
	s.echo.POST("/auth/login", s.handleLogin, loginLimiter)
	s.echo.POST("/auth/logout", s.handleLogout, s.requireAuth, csrf)
	s.echo.GET("/api/session", s.handleSession, s.requireAuth)

	api := s.echo.Group("/api", s.requireAuth, csrf)

	api.GET("/dashboard", s.handleDashboard)

	api.GET("/workouts", s.handleListWorkouts)
	api.POST("/workouts", s.handleCreateWorkout)
	api.GET("/workouts/:id", s.handleGetWorkout)
	api.PUT("/workouts/:id", s.handleUpdateWorkout)
	api.DELETE("/workouts/:id", s.handleDeleteWorkout)
	api.POST("/workouts/:id/complete", s.handleCompleteWorkout)
	api.POST("/workouts/:id/skip", s.handleSkipWorkout)

	api.GET("/training-plans", s.handleListPlans)
	api.POST("/training-plans", s.handleCreatePlan)
	api.GET("/training-plans/:id", s.handleGetPlan)
	api.PUT("/training-plans/:id", s.handleUpdatePlan)
	api.DELETE("/training-plans/:id", s.handleDeletePlan)
	api.POST("/training-plans/:id/activate", s.handleActivatePlan)
	api.POST("/training-plans/:id/archive", s.handleArchivePlan)

	api.GET("/conversations", s.handleListConversations)
	api.GET("/conversations/:id/messages", s.handleListMessages)
	api.POST("/conversations/:id/messages", s.handleSendMessage)
	api.POST("/conversations/:id/read", s.handleMarkConversationRead)

	api.GET("/invitations", s.handleListInvitations)
	api.POST("/invitations", s.handleCreateInvitation)
	api.POST("/invitations/accept", s.handleAcceptInvitationByToken)
	api.POST("/invitations/:id/accept", s.handleAcceptInvitation)
	api.POST("/invitations/:id/decline", s.handleDeclineInvitation)
	api.POST("/invitations/:id/cancel", s.handleCancelInvitation)

	api.GET("/relationships", s.handleListRelationships)
	api.POST("/relationships/:id/end", s.handleEndRelationship)

	api.GET("/races", s.handleListRaces)
	api.POST("/races", s.handleCreateRace)
	api.DELETE("/races/:id", s.handleDeleteRace)
	api.POST("/races/import", s.handleImportRaces, importLimiter)

	api.GET("/notifications", s.handleListNotifications)
	api.POST("/notifications/:id/read", s.handleMarkNotificationRead)
	api.POST("/notifications/read-all", s.handleMarkAllNotificationsRead)

	api.GET("/settings", s.handleGetSettings)
	api.PUT("/settings", s.handleUpdateSettings)

	api.GET("/integrations", s.handleListIntegrations)
	api.GET("/integrations/:provider/connect", s.handleIntegrationConnect)
	api.DELETE("/integrations/:provider", s.handleIntegrationDisconnect)

	// Provider redirects here without a CSRF token; the HMAC-signed state
	// carries the authenticity proof instead.
	s.echo.GET("/integrations/callback", s.handleIntegrationCallback)

	// Websocket live updates; auth via session, no CSRF on GET upgrade.
	s.echo.GET("/ws/conversations/:id", s.handleConversationSocket, s.requireAuth)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.Info("Request", attrs...)
			return nil
		},
	})
}

func (s *Server) setupCSRFMiddleware() echo.MiddlewareFunc {
	secure := s.config.AppEnv == "production"
	maxAge := int(s.config.SessionMaxAge.Seconds())

	return middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "form:csrf_token,header:X-CSRF-Token",
		CookieName:     "csrf_token",
		CookiePath:     "/",
		CookieMaxAge:   maxAge,
		CookieHTTPOnly: true,
		CookieSecure:   secure,
		CookieSameSite: http.SameSiteStrictMode,
	})
}
