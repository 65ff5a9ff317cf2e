package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
	apperrors "github.com/shanebarringer/ultracoach-sub001/internal/errors"
)

type userResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt,
	}
}

// requireAuth resolves the session cookie to a user and puts it on the
// context. JSON 401 on any failure; this is an API, not a browser flow.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session, err := s.sessionStore.Get(c.Request(), sessionName)
		if err != nil {
			return apperrors.UnauthorizedError("invalid session")
		}

		raw, ok := session.Values[sessionKeyUser].(string)
		if !ok {
			return apperrors.UnauthorizedError("not logged in")
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			return apperrors.UnauthorizedError("invalid session")
		}

		user, err := s.app.GetUserByID(c.Request().Context(), userID)
		if err != nil {
			return apperrors.UnauthorizedError("unknown user")
		}

		c.Set("userID", user.ID)
		c.Set("user", user)
		return next(c)
	}
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
}

func (s *Server) handleRegister(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.ValidationError("email and password are required")
	}
	if len(req.Password) < 8 {
		return apperrors.ValidationError("password must be at least 8 characters")
	}
	role := domain.Role(req.Role)
	if role != domain.RoleCoach && role != domain.RoleAthlete {
		return apperrors.ValidationError("role must be coach or athlete")
	}

	user, err := s.app.Register(c.Request().Context(), req.Email, req.Password, req.DisplayName, role)
	if err != nil {
		return mapDomainErr(err, "failed to register user")
	}

	if err := s.saveUserSession(c, user.ID); err != nil {
		return err
	}
	return c.JSON(201, toUserResponse(user))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	user, err := s.app.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return mapDomainErr(err, "failed to log in")
	}

	if err := s.saveUserSession(c, user.ID); err != nil {
		return err
	}
	return c.JSON(200, toUserResponse(user))
}

func (s *Server) handleLogout(c echo.Context) error {
	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		slog.Warn("Failed to get session during logout", "error", err)
		session, err = s.sessionStore.New(c.Request(), sessionName)
		if err != nil {
			return apperrors.InternalError("failed to create session", err)
		}
	}
	session.Options.MaxAge = -1

	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to clear session", err)
	}
	return c.JSON(200, map[string]string{"status": "ok"})
}

func (s *Server) handleSession(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(200, toUserResponse(user))
}

func (s *Server) saveUserSession(c echo.Context, userID uuid.UUID) error {
	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		slog.Warn("Failed to get session, creating fresh", "error", err)
		session, err = s.sessionStore.New(c.Request(), sessionName)
		if err != nil {
			return apperrors.InternalError("failed to create session", err)
		}
	}

	session.Values[sessionKeyUser] = userID.String()
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to save session", fmt.Errorf("session save: %w", err))
	}
	return nil
}
