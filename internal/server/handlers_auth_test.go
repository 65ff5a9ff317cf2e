package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/shanebarringer/ultracoach-sub001/internal/app"
	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
)

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestHandleRegister_Success(t *testing.T) {
	var gotEmail string
	users := &mockUserRepo{
		CreateFn: func(_ context.Context, email, passwordHash, displayName string, role domain.Role) (*domain.User, error) {
			gotEmail = email
			require.NoError(t, bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte("hunter2hunter2")))
			return &domain.User{ID: uuid.New(), Email: email, DisplayName: displayName, Role: role}, nil
		},
	}
	srv := newTestServer(t, app.Deps{Users: users})

	req := jsonRequest(http.MethodPost, "/auth/register",
		`{"email":"New@Example.com","password":"hunter2hunter2","display_name":"New Coach","role":"coach"}`)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	err := callHandler(srv.handleRegister, c)

	require.NoError(t, err)
	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, "new@example.com", gotEmail)
	assert.Contains(t, rec.Body.String(), `"role":"coach"`)
	assert.Contains(t, rec.Header().Get("Set-Cookie"), sessionName)
}

func TestHandleRegister_ShortPassword(t *testing.T) {
	srv := newTestServer(t, app.Deps{})

	req := jsonRequest(http.MethodPost, "/auth/register",
		`{"email":"a@b.com","password":"short","role":"athlete"}`)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	err := callHandler(srv.handleRegister, c)

	require.NoError(t, err)
	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), "at least 8 characters")
}

func TestHandleRegister_BadRole(t *testing.T) {
	srv := newTestServer(t, app.Deps{})

	req := jsonRequest(http.MethodPost, "/auth/register",
		`{"email":"a@b.com","password":"hunter2hunter2","role":"admin"}`)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	err := callHandler(srv.handleRegister, c)

	require.NoError(t, err)
	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), "coach or athlete")
}

func TestHandleLogin_Success(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	user := athleteUser()
	user.PasswordHash = string(hash)
	users := &mockUserRepo{
		GetByEmailFn: func(_ context.Context, email string) (*domain.User, error) {
			if email != user.Email {
				return nil, domain.ErrUserNotFound
			}
			return user, nil
		},
	}
	srv := newTestServer(t, app.Deps{Users: users})

	req := jsonRequest(http.MethodPost, "/auth/login",
		`{"email":"athlete@example.com","password":"correct horse"}`)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	err = callHandler(srv.handleLogin, c)

	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), user.ID.String())
	assert.Contains(t, rec.Header().Get("Set-Cookie"), sessionName)
}

func TestHandleLogin_WrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	user := athleteUser()
	user.PasswordHash = string(hash)
	users := &mockUserRepo{
		GetByEmailFn: func(_ context.Context, _ string) (*domain.User, error) {
			return user, nil
		},
	}
	srv := newTestServer(t, app.Deps{Users: users})

	req := jsonRequest(http.MethodPost, "/auth/login",
		`{"email":"athlete@example.com","password":"wrong"}`)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	err = callHandler(srv.handleLogin, c)

	require.NoError(t, err)
	assert.Equal(t, 401, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")
}

func TestHandleLogin_UnknownEmail(t *testing.T) {
	users := &mockUserRepo{
		GetByEmailFn: func(_ context.Context, _ string) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
	}
	srv := newTestServer(t, app.Deps{Users: users})

	req := jsonRequest(http.MethodPost, "/auth/login",
		`{"email":"ghost@example.com","password":"whatever"}`)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	err := callHandler(srv.handleLogin, c)

	require.NoError(t, err)
	assert.Equal(t, 401, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")
}

func TestRequireAuth_NoSession(t *testing.T) {
	srv := newTestServer(t, app.Deps{})

	req := httptest.NewRequest(http.MethodGet, "/api/workouts", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	handler := srv.requireAuth(func(c echo.Context) error {
		return c.String(200, "ok")
	})
	err := callHandler(handler, c)

	require.NoError(t, err)
	assert.Equal(t, 401, rec.Code)
	assert.Contains(t, rec.Body.String(), "not logged in")
}

func TestRequireAuth_ValidSession(t *testing.T) {
	user := coachUser()
	users := &mockUserRepo{
		GetByIDFn: func(_ context.Context, userID uuid.UUID) (*domain.User, error) {
			require.Equal(t, user.ID, userID)
			return user, nil
		},
	}
	srv := newTestServer(t, app.Deps{Users: users})

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	rec := httptest.NewRecorder()
	setSessionUserID(t, srv, req, rec, user.ID)
	c := srv.echo.NewContext(req, rec)

	var got *domain.User
	handler := srv.requireAuth(func(c echo.Context) error {
		got = c.Get("user").(*domain.User)
		return c.String(200, "ok")
	})
	err := callHandler(handler, c)

	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, user.ID, got.ID)
}

func TestRequireAuth_UnknownUser(t *testing.T) {
	users := &mockUserRepo{
		GetByIDFn: func(_ context.Context, _ uuid.UUID) (*domain.User, error) {
			return nil, domain.ErrUserNotFound
		},
	}
	srv := newTestServer(t, app.Deps{Users: users})

	req := httptest.NewRequest(http.MethodGet, "/api/session", nil)
	rec := httptest.NewRecorder()
	setSessionUserID(t, srv, req, rec, uuid.New())
	c := srv.echo.NewContext(req, rec)

	handler := srv.requireAuth(func(c echo.Context) error {
		return c.String(200, "ok")
	})
	err := callHandler(handler, c)

	require.NoError(t, err)
	assert.Equal(t, 401, rec.Code)
	assert.Contains(t, rec.Body.String(), "unknown user")
}

func TestHandleLogout(t *testing.T) {
	srv := newTestServer(t, app.Deps{})

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	rec := httptest.NewRecorder()
	setSessionUserID(t, srv, req, rec, uuid.New())
	c := srv.echo.NewContext(req, rec)

	err := callHandler(srv.handleLogout, c)

	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	cookies := rec.Result().Cookies()
	cleared := false
	for _, cookie := range cookies {
		if cookie.Name == sessionName && cookie.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "session cookie should be expired")
}
