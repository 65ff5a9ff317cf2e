package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shanebarringer/ultracoach-sub001/internal/app"
	"github.com/shanebarringer/ultracoach-sub001/internal/crypto"
	"github.com/shanebarringer/ultracoach-sub001/internal/domain"
	"github.com/shanebarringer/ultracoach-sub001/internal/integration"
)

type stubProvider struct {
	integration.ProviderClient
	AuthorizeURLFn func(state string) string
}

func (s *stubProvider) AuthorizeURL(state string) string {
	return s.AuthorizeURLFn(state)
}

func TestHandleIntegrationConnect_Success(t *testing.T) {
	user := athleteUser()
	provider := &stubProvider{
		AuthorizeURLFn: func(state string) string {
			return "https://provider.example/authorize?state=" + state
		},
	}
	srv := newTestServer(t, app.Deps{
		Provider:     provider,
		ProviderName: "strava",
		Signer:       crypto.NewStateSigner("test-signing-key-16"),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/integrations/strava/connect", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.Set("user", user)
	c.SetParamNames("provider")
	c.SetParamValues("strava")

	err := callHandler(srv.handleIntegrationConnect, c)

	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://provider.example/authorize?state=")
}

func TestHandleIntegrationConnect_UnknownProvider(t *testing.T) {
	srv := newTestServer(t, app.Deps{
		Provider:     &stubProvider{},
		ProviderName: "strava",
		Signer:       crypto.NewStateSigner("test-signing-key-16"),
	})

	req := httptest.NewRequest(http.MethodGet, "/api/integrations/garmin/connect", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.Set("user", athleteUser())
	c.SetParamNames("provider")
	c.SetParamValues("garmin")

	err := callHandler(srv.handleIntegrationConnect, c)

	require.NoError(t, err)
	assert.Equal(t, 404, rec.Code)
}

func TestHandleIntegrationCallback_BadState(t *testing.T) {
	srv := newTestServer(t, app.Deps{
		Provider:     &stubProvider{},
		ProviderName: "strava",
		Signer:       crypto.NewStateSigner("test-signing-key-16"),
	})

	req := httptest.NewRequest(http.MethodGet,
		"/integrations/callback?state=tampered&code=abc", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	err := callHandler(srv.handleIntegrationCallback, c)

	require.NoError(t, err)
	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid oauth state")
}

func TestHandleIntegrationCallback_MissingParams(t *testing.T) {
	srv := newTestServer(t, app.Deps{})

	req := httptest.NewRequest(http.MethodGet, "/integrations/callback", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)

	err := callHandler(srv.handleIntegrationCallback, c)

	require.NoError(t, err)
	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), "state and code are required")
}

func TestHandleListNotifications(t *testing.T) {
	user := athleteUser()
	notifications := &notificationListRepo{
		ListByUserFn: func(_ context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*domain.Notification, error) {
			require.Equal(t, user.ID, userID)
			require.True(t, unreadOnly)
			require.Equal(t, 10, limit)
			return []*domain.Notification{
				{ID: uuid.New(), UserID: userID, Kind: domain.NotificationMessage,
					Payload: map[string]any{"sender": "Coach"}, CreatedAt: time.Now()},
			}, nil
		},
	}
	srv := newTestServer(t, app.Deps{Notifications: notifications})

	req := httptest.NewRequest(http.MethodGet, "/api/notifications?unread=true&limit=10", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.Set("user", user)

	err := callHandler(srv.handleListNotifications, c)

	require.NoError(t, err)
	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"message"`)
	assert.Contains(t, rec.Body.String(), `"read":false`)
}

func TestHandleListNotifications_BadLimit(t *testing.T) {
	srv := newTestServer(t, app.Deps{})

	req := httptest.NewRequest(http.MethodGet, "/api/notifications?limit=0", nil)
	rec := httptest.NewRecorder()
	c := srv.echo.NewContext(req, rec)
	c.Set("user", athleteUser())

	err := callHandler(srv.handleListNotifications, c)

	require.NoError(t, err)
	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), "limit must be between 1 and 200")
}

type notificationListRepo struct {
	domain.NotificationRepository
	ListByUserFn func(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*domain.Notification, error)
}

func (m *notificationListRepo) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]*domain.Notification, error) {
	return m.ListByUserFn(ctx, userID, unreadOnly, limit)
}
