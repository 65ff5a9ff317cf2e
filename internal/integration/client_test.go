package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := NewHTTPClient(ClientConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		AuthURL:      server.URL + "/oauth/authorize",
		TokenURL:     server.URL + "/oauth/token",
		APIURL:       server.URL + "/api",
		RedirectURI:  "https://app.example.com/integrations/callback",
	})
	// Keep retries fast in tests.
	client.policy.InitialBackoff = time.Millisecond
	client.policy.RateLimitBackoff = time.Millisecond
	return client
}

func TestAuthorizeURL(t *testing.T) {
	client := testClient(t, nil)
	raw := client.AuthorizeURL("signed-state")

	parsed, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/oauth/authorize", parsed.Path)
	assert.Equal(t, "client-id", parsed.Query().Get("client_id"))
	assert.Equal(t, "code", parsed.Query().Get("response_type"))
	assert.Equal(t, "signed-state", parsed.Query().Get("state"))
}

func TestExchangeCode(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":21600,"athlete":{"id":4711}}`))
	})

	result, err := client.ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "at", result.AccessToken)
	assert.Equal(t, "rt", result.RefreshToken)
	assert.Equal(t, 21600, result.ExpiresIn)
	assert.Equal(t, "4711", result.ProviderUserID)
}

func TestExchangeCode_RetriesServerErrors(t *testing.T) {
	attempts := 0
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"access_token":"at","refresh_token":"rt","expires_in":3600}`))
	})

	result, err := client.ExchangeCode(context.Background(), "code")
	require.NoError(t, err)
	assert.Equal(t, "at", result.AccessToken)
	assert.Equal(t, 3, attempts)
}

func TestExchangeCode_DoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	})

	_, err := client.ExchangeCode(context.Background(), "stale-code")
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestListActivities(t *testing.T) {
	client := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/activities", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.URL.Query().Get("after"))

		w.Write([]byte(`[
			{"id":9001,"name":"Morning Run","type":"Run","start_date":"2026-08-20T06:30:00Z",
			 "elapsed_time":3000,"distance":10500.5,"average_heartrate":151.2},
			{"id":9002,"name":"Evening Spin","type":"Ride","start_date":"2026-08-20T18:00:00Z",
			 "elapsed_time":5400,"distance":40000}
		]`))
	})

	activities, err := client.ListActivities(context.Background(), "token", time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, activities, 2)

	run := activities[0]
	assert.Equal(t, "9001", run.ID)
	assert.Equal(t, "run", run.Sport)
	assert.Equal(t, 50*time.Minute, run.Duration)
	require.NotNil(t, run.AvgHeartRate)
	assert.Equal(t, 151, *run.AvgHeartRate)

	assert.Nil(t, activities[1].AvgHeartRate)
}
