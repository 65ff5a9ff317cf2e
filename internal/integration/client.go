package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/shanebarringer/ultracoach-sub001/internal/retry"
)

const (
	httpCallTimeout = 10 * time.Second
	activityPageMax = 100
)

// ClientConfig carries the provider endpoints and credentials.
type ClientConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	APIURL       string
	RedirectURI  string
}

// HTTPClient talks to the provider's OAuth and activity APIs. All outbound
// calls go through a circuit breaker; transient failures are retried with
// backoff, 4xx responses are not.
type HTTPClient struct {
	cfg     ClientConfig
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	policy  retry.Policy
}

var _ ProviderClient = (*HTTPClient)(nil)

func NewHTTPClient(cfg ClientConfig) *HTTPClient {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "provider",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Provider circuit breaker state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &HTTPClient{
		cfg:     cfg,
		http:    &http.Client{Timeout: httpCallTimeout},
		breaker: breaker,
		policy: retry.Policy{
			MaxAttempts:      3,
			InitialBackoff:   500 * time.Millisecond,
			RateLimitBackoff: 5 * time.Second,
			OnRetry: func(attempt int, err error, backoff time.Duration) {
				slog.Warn("Retrying provider call",
					"attempt", attempt, "backoff", backoff, "error", err)
			},
		},
	}
}

// statusError preserves the provider HTTP status for retry classification.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.status, e.body)
}

func classify(err error) retry.Action {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return retry.Stop
	}
	var rse *retryStopError
	if errors.As(err, &rse) {
		return retry.Stop
	}
	var se *statusError
	if errors.As(err, &se) {
		switch {
		case se.status == http.StatusTooManyRequests:
			return retry.After
		case se.status >= 500:
			return retry.Retry
		default:
			return retry.Stop
		}
	}
	// Network-level failure
	return retry.Retry
}

// AuthorizeURL builds the provider authorization redirect for the connect flow.
func (c *HTTPClient) AuthorizeURL(state string) string {
	q := url.Values{}
	q.Set("client_id", c.cfg.ClientID)
	q.Set("redirect_uri", c.cfg.RedirectURI)
	q.Set("response_type", "code")
	q.Set("scope", "activity:read")
	q.Set("state", state)
	return c.cfg.AuthURL + "?" + q.Encode()
}

func (c *HTTPClient) ExchangeCode(ctx context.Context, code string) (*TokenResult, error) {
	data := url.Values{}
	data.Set("client_id", c.cfg.ClientID)
	data.Set("client_secret", c.cfg.ClientSecret)
	data.Set("code", code)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", c.cfg.RedirectURI)

	result, err := c.tokenRequest(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	return result, nil
}

func (c *HTTPClient) RefreshToken(ctx context.Context, refreshToken string) (*TokenResult, error) {
	data := url.Values{}
	data.Set("client_id", c.cfg.ClientID)
	data.Set("client_secret", c.cfg.ClientSecret)
	data.Set("refresh_token", refreshToken)
	data.Set("grant_type", "refresh_token")

	result, err := c.tokenRequest(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}
	return result, nil
}

func (c *HTTPClient) tokenRequest(ctx context.Context, data url.Values) (*TokenResult, error) {
	return retry.Do(ctx, c.policy, classify, func() (*TokenResult, error) {
		body, err := c.post(ctx, c.cfg.TokenURL, data)
		if err != nil {
			return nil, err
		}

		var resp struct {
			AccessToken  string `json:"access_token"`
			RefreshToken string `json:"refresh_token"`
			ExpiresIn    int    `json:"expires_in"`
			Athlete      struct {
				ID json.Number `json:"id"`
			} `json:"athlete"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, &retryStopError{fmt.Errorf("failed to decode token response: %w", err)}
		}
		if resp.AccessToken == "" {
			return nil, &retryStopError{fmt.Errorf("token response missing access_token")}
		}

		return &TokenResult{
			AccessToken:    resp.AccessToken,
			RefreshToken:   resp.RefreshToken,
			ExpiresIn:      resp.ExpiresIn,
			ProviderUserID: resp.Athlete.ID.String(),
		}, nil
	})
}

func (c *HTTPClient) ListActivities(ctx context.Context, accessToken string, since time.Time) ([]Activity, error) {
	endpoint := strings.TrimSuffix(c.cfg.APIURL, "/") + "/activities"

	q := url.Values{}
	q.Set("after", strconv.FormatInt(since.Unix(), 10))
	q.Set("per_page", strconv.Itoa(activityPageMax))

	return retry.Do(ctx, c.policy, classify, func() ([]Activity, error) {
		body, err := c.get(ctx, endpoint+"?"+q.Encode(), accessToken)
		if err != nil {
			return nil, err
		}

		var resp []struct {
			ID           json.Number `json:"id"`
			Name         string      `json:"name"`
			Type         string      `json:"type"`
			StartDate    time.Time   `json:"start_date"`
			ElapsedTime  int         `json:"elapsed_time"` // seconds
			Distance     float64     `json:"distance"`     // meters
			AvgHeartRate *float64    `json:"average_heartrate"`
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, &retryStopError{fmt.Errorf("failed to decode activities response: %w", err)}
		}

		activities := make([]Activity, 0, len(resp))
		for _, a := range resp {
			activity := Activity{
				ID:        a.ID.String(),
				Name:      a.Name,
				Sport:     strings.ToLower(a.Type),
				StartTime: a.StartDate,
				Duration:  time.Duration(a.ElapsedTime) * time.Second,
				DistanceM: a.Distance,
			}
			if a.AvgHeartRate != nil {
				hr := int(*a.AvgHeartRate)
				activity.AvgHeartRate = &hr
			}
			activities = append(activities, activity)
		}
		return activities, nil
	})
}

// retryStopError marks decode-level failures as permanent regardless of the
// HTTP status that carried them.
type retryStopError struct{ err error }

func (e *retryStopError) Error() string { return e.err.Error() }
func (e *retryStopError) Unwrap() error { return e.err }

func (c *HTTPClient) post(ctx context.Context, endpoint string, data url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.execute(req)
}

func (c *HTTPClient) get(ctx context.Context, endpoint, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	return c.execute(req)
}

func (c *HTTPClient) execute(req *http.Request) ([]byte, error) {
	result, err := c.breaker.Execute(func() (any, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("failed to execute provider request: %w", err)
		}
		defer resp.Body.Close()

		body, err := readBody(resp)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			return nil, &statusError{status: resp.StatusCode, body: truncate(body, 256)}
		}
		return body, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func readBody(resp *http.Response) ([]byte, error) {
	const maxBody = 1 << 20
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read provider response: %w", err)
	}
	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
