package satoru

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"

	apperrors "github.com/antoniojosev/crm-satoru/pkg/errors"
)

// CredentialVault stores the token pair bound to a dashboard session. The
// client reads the pair before each call, rotates it after a successful
// refresh and clears it when the refresh token is rejected.
type CredentialVault interface {
	Credentials(ctx context.Context, sessionID string) (accessToken, refreshToken string, err error)
	Rotate(ctx context.Context, sessionID, accessToken, refreshToken string) error
	Clear(ctx context.Context, sessionID string) error
}

// Config holds configuration for the core API client.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client talks to the Satoru core API. It injects the session's bearer
// token, unwraps the {success, data} envelope and transparently refreshes
// an expired access token exactly once per call.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	vault   CredentialVault
	logger  *slog.Logger
}

// NewClient creates a core API client. The vault may be nil only if every
// call goes through unauthenticated endpoints.
func NewClient(cfg Config, vault CredentialVault, logger *slog.Logger) *Client {
	settings := gobreaker.Settings{
		Name:        "satoru-core-api",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	}

	breakerState.WithLabelValues(settings.Name).Set(0)

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		breaker: gobreaker.NewCircuitBreaker[*http.Response](settings),
		vault:   vault,
		logger:  logger,
	}
}

// buildFn constructs a fresh request. The client calls it again when a call
// has to be replayed after a token refresh, so the body is rebuilt rather
// than rewound.
type buildFn func(ctx context.Context) (*http.Request, error)

// jsonRequest returns a buildFn for a JSON-encoded call. A nil body sends
// no payload.
func (c *Client) jsonRequest(method, path string, body any) buildFn {
	return func(ctx context.Context) (*http.Request, error) {
		var reader io.Reader = http.NoBody
		if body != nil {
			data, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("marshal request body: %w", err)
			}
			reader = bytes.NewReader(data)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return nil, fmt.Errorf("create %s %s request: %w", method, path, err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}
}

// send executes a call against the core API. When sessionID is non-empty the
// session's access token is attached; a 401 triggers exactly one refresh and
// one replay. When the refresh itself fails the vault is cleared and
// ErrSessionExpired is returned, so the caller can end the dashboard session.
func (c *Client) send(ctx context.Context, op, sessionID string, build buildFn, out any) error {
	return c.sendOnce(ctx, op, sessionID, build, out, false)
}

func (c *Client) sendOnce(ctx context.Context, op, sessionID string, build buildFn, out any, retried bool) error {
	req, err := build(ctx)
	if err != nil {
		return err
	}

	var accessToken string
	if sessionID != "" {
		access, _, err := c.vault.Credentials(ctx, sessionID)
		if err != nil {
			return err
		}
		accessToken = access
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	start := time.Now()
	resp, err := c.do(req)
	upstreamDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		upstreamRequests.WithLabelValues(op, "error").Inc()
		c.logger.ErrorContext(ctx, "core api call failed",
			slog.String("op", op),
			slog.String("error", err.Error()),
		)
		return apperrors.Upstream("core API unavailable", err)
	}
	defer resp.Body.Close()

	upstreamRequests.WithLabelValues(op, fmt.Sprintf("%d", resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusUnauthorized && sessionID != "" && !retried {
		io.Copy(io.Discard, resp.Body)
		if err := c.refresh(ctx, sessionID); err != nil {
			return err
		}
		return c.sendOnce(ctx, op, sessionID, build, out, true)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Upstream("core API unavailable", err)
	}

	if resp.StatusCode >= 400 {
		return parseAPIError(resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	return unwrap(body, out)
}

// do runs a single request through the circuit breaker. Network errors and
// 5xx responses count as failures; 4xx responses pass through.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	return c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= 500 {
			body, rerr := io.ReadAll(resp.Body)
			if rerr != nil {
				body = []byte{}
			}
			_ = resp.Body.Close()
			return nil, fmt.Errorf("server error %d: %s", resp.StatusCode, string(body))
		}
		return resp, nil
	})
}

// refresh exchanges the session's refresh token for a new pair and rotates
// the vault. Any failure clears the vault and yields ErrSessionExpired: the
// dashboard session is over.
func (c *Client) refresh(ctx context.Context, sessionID string) error {
	_, refreshToken, err := c.vault.Credentials(ctx, sessionID)
	if err != nil {
		return err
	}
	if refreshToken == "" {
		_ = c.vault.Clear(ctx, sessionID)
		return apperrors.SessionExpired("session expired")
	}

	payload, err := json.Marshal(map[string]string{"refreshToken": refreshToken})
	if err != nil {
		return fmt.Errorf("marshal refresh request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/refresh", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.do(req)
	if err != nil {
		_ = c.vault.Clear(ctx, sessionID)
		tokenRefreshes.WithLabelValues("failure").Inc()
		return apperrors.SessionExpired("session expired")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode >= 400 {
		_ = c.vault.Clear(ctx, sessionID)
		tokenRefreshes.WithLabelValues("failure").Inc()
		c.logger.WarnContext(ctx, "token refresh rejected",
			slog.Int("status", resp.StatusCode),
		)
		return apperrors.SessionExpired("session expired")
	}

	var pair TokenPair
	if err := unwrap(body, &pair); err != nil || pair.AccessToken == "" {
		_ = c.vault.Clear(ctx, sessionID)
		tokenRefreshes.WithLabelValues("failure").Inc()
		return apperrors.SessionExpired("session expired")
	}

	if err := c.vault.Rotate(ctx, sessionID, pair.AccessToken, pair.RefreshToken); err != nil {
		return err
	}
	tokenRefreshes.WithLabelValues("success").Inc()
	return nil
}

// unwrap decodes a core API response body. Responses are normally wrapped in
// a {success, data} envelope, but some endpoints return the payload bare, so
// the raw body is the fallback.
func unwrap(body []byte, out any) error {
	var envelope struct {
		Success *bool           `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Success != nil && envelope.Data != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return apperrors.Upstream("malformed core API response", err)
		}
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.Upstream("malformed core API response", err)
	}
	return nil
}
