// Package client implements the API client used by the CLI: token
// management, secret creation and retrieval, and share-link handling.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/atinyakov/BurnLink/internal/models"
)

var (
	// ErrNotFound means the secret never existed or expired by TTL.
	ErrNotFound = errors.New("secret not found")
	// ErrExhausted means the secret's view limit was already reached.
	ErrExhausted = errors.New("secret view limit reached")
	// ErrRateLimited means the server rejected the call; the caller must
	// back off before trying again.
	ErrRateLimited = errors.New("rate limited")
)

const (
	// tokenRefreshAfter is how long a cached token is reused before a
	// fresh one is fetched. Kept comfortably inside the server's 30-minute
	// validity window.
	tokenRefreshAfter = 25 * time.Minute

	// createRetries bounds the retry loop for create calls. A create may
	// be retried on transport errors and 5xx responses: a 5xx means the
	// server rejected the write and issued no external id.
	createRetries = 3

	retryBackoff = 500 * time.Millisecond
)

// tokenCache is an explicit cache value threaded through the client rather
// than ambient global state.
type tokenCache struct {
	value     string
	fetchedAt time.Time
}

// Client talks to the BurnLink API.
type Client struct {
	http    *http.Client
	baseURL string
	token   tokenCache
}

// New constructs a Client for the given base URL. hc may be nil, in which
// case a default client with a request timeout is used.
func New(baseURL string, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{http: hc, baseURL: baseURL}
}

// CreateResponse mirrors the server's create reply.
type CreateResponse struct {
	ExternalID string `json:"externalId"`
	ExpiresAt  int64  `json:"expiresAt"`
	MaxViews   int    `json:"maxViews"`
}

// ViewResponse mirrors the server's view reply.
type ViewResponse struct {
	Envelope   json.RawMessage `json:"envelope"`
	ViewCount  int             `json:"viewCount"`
	MaxViews   int             `json:"maxViews"`
	IsLastView bool            `json:"isLastView"`
	CreatedAt  int64           `json:"createdAt"`
}

// Token returns the cached anti-forgery token, fetching a fresh one when
// the cache is empty or stale.
func (c *Client) Token(ctx context.Context) (string, error) {
	if c.token.value != "" && time.Since(c.token.fetchedAt) < tokenRefreshAfter {
		return c.token.value, nil
	}
	return c.refreshToken(ctx)
}

func (c *Client) refreshToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/token", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch token: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch token: status %d", resp.StatusCode)
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	c.token = tokenCache{value: body.Token, fetchedAt: time.Now()}
	return body.Token, nil
}

// CreateSecret uploads an envelope and returns the external id and expiry.
// Transport errors and 5xx responses are retried with backoff up to
// createRetries; an invalid token is refreshed and the call retried exactly
// once.
func (c *Client) CreateSecret(ctx context.Context, env *models.Envelope, maxViews, ttlHours int) (*CreateResponse, error) {
	envJSON, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < createRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryBackoff * time.Duration(attempt)):
			}
		}

		var out CreateResponse
		status, err := c.postOnceWithTokenRetry(ctx, "/api/secrets", func(tok string) any {
			return map[string]any{
				"envelope": json.RawMessage(envJSON),
				"maxViews": maxViews,
				"ttlHours": ttlHours,
				"token":    tok,
			}
		}, &out)
		if err != nil {
			lastErr = err
			continue
		}
		switch {
		case status == http.StatusCreated:
			return &out, nil
		case status == http.StatusTooManyRequests:
			return nil, ErrRateLimited
		case status >= 500:
			lastErr = fmt.Errorf("create secret: status %d", status)
			continue
		default:
			return nil, fmt.Errorf("create secret: status %d", status)
		}
	}
	return nil, lastErr
}

// ViewSecret retrieves the envelope for an external id, consuming one view.
// The call is mutating and is never retried on transport failure after the
// request has been sent: a timeout leaves the increment in an unknown state
// and is surfaced to the caller instead.
func (c *Client) ViewSecret(ctx context.Context, externalID string) (*ViewResponse, error) {
	var out ViewResponse
	status, err := c.postOnceWithTokenRetry(ctx, "/api/secrets/"+externalID+"/view", func(tok string) any {
		return map[string]any{"token": tok}
	}, &out)
	if err != nil {
		return nil, err
	}
	switch status {
	case http.StatusOK:
		return &out, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	case http.StatusGone:
		return nil, ErrExhausted
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		return nil, fmt.Errorf("view secret: status %d", status)
	}
}

// postOnceWithTokenRetry sends a POST with the cached token. On 403 it
// refreshes the token and retries the original call exactly once; 403 never
// means the mutation happened, so the retry is safe.
func (c *Client) postOnceWithTokenRetry(ctx context.Context, path string, body func(tok string) any, out any) (int, error) {
	tok, err := c.Token(ctx)
	if err != nil {
		return 0, err
	}
	status, err := c.postJSON(ctx, path, body(tok), out)
	if err != nil {
		return 0, err
	}
	if status != http.StatusForbidden {
		return status, nil
	}

	if tok, err = c.refreshToken(ctx); err != nil {
		return 0, err
	}
	return c.postJSON(ctx, path, body(tok), out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) (int, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 && out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return 0, fmt.Errorf("decode response: %w", err)
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode, nil
}
