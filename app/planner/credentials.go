package planner

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aifit/coachbot/core/logger"
)

const (
	tokenLifetime     = 25 * time.Minute
	tokenSafetyMargin = time.Minute
	refreshInterval   = 20 * time.Minute
	tokenFetchTimeout = 30 * time.Second
)

// TokenSource yields a bearer credential for the generation backend.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a fixed API key on every call.
type StaticTokenSource string

// Token implements TokenSource.
func (s StaticTokenSource) Token(context.Context) (string, error) {
	if s == "" {
		return "", &GenerationError{Reason: ReasonNotConfigured, Detail: "api key is empty"}
	}
	return string(s), nil
}

// OAuthTokenCache exchanges a client credential for short-lived access tokens
// and caches them. The refresh is single-flight: the mutex is held across the
// fetch so concurrent callers wait for one outstanding request and reuse its
// result.
type OAuthTokenCache struct {
	authURL   string
	clientKey string
	scope     string
	client    *http.Client

	mu     sync.Mutex
	token  string
	expiry time.Time

	now func() time.Time
}

// NewOAuthTokenCache builds a cache against the given auth endpoint.
func NewOAuthTokenCache(authURL, clientKey, scope string) *OAuthTokenCache {
	return &OAuthTokenCache{
		authURL:   authURL,
		clientKey: clientKey,
		scope:     scope,
		client:    &http.Client{Timeout: tokenFetchTimeout},
		now:       time.Now,
	}
}

// Token returns the cached token while it is fresh, otherwise fetches a new
// one. Expiry is computed as issue time plus the fixed token lifetime.
func (c *OAuthTokenCache) Token(ctx context.Context) (string, error) {
	if c.clientKey == "" {
		return "", &GenerationError{Reason: ReasonNotConfigured, Detail: "auth client key is empty"}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expiry.Add(-tokenSafetyMargin)) {
		return c.token, nil
	}
	return c.fetchLocked(ctx)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

func (c *OAuthTokenCache) fetchLocked(ctx context.Context) (string, error) {
	form := url.Values{}
	if c.scope != "" {
		form.Set("scope", c.scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &GenerationError{Reason: ReasonConnectionFailed, Detail: excerpt(err.Error()), Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.clientKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", uuid.NewString())

	start := c.now()
	resp, err := c.client.Do(req)
	if err != nil {
		return "", classify(err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode != http.StatusOK {
		return "", &GenerationError{
			Reason: ReasonBackendError,
			Status: resp.StatusCode,
			Detail: excerpt(string(body)),
		}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", &GenerationError{Reason: ReasonBackendError, Status: resp.StatusCode, Detail: "malformed token response", Err: err}
	}
	if tr.AccessToken == "" {
		return "", &GenerationError{Reason: ReasonEmptyResponse, Detail: "token response without access_token"}
	}

	c.token = tr.AccessToken
	c.expiry = start.Add(tokenLifetime)

	logger.Info(ctx, "planner", "token.refresh",
		slog.String("status", "ok"),
		slog.Duration("duration", logger.Took(start)),
	)
	return c.token, nil
}

// StartRefresher proactively renews the token on a fixed interval shorter
// than its lifetime. Individual failures are logged and the loop continues;
// it stops when the context is cancelled.
func (c *OAuthTokenCache) StartRefresher(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(refreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.mu.Lock()
				_, err := c.fetchLocked(ctx)
				c.mu.Unlock()
				if err != nil {
					logger.Warn(ctx, "planner", "token.refresh",
						slog.String("status", "fail"),
						slog.String("err", err.Error()),
					)
				}
			}
		}
	}()
}
