package planner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenServer(t *testing.T, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if r.Header.Get("RqUID") == "" {
			t.Error("missing RqUID header")
		}
		if r.Header.Get("Authorization") != "Bearer client-key" {
			t.Errorf("unexpected auth header %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "issued-token",
			"expires_at":   time.Now().Add(30 * time.Minute).UnixMilli(),
		})
	}))
}

func TestStaticTokenSource(t *testing.T) {
	tok, err := StaticTokenSource("key").Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "key", tok)

	_, err = StaticTokenSource("").Token(context.Background())
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, ReasonNotConfigured, genErr.Reason)
}

func TestOAuthTokenCacheReuse(t *testing.T) {
	var hits atomic.Int64
	srv := tokenServer(t, &hits)
	defer srv.Close()

	cache := NewOAuthTokenCache(srv.URL, "client-key", "SCOPE_PERS")

	for i := 0; i < 5; i++ {
		tok, err := cache.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "issued-token", tok)
	}
	assert.Equal(t, int64(1), hits.Load(), "fresh token must be served from cache")
}

func TestOAuthTokenCacheSingleFlight(t *testing.T) {
	var hits atomic.Int64
	srv := tokenServer(t, &hits)
	defer srv.Close()

	cache := NewOAuthTokenCache(srv.URL, "client-key", "")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tok, err := cache.Token(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, "issued-token", tok)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), hits.Load(), "concurrent callers must share one fetch")
}

func TestOAuthTokenCacheRefetchNearExpiry(t *testing.T) {
	var hits atomic.Int64
	srv := tokenServer(t, &hits)
	defer srv.Close()

	cache := NewOAuthTokenCache(srv.URL, "client-key", "")

	clock := time.Now()
	cache.now = func() time.Time { return clock }

	_, err := cache.Token(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), hits.Load())

	// Still comfortably inside the lifetime.
	clock = clock.Add(10 * time.Minute)
	_, err = cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), hits.Load())

	// Within the safety margin of the 25-minute lifetime.
	clock = clock.Add(14*time.Minute + 30*time.Second)
	_, err = cache.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load(), "near-expiry token must be refetched")
}

func TestOAuthTokenCacheErrors(t *testing.T) {
	t.Run("missing client key", func(t *testing.T) {
		cache := NewOAuthTokenCache("http://127.0.0.1:1", "", "")
		_, err := cache.Token(context.Background())
		var genErr *GenerationError
		require.ErrorAs(t, err, &genErr)
		assert.Equal(t, ReasonNotConfigured, genErr.Reason)
	})

	t.Run("auth backend failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("bad credentials"))
		}))
		defer srv.Close()

		cache := NewOAuthTokenCache(srv.URL, "client-key", "")
		_, err := cache.Token(context.Background())
		var genErr *GenerationError
		require.ErrorAs(t, err, &genErr)
		assert.Equal(t, ReasonBackendError, genErr.Reason)
		assert.Equal(t, http.StatusUnauthorized, genErr.Status)
	})

	t.Run("empty access token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"expires_at": 123}`))
		}))
		defer srv.Close()

		cache := NewOAuthTokenCache(srv.URL, "client-key", "")
		_, err := cache.Token(context.Background())
		var genErr *GenerationError
		require.ErrorAs(t, err, &genErr)
		assert.Equal(t, ReasonEmptyResponse, genErr.Reason)
	})
}
