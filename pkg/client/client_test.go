package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_AuthorizationHeader(t *testing.T) {
	var gotHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
	}))
	defer server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)
	c.SetAccessToken("token-1")

	var out map[string]string
	require.NoError(t, c.Do(context.Background(), http.MethodGet, "/user/me", nil, &out))
	assert.Equal(t, "Bearer token-1", gotHeader)
	assert.Equal(t, "ok", out["message"])
}

func TestClient_RefreshesOnceAndRetries(t *testing.T) {
	var refreshCalls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			atomic.AddInt64(&refreshCalls, 1)
			// Hold the refresh open long enough for the other callers to
			// pile onto the same in-flight call.
			time.Sleep(100 * time.Millisecond)
			_ = json.NewEncoder(w).Encode(map[string]string{"accessToken": "fresh-token"})
		default:
			if r.Header.Get("Authorization") != "Bearer fresh-token" {
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"message": "Unauthorized"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "ok"})
		}
	}))
	defer server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)
	c.SetAccessToken("stale-token")

	var wg sync.WaitGroup
	errs := make([]error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var out map[string]string
			errs[i] = c.Do(context.Background(), http.MethodGet, "/user/me", nil, &out)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int64(1), atomic.LoadInt64(&refreshCalls))
	assert.Equal(t, "fresh-token", c.AccessToken())
}

func TestClient_UnauthorizedAfterRefresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Invalid refresh token"})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Unauthorized"})
	}))
	defer server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)
	c.SetAccessToken("stale-token")

	err = c.Do(context.Background(), http.MethodGet, "/user/me", nil, nil)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "User already exists"})
	}))
	defer server.Close()

	c, err := New(server.URL)
	require.NoError(t, err)

	err = c.Do(context.Background(), http.MethodPost, "/auth/register",
		map[string]string{"email": "test@example.com"}, nil)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "User already exists", apiErr.Message)
}
