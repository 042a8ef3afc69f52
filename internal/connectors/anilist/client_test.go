package anilist

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koyomi/koyomi/internal/core/domain"
	"github.com/koyomi/koyomi/internal/ratelimit"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *ratelimit.Registry) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	registry := ratelimit.NewRegistry(nil)
	client, err := NewClient(registry)
	require.NoError(t, err)
	client.SetEndpoint(srv.URL)
	return client, registry
}

func TestClient_Query(t *testing.T) {
	client, registry := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"Page":{"media":[]}}}`))
	})

	limiter, err := registry.Get(domain.APIAniList)
	require.NoError(t, err)
	before := limiter.RemainingCalls()

	data, err := client.Query(context.Background(), "query { Page { media { id } } }", nil)

	require.NoError(t, err)
	assert.JSONEq(t, `{"Page":{"media":[]}}`, string(data))
	assert.Equal(t, before-1, limiter.RemainingCalls(), "query must consume one gate slot")
}

func TestClient_QueryGraphQLError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":null,"errors":[{"message":"Invalid query"}]}`))
	})

	_, err := client.Query(context.Background(), "query { nope }", nil)

	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "Invalid query")
}

func TestClient_QueryRateLimited(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(HeaderRateRemaining, "0")
		w.Header().Set(HeaderRetryAfter, "30")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.Query(context.Background(), "query { Page }", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestClient_QueryServerError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	})

	_, err := client.Query(context.Background(), "query { Page }", nil)

	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestReactiveLimiter_CheckRateLimit(t *testing.T) {
	limiter := newReactiveLimiter()

	resp := &http.Response{
		StatusCode: http.StatusTooManyRequests,
		Header:     http.Header{},
	}
	resp.Header.Set(HeaderRetryAfter, "60")
	resp.Header.Set(HeaderRateRemaining, "0")

	err := limiter.CheckRateLimit(resp)

	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
	var rlErr *RateLimitError
	require.ErrorAs(t, err, &rlErr)
	assert.Equal(t, 0, rlErr.Remaining)
}

func TestReactiveLimiter_OKResponse(t *testing.T) {
	limiter := newReactiveLimiter()

	resp := &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{},
	}
	resp.Header.Set(HeaderRateRemaining, "42")
	resp.Header.Set(HeaderRateLimit, "90")

	require.NoError(t, limiter.CheckRateLimit(resp))
	assert.Equal(t, 42, limiter.remaining)
	assert.Equal(t, 90, limiter.limit)
}
