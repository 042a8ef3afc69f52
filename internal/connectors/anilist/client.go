// Package anilist is the client wrapper for the AniList GraphQL API.
// Payload parsing stays with the collectors; this package only performs
// gated, authenticated transport.
package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/koyomi/koyomi/internal/core/domain"
	"github.com/koyomi/koyomi/internal/logger"
	"github.com/koyomi/koyomi/internal/ratelimit"
)

// DefaultEndpoint is the AniList GraphQL endpoint.
const DefaultEndpoint = "https://graphql.anilist.co"

// Client performs GraphQL requests against AniList. Every request is
// gated on the shared anilist limiter before touching the network.
type Client struct {
	endpoint string
	http     *http.Client
	gate     *ratelimit.Limiter
	reactive *reactiveLimiter
}

// NewClient wires a client to the registry's anilist limiter.
func NewClient(registry *ratelimit.Registry) (*Client, error) {
	gate, err := registry.Get(domain.APIAniList)
	if err != nil {
		return nil, err
	}
	return &Client{
		endpoint: DefaultEndpoint,
		http:     &http.Client{Timeout: 30 * time.Second},
		gate:     gate,
		reactive: newReactiveLimiter(),
	}, nil
}

// SetEndpoint overrides the GraphQL endpoint. Used by tests.
func (c *Client) SetEndpoint(endpoint string) {
	c.endpoint = endpoint
}

// Query executes one GraphQL query and returns the raw data payload.
func (c *Client) Query(ctx context.Context, query string, variables map[string]any) (json.RawMessage, error) {
	c.gate.Gate()
	if err := c.reactive.Wait(ctx); err != nil {
		return nil, err
	}

	reqID := uuid.New().String()

	body, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	logger.Debug("anilist request %s", reqID)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anilist request %s: %w", reqID, err)
	}
	defer resp.Body.Close()

	if err := c.reactive.CheckRateLimit(resp); err != nil {
		logger.Warn("anilist request %s rate limited", reqID)
		return nil, fmt.Errorf("%w: %v", domain.ErrRateLimited, err)
	}

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &APIError{StatusCode: resp.StatusCode, Message: string(msg)}
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: envelope.Errors[0].Message}
	}

	return envelope.Data, nil
}
