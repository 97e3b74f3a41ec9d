// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package prowlarr implements the release-searcher collaborator: an
// aggregated Torznab search across every indexer the Prowlarr instance
// knows about.
package prowlarr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/fakearr/internal/buildinfo"
)

const (
	defaultTimeout = 30 * time.Second
	defaultLimit   = 50

	maxResponseBytes int64 = 16 << 20

	retryAttempts = 3
	retryDelay    = 500 * time.Millisecond
)

// SearchError represents an HTTP error from the Prowlarr API. It preserves
// the status code so callers can distinguish rate limiting from outages.
type SearchError struct {
	StatusCode int
	URL        string
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("prowlarr search %s returned status %d", e.URL, e.StatusCode)
}

func (e *SearchError) Is(target error) bool {
	_, ok := target.(*SearchError)
	return ok
}

// IsRateLimited returns true if this error indicates rate limiting (HTTP 429).
func (e *SearchError) IsRateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}

// Client talks to a single Prowlarr instance.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limit      int
}

func NewClient(baseURL, apiKey string, timeoutSeconds int) *Client {
	timeout := defaultTimeout
	if timeoutSeconds > 0 {
		timeout = time.Duration(timeoutSeconds) * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		limit:      defaultLimit,
	}
}

// Search runs one aggregated search. Transport failures are retried a small
// bounded number of times; HTTP error statuses are surfaced as *SearchError.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]Release, error) {
	if strings.TrimSpace(req.Query) == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	endpoint, err := c.searchURL(req)
	if err != nil {
		return nil, err
	}

	var releases []Release
	err = retry.Do(
		func() error {
			var doErr error
			releases, doErr = c.search(ctx, endpoint)
			return doErr
		},
		retry.Attempts(retryAttempts),
		retry.Delay(retryDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			if searchErr, ok := err.(*SearchError); ok {
				return searchErr.StatusCode >= http.StatusInternalServerError
			}
			return true
		}),
	)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("query", req.Query).
		Int("results", len(releases)).
		Msg("Prowlarr search completed")

	return releases, nil
}

// Ping checks that the Prowlarr instance is reachable and the API key valid.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/health", nil)
	if err != nil {
		return fmt.Errorf("build health request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("prowlarr health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &SearchError{StatusCode: resp.StatusCode, URL: req.URL.String()}
	}
	return nil
}

func (c *Client) searchURL(req SearchRequest) (string, error) {
	endpoint, err := url.JoinPath(c.baseURL, "api", "v1", "search")
	if err != nil {
		return "", fmt.Errorf("build search url: %w", err)
	}

	query := url.Values{}
	query.Set("query", req.Query)
	query.Set("type", "search")

	limit := req.Limit
	if limit <= 0 {
		limit = c.limit
	}
	query.Set("limit", strconv.Itoa(limit))

	for _, cat := range req.Categories {
		query.Add("categories", strconv.Itoa(cat))
	}
	if req.Season > 0 {
		query.Set("season", strconv.Itoa(req.Season))
	}
	if req.Episode > 0 {
		query.Set("episode", strconv.Itoa(req.Episode))
	}

	return endpoint + "?" + query.Encode(), nil
}

func (c *Client) search(ctx context.Context, endpoint string) ([]Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("prowlarr search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &SearchError{StatusCode: resp.StatusCode, URL: endpoint}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}

	var releases []Release
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	for i := range releases {
		releases[i].InfoHash = strings.ToLower(strings.TrimSpace(releases[i].InfoHash))
	}

	return releases, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent)
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
}
