// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package arr implements the metadata-resolver collaborator against the
// Radarr and Sonarr v3 lookup APIs.
package arr

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go"

	"github.com/autobrr/fakearr/internal/buildinfo"
)

const (
	defaultTimeout = 15 * time.Second

	maxResponseBytes int64 = 8 << 20

	retryAttempts = 3
	retryDelay    = 500 * time.Millisecond
)

// LookupError represents an HTTP error from a Radarr or Sonarr API.
type LookupError struct {
	StatusCode int
	URL        string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("arr lookup %s returned status %d", e.URL, e.StatusCode)
}

func (e *LookupError) Is(target error) bool {
	_, ok := target.(*LookupError)
	return ok
}

// Client talks to a single Radarr or Sonarr instance.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
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
	}
}

// LookupMovie searches Radarr's metadata catalogue for movies matching term.
func (c *Client) LookupMovie(ctx context.Context, term string) ([]Movie, error) {
	var movies []Movie
	if err := c.lookup(ctx, "/api/v3/movie/lookup", term, &movies); err != nil {
		return nil, err
	}
	return movies, nil
}

// LookupSeries searches Sonarr's metadata catalogue for series matching term.
func (c *Client) LookupSeries(ctx context.Context, term string) ([]Series, error) {
	var series []Series
	if err := c.lookup(ctx, "/api/v3/series/lookup", term, &series); err != nil {
		return nil, err
	}
	return series, nil
}

// Ping checks the instance is reachable and the API key valid.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v3/system/status", nil)
	if err != nil {
		return fmt.Errorf("build status request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("arr status check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &LookupError{StatusCode: resp.StatusCode, URL: req.URL.String()}
	}
	return nil
}

func (c *Client) lookup(ctx context.Context, path, term string, out any) error {
	if strings.TrimSpace(term) == "" {
		return fmt.Errorf("lookup term is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	endpoint := c.baseURL + path + "?term=" + url.QueryEscape(term)

	return retry.Do(
		func() error {
			return c.get(ctx, endpoint, out)
		},
		retry.Attempts(retryAttempts),
		retry.Delay(retryDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			if lookupErr, ok := err.(*LookupError); ok {
				return lookupErr.StatusCode >= http.StatusInternalServerError
			}
			return true
		}),
	)
}

func (c *Client) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build lookup request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("arr lookup failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &LookupError{StatusCode: resp.StatusCode, URL: endpoint}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read lookup response: %w", err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode lookup response: %w", err)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent)
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}
}
