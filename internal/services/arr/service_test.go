// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package arr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/fakearr/internal/release"
)

func radarrStub(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/movie/lookup", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func sonarrStub(t *testing.T, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/series/lookup", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
}

func TestResolverMovie(t *testing.T) {
	srv := radarrStub(t, `[
		{"title":"Movie Title","year":2020,"tmdbId":1},
		{"title":"Movie Title","year":2024,"tmdbId":2},
		{"title":"Another Movie","year":2024,"tmdbId":3}
	]`)
	defer srv.Close()

	resolver := NewResolver(NewClient(srv.URL, "key", 5), nil)

	res, err := resolver.Resolve(context.Background(), release.Identity{Title: "Movie Title", Year: 2024})
	require.NoError(t, err)

	assert.True(t, res.Matched)
	assert.Equal(t, "Movie Title", res.Title)
	assert.Equal(t, 2024, res.Year)
	assert.Equal(t, int64(2), res.TmdbID)
	assert.Equal(t, "Movie Title 2024", res.Query())
}

func TestResolverMovieNoResults(t *testing.T) {
	srv := radarrStub(t, `[]`)
	defer srv.Close()

	resolver := NewResolver(NewClient(srv.URL, "key", 5), nil)

	res, err := resolver.Resolve(context.Background(), release.Identity{Title: "Obscure Film", Year: 1999})
	require.NoError(t, err)

	assert.False(t, res.Matched)
	assert.Equal(t, "Obscure Film", res.Title)
	assert.Equal(t, 1999, res.Year)
}

func TestResolverMovieUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	resolver := NewResolver(NewClient(srv.URL, "bad", 5), nil)

	_, err := resolver.Resolve(context.Background(), release.Identity{Title: "Movie", Year: 2024})
	require.Error(t, err)
	assert.ErrorIs(t, err, &LookupError{})
}

func TestResolverSeries(t *testing.T) {
	srv := sonarrStub(t, `[
		{"title":"Show Name","year":2019,"tvdbId":42},
		{"title":"Show Name Revisited","year":2022,"tvdbId":43}
	]`)
	defer srv.Close()

	resolver := NewResolver(nil, NewClient(srv.URL, "key", 5))

	res, err := resolver.Resolve(context.Background(), release.Identity{Title: "Show Name", Season: 2, Episode: 5})
	require.NoError(t, err)

	assert.True(t, res.Matched)
	assert.Equal(t, "Show Name", res.Title)
	assert.Equal(t, int64(42), res.TvdbID)
}

func TestResolverEpisodeWithoutSonarr(t *testing.T) {
	resolver := NewResolver(nil, nil)

	res, err := resolver.Resolve(context.Background(), release.Identity{Title: "Show Name", Season: 1, Episode: 1})
	require.NoError(t, err)

	assert.False(t, res.Matched)
	assert.Equal(t, "Show Name", res.Title)
}

func TestResolverMovieWithoutRadarr(t *testing.T) {
	resolver := NewResolver(nil, nil)

	res, err := resolver.Resolve(context.Background(), release.Identity{Title: "Movie Title", Year: 2024})
	require.NoError(t, err)

	assert.False(t, res.Matched)
}

func TestBestMovieFuzzy(t *testing.T) {
	movies := []Movie{
		{Title: "Completely Different", Year: 2001, TmdbID: 1},
		{Title: "The Movie Title", Year: 2024, TmdbID: 2},
	}

	best := bestMovie(release.Identity{Title: "Movie Title", Year: 2024}, movies)
	require.NotNil(t, best)
	assert.Equal(t, int64(2), best.TmdbID)
}

func TestBestMovieNothingClose(t *testing.T) {
	movies := []Movie{
		{Title: "Zebra", Year: 1980, TmdbID: 1},
	}

	best := bestMovie(release.Identity{Title: "Movie Title"}, movies)
	assert.Nil(t, best)
}

func TestResolutionQueryWithoutYear(t *testing.T) {
	res := Resolution{Title: "Show Name"}
	assert.Equal(t, "Show Name", res.Query())
}
