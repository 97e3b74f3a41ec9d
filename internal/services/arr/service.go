// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package arr

import (
	"context"
	"fmt"
	"strconv"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/fakearr/internal/release"
)

// maxFuzzyRank is the worst RankMatchNormalizedFold score still accepted
// when ranking lookup results against the parsed title.
const maxFuzzyRank = 10

// Resolution is a resolved canonical identity for a release. When Matched
// is false no catalogue entry was found and the parsed identity is passed
// through unchanged.
type Resolution struct {
	Title   string
	Year    int
	TmdbID  int64
	TvdbID  int64
	Matched bool
}

// Query returns the search string to use against the release searcher.
func (r Resolution) Query() string {
	if r.Year > 0 {
		return r.Title + " " + strconv.Itoa(r.Year)
	}
	return r.Title
}

// Resolver maps a parsed release identity to a canonical catalogue entry,
// asking Radarr for movies and Sonarr for episodes. Either client may be
// nil when that instance is not configured.
type Resolver struct {
	radarr *Client
	sonarr *Client
}

func NewResolver(radarr, sonarr *Client) *Resolver {
	return &Resolver{radarr: radarr, sonarr: sonarr}
}

// Resolve looks the identity up in the relevant catalogue. Missing results
// degrade to an unmatched resolution carrying the parsed identity; upstream
// failures are returned to the caller.
func (r *Resolver) Resolve(ctx context.Context, id release.Identity) (Resolution, error) {
	fallback := Resolution{Title: id.Title, Year: id.Year}

	if id.Title == "" {
		return fallback, nil
	}

	if id.IsEpisode() {
		if r.sonarr == nil {
			return fallback, nil
		}
		return r.resolveSeries(ctx, id, fallback)
	}

	if r.radarr == nil {
		return fallback, nil
	}
	return r.resolveMovie(ctx, id, fallback)
}

// Ping checks every configured instance.
func (r *Resolver) Ping(ctx context.Context) error {
	if r.radarr != nil {
		if err := r.radarr.Ping(ctx); err != nil {
			return fmt.Errorf("radarr: %w", err)
		}
	}
	if r.sonarr != nil {
		if err := r.sonarr.Ping(ctx); err != nil {
			return fmt.Errorf("sonarr: %w", err)
		}
	}
	return nil
}

func (r *Resolver) resolveMovie(ctx context.Context, id release.Identity, fallback Resolution) (Resolution, error) {
	term := id.Title
	if id.Year > 0 {
		term += " " + strconv.Itoa(id.Year)
	}

	movies, err := r.radarr.LookupMovie(ctx, term)
	if err != nil {
		return Resolution{}, err
	}
	if len(movies) == 0 {
		log.Debug().Str("term", term).Msg("No movie lookup results, using parsed identity")
		return fallback, nil
	}

	best := bestMovie(id, movies)
	if best == nil {
		return fallback, nil
	}

	log.Debug().
		Str("term", term).
		Str("title", best.Title).
		Int("year", best.Year).
		Int64("tmdbId", best.TmdbID).
		Msg("Resolved movie")

	return Resolution{
		Title:   best.Title,
		Year:    best.Year,
		TmdbID:  best.TmdbID,
		Matched: true,
	}, nil
}

func (r *Resolver) resolveSeries(ctx context.Context, id release.Identity, fallback Resolution) (Resolution, error) {
	series, err := r.sonarr.LookupSeries(ctx, id.Title)
	if err != nil {
		return Resolution{}, err
	}
	if len(series) == 0 {
		log.Debug().Str("term", id.Title).Msg("No series lookup results, using parsed identity")
		return fallback, nil
	}

	best := bestSeries(id, series)
	if best == nil {
		return fallback, nil
	}

	log.Debug().
		Str("term", id.Title).
		Str("title", best.Title).
		Int64("tvdbId", best.TvdbID).
		Msg("Resolved series")

	return Resolution{
		Title:   best.Title,
		Year:    best.Year,
		TvdbID:  best.TvdbID,
		Matched: true,
	}, nil
}

// bestMovie ranks lookup results against the parsed title. Exact
// normalized title matches win, preferring a matching year; otherwise the
// best fuzzy rank under maxFuzzyRank is taken.
func bestMovie(id release.Identity, movies []Movie) *Movie {
	want := release.Normalize(id.Title)

	var exact *Movie
	for i := range movies {
		if release.Normalize(movies[i].Title) != want {
			continue
		}
		if id.Year > 0 && movies[i].Year == id.Year {
			return &movies[i]
		}
		if exact == nil {
			exact = &movies[i]
		}
	}
	if exact != nil {
		return exact
	}

	bestRank := maxFuzzyRank
	var best *Movie
	for i := range movies {
		got := release.Normalize(movies[i].Title)
		if !fuzzy.MatchNormalizedFold(want, got) {
			continue
		}
		rank := fuzzy.RankMatchNormalizedFold(want, got)
		if rank < bestRank {
			bestRank = rank
			best = &movies[i]
		}
	}
	return best
}

func bestSeries(id release.Identity, series []Series) *Series {
	want := release.Normalize(id.Title)

	for i := range series {
		if release.Normalize(series[i].Title) == want {
			return &series[i]
		}
	}

	bestRank := maxFuzzyRank
	var best *Series
	for i := range series {
		got := release.Normalize(series[i].Title)
		if !fuzzy.MatchNormalizedFold(want, got) {
			continue
		}
		rank := fuzzy.RankMatchNormalizedFold(want, got)
		if rank < bestRank {
			bestRank = rank
			best = &series[i]
		}
	}
	return best
}
