// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package pipeline assembles the torrent generators. A deployment runs
// exactly one generator, picked at startup from the configured mode.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/fakearr/internal/domain"
	"github.com/autobrr/fakearr/internal/release"
	"github.com/autobrr/fakearr/internal/services/arr"
	"github.com/autobrr/fakearr/internal/services/prowlarr"
	"github.com/autobrr/fakearr/internal/torrent"
)

var (
	// ErrResolverUnavailable wraps metadata-service failures so the HTTP
	// layer can log and count them apart from internal errors.
	ErrResolverUnavailable = errors.New("metadata resolver unavailable")

	// ErrSearcherUnavailable wraps release-searcher failures.
	ErrSearcherUnavailable = errors.New("release searcher unavailable")
)

// Generator produces the bencoded torrent document for a requested
// filename. The filename arrives without the .torrent extension.
type Generator interface {
	Torrent(ctx context.Context, filename string) ([]byte, error)
}

// Resolver maps a parsed identity to a canonical catalogue entry.
type Resolver interface {
	Resolve(ctx context.Context, id release.Identity) (arr.Resolution, error)
}

// Searcher runs an aggregated release search.
type Searcher interface {
	Search(ctx context.Context, req prowlarr.SearchRequest) ([]prowlarr.Release, error)
}

// ScoreRecorder observes the similarity score of each accepted match.
type ScoreRecorder interface {
	RecordMatchScore(score float64)
}

// Fixed generates torrents carrying one pre-configured infohash. It never
// talks to any external service.
type Fixed struct {
	builder  *torrent.Builder
	infohash string
}

func NewFixed(builder *torrent.Builder, infohash string) *Fixed {
	return &Fixed{builder: builder, infohash: strings.ToLower(infohash)}
}

func (f *Fixed) Torrent(ctx context.Context, filename string) ([]byte, error) {
	name := baseName(filename)

	data, err := f.builder.Fixed(name, f.infohash)
	if err != nil {
		return nil, fmt.Errorf("build fixed torrent: %w", err)
	}

	log.Debug().
		Str("name", name).
		Str("infohash", f.infohash).
		Msg("Generated fixed torrent")

	return data, nil
}

// Search generates torrents by resolving the filename to a canonical
// identity, searching the indexers, and matching the results back against
// the request. There is no fallback to a fixed hash.
type Search struct {
	builder   *torrent.Builder
	resolver  Resolver
	searcher  Searcher
	threshold float64
	limit     int
	scores    ScoreRecorder
}

func NewSearch(builder *torrent.Builder, resolver Resolver, searcher Searcher, threshold float64, limit int) *Search {
	return &Search{
		builder:   builder,
		resolver:  resolver,
		searcher:  searcher,
		threshold: threshold,
		limit:     limit,
	}
}

// WithScoreRecorder reports accepted match scores to rec. A nil recorder
// disables reporting.
func (s *Search) WithScoreRecorder(rec ScoreRecorder) *Search {
	s.scores = rec
	return s
}

func (s *Search) Torrent(ctx context.Context, filename string) ([]byte, error) {
	name := baseName(filename)
	id := release.Parse(name)

	resolved, err := s.resolver.Resolve(ctx, id)
	if err != nil {
		return nil, errors.Wrap(ErrResolverUnavailable, err.Error())
	}

	req := prowlarr.SearchRequest{
		Query: resolved.Query(),
		Limit: s.limit,
	}
	if id.IsEpisode() {
		req.Categories = []int{prowlarr.CategoryTV}
		req.Season = id.Season
		req.Episode = id.Episode
	} else {
		req.Categories = []int{prowlarr.CategoryMovies}
	}

	releases, err := s.searcher.Search(ctx, req)
	if err != nil {
		return nil, errors.Wrap(ErrSearcherUnavailable, err.Error())
	}

	candidates := toCandidates(releases)
	if len(candidates) == 0 {
		log.Debug().
			Str("name", name).
			Str("query", req.Query).
			Int("results", len(releases)).
			Msg("No candidates with a usable infohash")
		return nil, release.ErrNoMatch
	}

	match, err := release.BestMatch(name, candidates, s.threshold)
	if err != nil {
		return nil, err
	}

	if s.scores != nil {
		s.scores.RecordMatchScore(match.Score)
	}

	log.Info().
		Str("name", name).
		Str("matched", match.Candidate.Name).
		Str("infohash", match.Candidate.InfoHash).
		Float64("score", match.Score).
		Str("indexer", match.Candidate.Indexer).
		Msg("Matched release")

	data, err := s.builder.FromCandidate(match.Candidate)
	if err != nil {
		return nil, fmt.Errorf("build torrent from candidate: %w", err)
	}
	return data, nil
}

// toCandidates keeps only releases carrying a valid 40-hex infohash.
// Usenet and magnet-less results cannot back a torrent document.
func toCandidates(releases []prowlarr.Release) []release.Candidate {
	candidates := make([]release.Candidate, 0, len(releases))
	for _, r := range releases {
		if !domain.ValidInfoHash(r.InfoHash) {
			continue
		}
		candidates = append(candidates, release.Candidate{
			Name:     r.Title,
			InfoHash: r.InfoHash,
			Size:     r.Size,
			Seeders:  r.Seeders,
			Indexer:  r.Indexer,
		})
	}
	return candidates
}

// baseName strips any path component and the .torrent extension when the
// caller passed it through.
func baseName(filename string) string {
	name := filepath.Base(filename)
	if strings.EqualFold(filepath.Ext(name), ".torrent") {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	return name
}
