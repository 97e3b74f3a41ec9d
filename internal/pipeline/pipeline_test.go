// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package pipeline

import (
	"bytes"
	"context"
	"testing"

	"github.com/anacrolix/torrent/metainfo"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/fakearr/internal/release"
	"github.com/autobrr/fakearr/internal/services/arr"
	"github.com/autobrr/fakearr/internal/services/prowlarr"
	"github.com/autobrr/fakearr/internal/torrent"
)

const testHash = "41e6cd50ccec55cd5704c5e3d176e7b59317a3fb"

type fakeResolver struct {
	resolution arr.Resolution
	err        error
	calls      int
	lastID     release.Identity
}

func (f *fakeResolver) Resolve(_ context.Context, id release.Identity) (arr.Resolution, error) {
	f.calls++
	f.lastID = id
	return f.resolution, f.err
}

type fakeSearcher struct {
	releases []prowlarr.Release
	err      error
	calls    int
	lastReq  prowlarr.SearchRequest
}

func (f *fakeSearcher) Search(_ context.Context, req prowlarr.SearchRequest) ([]prowlarr.Release, error) {
	f.calls++
	f.lastReq = req
	return f.releases, f.err
}

type fakeScoreRecorder struct {
	scores []float64
}

func (f *fakeScoreRecorder) RecordMatchScore(score float64) {
	f.scores = append(f.scores, score)
}

func TestFixedGenerator(t *testing.T) {
	builder := torrent.NewBuilder(torrent.Options{})
	gen := NewFixed(builder, testHash)

	data, err := gen.Torrent(context.Background(), "Movie.Title.2024.2160p.BluRay.x265-GROUP")
	require.NoError(t, err)

	mi, err := metainfo.Load(bytes.NewReader(data))
	require.NoError(t, err)

	info, err := mi.UnmarshalInfo()
	require.NoError(t, err)
	assert.Equal(t, "Movie.Title.2024.2160p.BluRay.x265-GROUP", info.Name)
}

func TestFixedGeneratorStripsTorrentExtension(t *testing.T) {
	builder := torrent.NewBuilder(torrent.Options{})
	gen := NewFixed(builder, testHash)

	data, err := gen.Torrent(context.Background(), "Movie.Title.2024.torrent")
	require.NoError(t, err)

	mi, err := metainfo.Load(bytes.NewReader(data))
	require.NoError(t, err)
	info, err := mi.UnmarshalInfo()
	require.NoError(t, err)
	assert.Equal(t, "Movie.Title.2024", info.Name)
}

func TestFixedGeneratorUppercaseHash(t *testing.T) {
	builder := torrent.NewBuilder(torrent.Options{})
	gen := NewFixed(builder, "41E6CD50CCEC55CD5704C5E3D176E7B59317A3FB")

	_, err := gen.Torrent(context.Background(), "Movie.Title.2024")
	require.NoError(t, err)
}

func TestSearchGeneratorMovie(t *testing.T) {
	builder := torrent.NewBuilder(torrent.Options{})
	resolver := &fakeResolver{resolution: arr.Resolution{Title: "Movie Title", Year: 2024, Matched: true}}
	searcher := &fakeSearcher{releases: []prowlarr.Release{
		{Title: "Movie.Title.2024.2160p.BluRay.x265-GROUP", InfoHash: testHash, Size: 4096, Seeders: 12, Indexer: "alpha"},
		{Title: "Totally Unrelated Thing", InfoHash: "ffffffffffffffffffffffffffffffffffffffff", Size: 1},
	}}
	gen := NewSearch(builder, resolver, searcher, 0.8, 25)

	data, err := gen.Torrent(context.Background(), "Movie.Title.2024.2160p.BluRay.x265-GROUP")
	require.NoError(t, err)

	assert.Equal(t, 1, resolver.calls)
	assert.Equal(t, "Movie Title", resolver.lastID.Title)
	assert.Equal(t, 2024, resolver.lastID.Year)

	assert.Equal(t, 1, searcher.calls)
	assert.Equal(t, "Movie Title 2024", searcher.lastReq.Query)
	assert.Equal(t, []int{prowlarr.CategoryMovies}, searcher.lastReq.Categories)
	assert.Equal(t, 25, searcher.lastReq.Limit)

	mi, err := metainfo.Load(bytes.NewReader(data))
	require.NoError(t, err)
	info, err := mi.UnmarshalInfo()
	require.NoError(t, err)
	assert.Equal(t, "Movie.Title.2024.2160p.BluRay.x265-GROUP", info.Name)
	assert.Equal(t, int64(4096), info.Length)
}

func TestSearchGeneratorEpisode(t *testing.T) {
	builder := torrent.NewBuilder(torrent.Options{})
	resolver := &fakeResolver{resolution: arr.Resolution{Title: "Show Name", Matched: true}}
	searcher := &fakeSearcher{releases: []prowlarr.Release{
		{Title: "Show.Name.S02E05.1080p.WEB-DL", InfoHash: testHash, Size: 2048},
	}}
	gen := NewSearch(builder, resolver, searcher, 0.8, 0)

	_, err := gen.Torrent(context.Background(), "Show.Name.S02E05.1080p")
	require.NoError(t, err)

	assert.Equal(t, []int{prowlarr.CategoryTV}, searcher.lastReq.Categories)
	assert.Equal(t, 2, searcher.lastReq.Season)
	assert.Equal(t, 5, searcher.lastReq.Episode)
}

func TestSearchGeneratorRecordsMatchScore(t *testing.T) {
	builder := torrent.NewBuilder(torrent.Options{})
	resolver := &fakeResolver{resolution: arr.Resolution{Title: "Movie Title", Year: 2024, Matched: true}}
	searcher := &fakeSearcher{releases: []prowlarr.Release{
		{Title: "Movie.Title.2024.2160p.BluRay.x265-GROUP", InfoHash: testHash, Size: 4096},
	}}
	recorder := &fakeScoreRecorder{}
	gen := NewSearch(builder, resolver, searcher, 0.8, 0).WithScoreRecorder(recorder)

	_, err := gen.Torrent(context.Background(), "Movie.Title.2024.2160p.BluRay.x265-GROUP")
	require.NoError(t, err)

	require.Len(t, recorder.scores, 1)
	assert.InDelta(t, 1.0, recorder.scores[0], 1e-9, "identical names score 1.0")
}

func TestSearchGeneratorNoScoreOnMiss(t *testing.T) {
	builder := torrent.NewBuilder(torrent.Options{})
	resolver := &fakeResolver{resolution: arr.Resolution{Title: "Movie Title", Year: 2024}}
	searcher := &fakeSearcher{releases: []prowlarr.Release{
		{Title: "Completely Different Release", InfoHash: testHash},
	}}
	recorder := &fakeScoreRecorder{}
	gen := NewSearch(builder, resolver, searcher, 0.8, 0).WithScoreRecorder(recorder)

	_, err := gen.Torrent(context.Background(), "Movie.Title.2024")
	assert.ErrorIs(t, err, release.ErrNoMatch)
	assert.Empty(t, recorder.scores, "rejected matches are not observed")
}

func TestSearchGeneratorNoMatch(t *testing.T) {
	builder := torrent.NewBuilder(torrent.Options{})
	resolver := &fakeResolver{resolution: arr.Resolution{Title: "Movie Title", Year: 2024}}
	searcher := &fakeSearcher{releases: []prowlarr.Release{
		{Title: "Completely Different Release", InfoHash: testHash},
	}}
	gen := NewSearch(builder, resolver, searcher, 0.8, 0)

	_, err := gen.Torrent(context.Background(), "Movie.Title.2024")
	assert.ErrorIs(t, err, release.ErrNoMatch)
}

func TestSearchGeneratorNoUsableInfohash(t *testing.T) {
	builder := torrent.NewBuilder(torrent.Options{})
	resolver := &fakeResolver{resolution: arr.Resolution{Title: "Movie Title", Year: 2024}}
	searcher := &fakeSearcher{releases: []prowlarr.Release{
		{Title: "Movie.Title.2024.1080p", InfoHash: ""},
		{Title: "Movie.Title.2024.2160p", InfoHash: "not-a-hash"},
	}}
	gen := NewSearch(builder, resolver, searcher, 0.8, 0)

	_, err := gen.Torrent(context.Background(), "Movie.Title.2024")
	assert.ErrorIs(t, err, release.ErrNoMatch)
}

func TestSearchGeneratorResolverFailure(t *testing.T) {
	builder := torrent.NewBuilder(torrent.Options{})
	resolver := &fakeResolver{err: errors.New("connection refused")}
	searcher := &fakeSearcher{}
	gen := NewSearch(builder, resolver, searcher, 0.8, 0)

	_, err := gen.Torrent(context.Background(), "Movie.Title.2024")
	assert.ErrorIs(t, err, ErrResolverUnavailable)
	assert.Zero(t, searcher.calls, "searcher must not be called when the resolver fails")
}

func TestSearchGeneratorSearcherFailure(t *testing.T) {
	builder := torrent.NewBuilder(torrent.Options{})
	resolver := &fakeResolver{resolution: arr.Resolution{Title: "Movie Title", Year: 2024}}
	searcher := &fakeSearcher{err: errors.New("bad gateway")}
	gen := NewSearch(builder, resolver, searcher, 0.8, 0)

	_, err := gen.Torrent(context.Background(), "Movie.Title.2024")
	assert.ErrorIs(t, err, ErrSearcherUnavailable)
}

func TestSearchGeneratorDegradedResolution(t *testing.T) {
	builder := torrent.NewBuilder(torrent.Options{})
	resolver := &fakeResolver{resolution: arr.Resolution{Title: "Obscure Film", Year: 1999, Matched: false}}
	searcher := &fakeSearcher{releases: []prowlarr.Release{
		{Title: "Obscure.Film.1999.DVDRip", InfoHash: testHash},
	}}
	gen := NewSearch(builder, resolver, searcher, 0.8, 0)

	_, err := gen.Torrent(context.Background(), "Obscure.Film.1999.DVDRip")
	require.NoError(t, err)
	assert.Equal(t, "Obscure Film 1999", searcher.lastReq.Query)
}
