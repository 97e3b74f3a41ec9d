// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autobrr/fakearr/internal/config"
	"github.com/autobrr/fakearr/internal/domain"
	"github.com/autobrr/fakearr/internal/pipeline"
	"github.com/autobrr/fakearr/internal/release"
)

type stubGenerator struct {
	data  []byte
	err   error
	calls int
	last  string
}

func (s *stubGenerator) Torrent(_ context.Context, filename string) ([]byte, error) {
	s.calls++
	s.last = filename
	return s.data, s.err
}

func newTestServer(gen pipeline.Generator) *Server {
	return NewServer(&Dependencies{
		Config: &config.AppConfig{
			Config: &domain.Config{Host: "127.0.0.1", Port: 0},
		},
		Version:   "test",
		Generator: gen,
	})
}

func doRequest(t *testing.T, server *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestTorrentDownload(t *testing.T) {
	gen := &stubGenerator{data: []byte("d8:announce3:urle")}
	server := newTestServer(gen)

	rec := doRequest(t, server, "/Movie.Title.2024.2160p.BluRay.x265-GROUP.torrent")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-bittorrent", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Movie.Title.2024.2160p.BluRay.x265-GROUP.torrent"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "d8:announce3:urle", rec.Body.String())

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, "Movie.Title.2024.2160p.BluRay.x265-GROUP", gen.last, "extension is stripped before generation")
}

func TestTorrentDownloadNoMatch(t *testing.T) {
	gen := &stubGenerator{err: release.ErrNoMatch}
	server := newTestServer(gen)

	rec := doRequest(t, server, "/Unknown.Release.torrent")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no matching release")
}

func TestTorrentDownloadUpstreamFailure(t *testing.T) {
	for _, upstream := range []error{pipeline.ErrResolverUnavailable, pipeline.ErrSearcherUnavailable} {
		gen := &stubGenerator{err: errors.Wrap(upstream, "connection refused")}
		server := newTestServer(gen)

		rec := doRequest(t, server, "/Movie.Title.2024.torrent")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "upstream service unavailable")
	}
}

func TestTorrentDownloadInternalError(t *testing.T) {
	gen := &stubGenerator{err: errors.New("boom")}
	server := newTestServer(gen)

	rec := doRequest(t, server, "/Movie.Title.2024.torrent")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestEmptyBasename(t *testing.T) {
	gen := &stubGenerator{data: []byte("x")}
	server := newTestServer(gen)

	rec := doRequest(t, server, "/.torrent")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, gen.calls, "generator must not run for an empty release name")
}

func TestUnsupportedExtension(t *testing.T) {
	gen := &stubGenerator{data: []byte("x")}
	server := newTestServer(gen)

	for _, path := range []string{"/Movie.Title.2024.exe", "/Movie.Title.2024"} {
		rec := doRequest(t, server, path)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
	assert.Zero(t, gen.calls)
}

func TestNZBDownload(t *testing.T) {
	server := newTestServer(&stubGenerator{})

	rec := doRequest(t, server, "/Movie.Title.2024.nzb")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-nzb", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="Movie.Title.2024.nzb"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "Movie.Title.2024")
}

func TestHealthEndpoints(t *testing.T) {
	server := newTestServer(&stubGenerator{})

	for _, path := range []string{"/health", "/healthz/liveness", "/healthz/readiness"} {
		rec := doRequest(t, server, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestShutdownWithoutStart(t *testing.T) {
	server := newTestServer(&stubGenerator{})
	assert.NoError(t, server.Shutdown(context.Background()))
}
