// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package handlers

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/autobrr/fakearr/internal/metrics"
	"github.com/autobrr/fakearr/internal/nzb"
	"github.com/autobrr/fakearr/internal/pipeline"
	"github.com/autobrr/fakearr/internal/release"
)

// DownloadHandler serves fake download documents. The filename's extension
// picks the format: .torrent and .nzb are supported, anything else is a
// client error.
type DownloadHandler struct {
	generator pipeline.Generator
	metrics   *metrics.Manager
	now       func() time.Time
}

func NewDownloadHandler(generator pipeline.Generator, manager *metrics.Manager) *DownloadHandler {
	return &DownloadHandler{
		generator: generator,
		metrics:   manager,
		now:       time.Now,
	}
}

func (h *DownloadHandler) Handle(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	ext := strings.ToLower(filepath.Ext(filename))
	name := strings.TrimSuffix(filename, filepath.Ext(filename))

	switch ext {
	case ".torrent":
		h.handleTorrent(w, r, name)
	case ".nzb":
		h.handleNZB(w, name)
	default:
		h.record(metrics.OutcomeInvalid, "unknown")
		RespondError(w, http.StatusBadRequest, fmt.Sprintf("unsupported file type %q", ext))
	}
}

func (h *DownloadHandler) handleTorrent(w http.ResponseWriter, r *http.Request, name string) {
	if name == "" {
		h.record(metrics.OutcomeInvalid, "torrent")
		RespondError(w, http.StatusNotFound, "empty release name")
		return
	}

	start := h.now()
	data, err := h.generator.Torrent(r.Context(), name)
	if err != nil {
		h.respondTorrentError(w, name, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordDuration(h.now().Sub(start))
	}
	h.record(metrics.OutcomeOK, "torrent")

	w.Header().Set("Content-Type", "application/x-bittorrent")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".torrent"))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *DownloadHandler) respondTorrentError(w http.ResponseWriter, name string, err error) {
	switch {
	case errors.Is(err, release.ErrNoMatch):
		h.record(metrics.OutcomeNoMatch, "torrent")
		log.Debug().Str("name", name).Msg("No matching release")
		RespondError(w, http.StatusNotFound, "no matching release found")

	case errors.Is(err, pipeline.ErrResolverUnavailable), errors.Is(err, pipeline.ErrSearcherUnavailable):
		h.record(metrics.OutcomeUpstream, "torrent")
		log.Error().Err(err).Str("name", name).Msg("Upstream service failed")
		RespondError(w, http.StatusInternalServerError, "upstream service unavailable")

	default:
		h.record(metrics.OutcomeInternal, "torrent")
		log.Error().Err(err).Str("name", name).Msg("Torrent generation failed")
		RespondError(w, http.StatusInternalServerError, "torrent generation failed")
	}
}

func (h *DownloadHandler) handleNZB(w http.ResponseWriter, name string) {
	if name == "" {
		h.record(metrics.OutcomeInvalid, "nzb")
		RespondError(w, http.StatusNotFound, "empty release name")
		return
	}

	data, err := nzb.Generate(name, h.now())
	if err != nil {
		h.record(metrics.OutcomeInternal, "nzb")
		log.Error().Err(err).Str("name", name).Msg("NZB generation failed")
		RespondError(w, http.StatusInternalServerError, "nzb generation failed")
		return
	}

	h.record(metrics.OutcomeOK, "nzb")

	w.Header().Set("Content-Type", "application/x-nzb")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".nzb"))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *DownloadHandler) record(outcome, kind string) {
	if h.metrics != nil {
		h.metrics.RecordRequest(outcome, kind)
	}
}
