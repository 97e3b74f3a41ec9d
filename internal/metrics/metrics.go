// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package metrics exposes Prometheus counters for torrent generation on a
// listener separate from the main API.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Request outcomes recorded on the requests counter.
const (
	OutcomeOK       = "ok"
	OutcomeNoMatch  = "no_match"
	OutcomeUpstream = "upstream_error"
	OutcomeInvalid  = "invalid_request"
	OutcomeInternal = "internal_error"
)

// Manager owns the registry and the application collectors.
type Manager struct {
	registry *prometheus.Registry

	requests   *prometheus.CounterVec
	matchScore prometheus.Histogram
	duration   prometheus.Histogram
}

func NewManager() *Manager {
	registry := prometheus.NewRegistry()

	m := &Manager{
		registry: registry,
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fakearr_requests_total",
			Help: "Torrent requests by outcome",
		}, []string{"outcome", "kind"}),
		matchScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fakearr_match_score",
			Help:    "Similarity score of accepted matches",
			Buckets: prometheus.LinearBuckets(0.5, 0.05, 11),
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fakearr_generate_duration_seconds",
			Help:    "Time spent generating a torrent document",
			Buckets: prometheus.DefBuckets,
		}),
	}

	registry.MustRegister(
		m.requests,
		m.matchScore,
		m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Manager) RecordRequest(outcome, kind string) {
	m.requests.WithLabelValues(outcome, kind).Inc()
}

func (m *Manager) RecordMatchScore(score float64) {
	m.matchScore.Observe(score)
}

func (m *Manager) RecordDuration(d time.Duration) {
	m.duration.Observe(d.Seconds())
}

// Registry returns the underlying registry for test scraping.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Server serves /metrics on its own listener.
type Server struct {
	manager *Manager
	host    string
	port    int
}

func NewServer(manager *Manager, host string, port int) *Server {
	return &Server{manager: manager, host: host, port: port}
}

func (s *Server) ListenAndServe() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(s.manager.registry, promhttp.HandlerOpts{}))

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	log.Info().Str("addr", addr).Msg("Starting metrics server")

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return srv.ListenAndServe()
}
