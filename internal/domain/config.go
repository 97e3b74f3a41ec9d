// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Mode selects which torrent generator is active for the whole process.
// Exactly one mode is active per deployment; it never changes per request.
type Mode string

const (
	// ModeFixed serves every request with the same pre-configured infohash.
	ModeFixed Mode = "fixed"
	// ModeSearch resolves the requested filename against Radarr/Sonarr and
	// Prowlarr and serves the infohash of the best matching real release.
	ModeSearch Mode = "search"
)

var infoHashRe = regexp.MustCompile(`^[0-9a-f]{40}$`)

// ValidInfoHash reports whether s is a 40 character lowercase hex string.
func ValidInfoHash(s string) bool {
	return infoHashRe.MatchString(s)
}

type Config struct {
	Version string
	Host    string
	Port    int

	LogLevel      string
	LogPath       string
	LogMaxSize    int
	LogMaxBackups int

	// Mode is "fixed" or "search".
	Mode string

	// InfoHash is the shared infohash served in fixed mode (40 hex chars).
	InfoHash string

	// MatchThreshold is the minimum similarity ratio in [0,1] a search
	// candidate must reach to be served.
	MatchThreshold float64

	RadarrURL    string
	RadarrAPIKey string
	SonarrURL    string
	SonarrAPIKey string

	ProwlarrURL     string
	ProwlarrAPIKey  string
	SearchTimeout   int
	SearchLimit     int
	AnnounceURL     string

	PprofEnabled bool

	MetricsEnabled bool
	MetricsHost    string
	MetricsPort    int
}

// Validate checks the settings required by the active mode. Invalid or
// missing required configuration is startup-fatal, never a per-request error.
func (c *Config) Validate() error {
	switch Mode(c.Mode) {
	case ModeFixed:
		if !ValidInfoHash(strings.ToLower(c.InfoHash)) {
			return fmt.Errorf("fixed mode requires infoHash to be a 40 character hex string, got %q", c.InfoHash)
		}
	case ModeSearch:
		if c.ProwlarrURL == "" {
			return fmt.Errorf("search mode requires prowlarrUrl")
		}
		if c.ProwlarrAPIKey == "" {
			return fmt.Errorf("search mode requires prowlarrApiKey")
		}
		if c.RadarrURL == "" && c.SonarrURL == "" {
			return fmt.Errorf("search mode requires at least one of radarrUrl or sonarrUrl")
		}
	default:
		return fmt.Errorf("mode must be %q or %q, got %q", ModeFixed, ModeSearch, c.Mode)
	}

	if c.MatchThreshold < 0 || c.MatchThreshold > 1 {
		return fmt.Errorf("matchThreshold must be in [0,1], got %v", c.MatchThreshold)
	}

	return nil
}
