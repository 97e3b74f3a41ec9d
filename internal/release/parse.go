// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package release parses scene-style release filenames into a structured
// media identity and scores search candidates against a requested name.
package release

import (
	"path/filepath"
	"strings"

	"github.com/moistari/rls"
)

// Identity is the structured media identity parsed from a requested filename.
// It is derived once per request and not mutated afterwards.
type Identity struct {
	Title   string
	Year    int
	Season  int
	Episode int
	Quality []string

	// Raw is the requested filename with the file extension stripped.
	Raw string
}

// IsEpisode reports whether the identity refers to a TV episode or season
// rather than a movie.
func (id Identity) IsEpisode() bool {
	return id.Season > 0 || id.Episode > 0
}

// strippable file extensions on inbound request names. Anything else is kept
// as part of the release name (e.g. trailing group tags with dots).
var knownExtensions = map[string]bool{
	".torrent": true,
	".nzb":     true,
	".mkv":     true,
	".mp4":     true,
	".avi":     true,
	".m4v":     true,
}

// Parse extracts a media identity from a release-style filename. It never
// fails: malformed input degrades to a best-effort title with no year or
// episode information.
func Parse(filename string) Identity {
	name := strings.TrimSpace(filename)
	if ext := strings.ToLower(filepath.Ext(name)); knownExtensions[ext] {
		name = name[:len(name)-len(ext)]
	}

	id := Identity{Raw: name}
	if name == "" {
		return id
	}

	r := rls.ParseString(name)

	id.Title = strings.TrimSpace(r.Title)
	if id.Title == "" {
		// rls found nothing usable; fall back to the separator-stripped name.
		id.Title = strings.Join(strings.FieldsFunc(name, isSeparator), " ")
	}
	if r.Year >= 1900 && r.Year <= 2099 {
		id.Year = r.Year
	}
	id.Season = r.Series
	id.Episode = r.Episode

	id.Quality = qualityTokens(&r)

	return id
}

// qualityTokens collects the release metadata tokens that follow the title
// (resolution, source, codec, HDR, group).
func qualityTokens(r *rls.Release) []string {
	var tokens []string
	if r.Resolution != "" {
		tokens = append(tokens, r.Resolution)
	}
	if r.Source != "" {
		tokens = append(tokens, r.Source)
	}
	tokens = append(tokens, r.Codec...)
	tokens = append(tokens, r.HDR...)
	if r.Group != "" {
		tokens = append(tokens, r.Group)
	}
	return tokens
}

func isSeparator(c rune) bool {
	switch c {
	case '.', '_', '-', ' ':
		return true
	}
	return false
}

// Normalize lowercases a release name and collapses the scene separator
// characters (dots, underscores, hyphens) to single spaces, stripping the
// punctuation that commonly differs between naming styles.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))

	// Apostrophes are dropped in dot notation ("Bob's" vs "Bobs.Burgers").
	name = strings.ReplaceAll(name, "'", "")
	name = strings.ReplaceAll(name, "’", "")
	name = strings.ReplaceAll(name, "‘", "")
	name = strings.ReplaceAll(name, "`", "")
	name = strings.ReplaceAll(name, ":", "")

	return strings.Join(strings.FieldsFunc(name, isSeparator), " ")
}
