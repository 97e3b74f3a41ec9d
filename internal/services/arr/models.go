// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package arr

// Movie is a Radarr v3 lookup result. Only the fields the resolver needs
// are mapped.
type Movie struct {
	Title         string `json:"title"`
	OriginalTitle string `json:"originalTitle,omitempty"`
	Year          int    `json:"year"`
	TmdbID        int64  `json:"tmdbId"`
	ImdbID        string `json:"imdbId,omitempty"`
	CleanTitle    string `json:"cleanTitle,omitempty"`
}

// Series is a Sonarr v3 lookup result.
type Series struct {
	Title     string `json:"title"`
	Year      int    `json:"year"`
	TvdbID    int64  `json:"tvdbId"`
	ImdbID    string `json:"imdbId,omitempty"`
	TitleSlug string `json:"titleSlug,omitempty"`
	Status    string `json:"status,omitempty"`
}
