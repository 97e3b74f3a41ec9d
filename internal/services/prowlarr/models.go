// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package prowlarr

import "time"

// SearchRequest describes one aggregated search against Prowlarr.
type SearchRequest struct {
	// Query is the search term (canonical title, optionally with year).
	Query string `json:"query"`
	// Categories to search (Torznab category IDs).
	Categories []int `json:"categories,omitempty"`
	// Season for TV searches (optional).
	Season int `json:"season,omitempty"`
	// Episode for TV searches (optional).
	Episode int `json:"episode,omitempty"`
	// Limit caps the number of results.
	Limit int `json:"limit,omitempty"`
}

// Release is a single search result as returned by Prowlarr's v1 search API.
type Release struct {
	GUID        string    `json:"guid"`
	Indexer     string    `json:"indexer"`
	IndexerID   int       `json:"indexerId"`
	Title       string    `json:"title"`
	Size        int64     `json:"size"`
	InfoHash    string    `json:"infoHash"`
	Seeders     int       `json:"seeders"`
	Leechers    int       `json:"leechers"`
	DownloadURL string    `json:"downloadUrl"`
	InfoURL     string    `json:"infoUrl"`
	PublishDate time.Time `json:"publishDate"`
	Categories  []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"categories"`
}

// Torznab category constants.
const (
	CategoryMovies   = 2000
	CategoryMoviesSD = 2030
	CategoryMoviesHD = 2040
	CategoryMovies4K = 2045

	CategoryTV      = 5000
	CategoryTVSD    = 5030
	CategoryTVHD    = 5040
	CategoryTV4K    = 5045
	CategoryTVAnime = 5070
)
