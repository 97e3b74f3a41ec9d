// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package release

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{name: "identical", a: "movie title 2024", b: "movie title 2024", want: 1},
		{name: "both empty", a: "", b: "", want: 1},
		{name: "one empty", a: "movie", b: "", want: 0},
		{name: "disjoint", a: "abc", b: "xyz", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSimilaritySuffixTokens(t *testing.T) {
	// Six runes appended to a 16 rune name: (16+22-6)/(16+22).
	got := Similarity("movie title 2024", "movie title 2024 2160p")
	assert.InDelta(t, 32.0/38.0, got, 1e-9)
}

func TestBestMatchThreshold(t *testing.T) {
	candidates := []Candidate{
		{Name: "Movie Title 2024 2160p", InfoHash: "1111111111111111111111111111111111111111"},
		{Name: "Completely Different Film", InfoHash: "2222222222222222222222222222222222222222"},
	}

	t.Run("selects close candidate above threshold", func(t *testing.T) {
		m, err := BestMatch("Movie Title 2024", candidates, 0.8)
		require.NoError(t, err)
		assert.Equal(t, candidates[0].InfoHash, m.Candidate.InfoHash)
		assert.GreaterOrEqual(t, m.Score, 0.8)
	})

	t.Run("no match when threshold too strict", func(t *testing.T) {
		_, err := BestMatch("Movie Title 2024", candidates, 0.99)
		assert.ErrorIs(t, err, ErrNoMatch)
	})
}

func TestBestMatchStableOnTies(t *testing.T) {
	// Identical display names: the first candidate in the original search
	// order must win.
	candidates := []Candidate{
		{Name: "Movie Title 2024 1080p", InfoHash: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"},
		{Name: "Movie.Title.2024.1080p", InfoHash: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"},
	}

	m, err := BestMatch("Movie Title 2024 1080p", candidates, 0.5)
	require.NoError(t, err)
	assert.Equal(t, candidates[0].InfoHash, m.Candidate.InfoHash)
}

func TestBestMatchSeparatorInsensitive(t *testing.T) {
	candidates := []Candidate{
		{Name: "Show.Name.S02E05.1080p.WEB-DL", InfoHash: "cccccccccccccccccccccccccccccccccccccccc"},
	}

	m, err := BestMatch("Show Name S02E05 1080p WEB DL", candidates, 0.9)
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.Score)
}

func TestBestMatchNoCandidates(t *testing.T) {
	_, err := BestMatch("Movie Title 2024", nil, 0.1)
	assert.ErrorIs(t, err, ErrNoMatch)
}
