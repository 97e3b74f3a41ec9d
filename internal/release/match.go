// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package release

import (
	"errors"
)

// ErrNoMatch is returned when no candidate scores at or above the threshold.
// It is a normal outcome, not a fault.
var ErrNoMatch = errors.New("no candidate matched the requested release")

// Candidate is a single search result: a display name plus the real infohash
// the indexer reported for it.
type Candidate struct {
	Name     string
	InfoHash string
	Size     int64
	Seeders  int
	Indexer  string
}

// Match pairs the winning candidate with its similarity score.
type Match struct {
	Candidate Candidate
	Score     float64
}

// BestMatch scores every candidate's display name against the requested
// release name and returns the highest scorer at or above threshold.
// Selection is stable: on equal scores the candidate that appeared first in
// the search results wins. ErrNoMatch is returned when the best score falls
// strictly below threshold or there are no candidates.
func BestMatch(requested string, candidates []Candidate, threshold float64) (Match, error) {
	if len(candidates) == 0 {
		return Match{}, ErrNoMatch
	}

	want := Normalize(requested)

	best := Match{Score: -1}
	for _, c := range candidates {
		score := Similarity(want, Normalize(c.Name))
		if score > best.Score {
			best = Match{Candidate: c, Score: score}
		}
	}

	if best.Score < threshold {
		return Match{}, ErrNoMatch
	}
	return best, nil
}

// Similarity returns a normalized edit-distance ratio in [0,1] between two
// already-normalized names: 0.0 for disjoint strings, 1.0 for identical ones.
// Substitutions count double so the ratio matches the classic
// (lenA+lenB-distance)/(lenA+lenB) sequence ratio.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}

	ra, rb := []rune(a), []rune(b)
	la, lb := len(ra), len(rb)
	if la == 0 || lb == 0 {
		return 0
	}

	prev := make([]int, lb+1)
	cur := make([]int, lb+1)
	for j := 0; j <= lb; j++ {
		prev[j] = j
	}

	for i := 1; i <= la; i++ {
		cur[0] = i
		for j := 1; j <= lb; j++ {
			cost := 2
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}

	dist := prev[lb]
	return float64(la+lb-dist) / float64(la+lb)
}
