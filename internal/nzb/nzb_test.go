// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

package nzb

import (
	"encoding/xml"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	now := time.Unix(1700000000, 0)

	data, err := Generate("Movie.Title.2024.1080p", now)
	require.NoError(t, err)

	var doc struct {
		XMLName xml.Name `xml:"nzb"`
		Head    struct {
			Meta []struct {
				Type  string `xml:"type,attr"`
				Value string `xml:",chardata"`
			} `xml:"meta"`
		} `xml:"head"`
		File struct {
			Subject  string   `xml:"subject,attr"`
			Groups   []string `xml:"groups>group"`
			Segments []struct {
				Number int `xml:"number,attr"`
			} `xml:"segments>segment"`
		} `xml:"file"`
	}
	require.NoError(t, xml.Unmarshal(data, &doc))

	require.Len(t, doc.Head.Meta, 2)
	assert.Equal(t, "title", doc.Head.Meta[0].Type)
	assert.Equal(t, "Movie.Title.2024.1080p", doc.Head.Meta[0].Value)

	assert.Equal(t, "Movie.Title.2024.1080p (1/1)", doc.File.Subject)
	assert.Equal(t, []string{"alt.binaries.test"}, doc.File.Groups)
	assert.Len(t, doc.File.Segments, 2)

	assert.Contains(t, string(data), "<!DOCTYPE nzb PUBLIC")
}

func TestGenerateDeterministic(t *testing.T) {
	now := time.Unix(1700000000, 0)

	first, err := Generate("X", now)
	require.NoError(t, err)
	second, err := Generate("X", now)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
