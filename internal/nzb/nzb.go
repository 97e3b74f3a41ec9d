// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package nzb renders minimal fake NZB documents for non-torrent download
// clients. Segments are placeholders; nothing in the document is fetchable.
package nzb

import (
	"bytes"
	"encoding/xml"
	"time"
)

const (
	header = `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
		`<!DOCTYPE nzb PUBLIC "-//newzBin//DTD NZB 1.1//EN" "http://www.newzbin.com/DTD/nzb/nzb-1.1.dtd">` + "\n"

	xmlns = "http://www.newzbin.com/DTD/2003/nzb"
)

type document struct {
	XMLName xml.Name `xml:"nzb"`
	Xmlns   string   `xml:"xmlns,attr"`
	Head    head     `xml:"head"`
	File    file     `xml:"file"`
}

type head struct {
	Meta []meta `xml:"meta"`
}

type meta struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type file struct {
	Poster   string    `xml:"poster,attr"`
	Date     int64     `xml:"date,attr"`
	Subject  string    `xml:"subject,attr"`
	Groups   []string  `xml:"groups>group"`
	Segments []segment `xml:"segments>segment"`
}

type segment struct {
	Bytes  int64  `xml:"bytes,attr"`
	Number int    `xml:"number,attr"`
	ID     string `xml:",chardata"`
}

// Generate renders a well-formed NZB document titled after name.
func Generate(name string, now time.Time) ([]byte, error) {
	doc := document{
		Xmlns: xmlns,
		Head: head{
			Meta: []meta{
				{Type: "title", Value: name},
				{Type: "date", Value: now.UTC().Format("2006-01-02 15:04:05 UTC")},
			},
		},
		File: file{
			Poster:  "anonymous@example.com",
			Date:    now.Unix(),
			Subject: name + " (1/1)",
			Groups:  []string{"alt.binaries.test"},
			Segments: []segment{
				{Bytes: 512000, Number: 1, ID: "fake-segment-id-1"},
				{Bytes: 512000, Number: 2, ID: "fake-segment-id-2"},
			},
		},
	}

	body, err := xml.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(header)
	buf.Write(body)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
