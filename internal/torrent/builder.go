// Copyright (c) 2025, s0up and the autobrr contributors.
// SPDX-License-Identifier: GPL-2.0-or-later

// Package torrent assembles and encodes fake torrent files. The served
// infohash is asserted, not derived: it is embedded verbatim in the outer
// dictionary while the info dictionary is synthesized from the requested
// name. A strict mode that insists on sha1(info) equality exists but cannot
// succeed for arbitrary targets; see HashMismatchError.
package torrent

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/autobrr/fakearr/internal/bencode"
	"github.com/autobrr/fakearr/internal/domain"
	"github.com/autobrr/fakearr/internal/release"
)

const (
	// DefaultPieceLength is 256 KiB per piece.
	DefaultPieceLength int64 = 262144
	// DefaultLength is the advertised size of the fake single file, 1 GiB.
	DefaultLength int64 = 1 << 30

	DefaultAnnounce = "udp://tracker.opentrackr.org:1337/announce"

	createdBy = "fakearr"

	// maxHashAttempts bounds the strict-mode pre-image search.
	maxHashAttempts = 64
)

// HashMismatchError is returned in strict mode when no info variant within
// the attempt bound hashes to the target value.
type HashMismatchError struct {
	Want     string
	Got      string
	Attempts int
}

func (e *HashMismatchError) Error() string {
	return fmt.Sprintf("info dictionary hash %s does not match target %s after %d attempts", e.Got, e.Want, e.Attempts)
}

func (e *HashMismatchError) Is(target error) bool {
	_, ok := target.(*HashMismatchError)
	return ok
}

// Spec describes one torrent file to be encoded. All fields are fixed before
// Encode; encoding the same Spec twice yields byte-identical output.
type Spec struct {
	Name         string
	Announce     []string
	PieceLength  int64
	Pieces       []byte
	Length       int64
	Private      bool
	Comment      string
	CreatedBy    string
	CreationDate int64

	// InfoHash is the asserted 40 hex char infohash carried in the outer
	// dictionary under "x_infohash".
	InfoHash string
}

// Options configures a Builder. Zero values fall back to the defaults above.
type Options struct {
	Announce    string
	PieceLength int64
	Length      int64

	// StrictHash switches the builder from assertion mode to the bounded
	// pre-image search. Not useful outside of tests.
	StrictHash bool

	// Now overrides the creation-date clock in tests.
	Now func() time.Time
}

type Builder struct {
	announce    string
	pieceLength int64
	length      int64
	strict      bool
	now         func() time.Time
}

func NewBuilder(opts Options) *Builder {
	b := &Builder{
		announce:    opts.Announce,
		pieceLength: opts.PieceLength,
		length:      opts.Length,
		strict:      opts.StrictHash,
		now:         opts.Now,
	}
	if b.announce == "" {
		b.announce = DefaultAnnounce
	}
	if b.pieceLength <= 0 {
		b.pieceLength = DefaultPieceLength
	}
	if b.length <= 0 {
		b.length = DefaultLength
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

// Fixed builds a torrent for name carrying the pre-configured infohash.
func (b *Builder) Fixed(name, infohash string) ([]byte, error) {
	spec, err := b.spec(name, infohash, b.length)
	if err != nil {
		return nil, err
	}
	return b.encode(spec)
}

// FromCandidate builds a torrent for a matched search candidate, carrying the
// candidate's real infohash and advertised size.
func (b *Builder) FromCandidate(c release.Candidate) ([]byte, error) {
	length := c.Size
	if length <= 0 {
		length = b.length
	}
	spec, err := b.spec(c.Name, c.InfoHash, length)
	if err != nil {
		return nil, err
	}
	return b.encode(spec)
}

func (b *Builder) spec(name, infohash string, length int64) (*Spec, error) {
	if name == "" {
		return nil, fmt.Errorf("torrent name is required")
	}

	infohash = strings.ToLower(strings.TrimSpace(infohash))
	if !domain.ValidInfoHash(infohash) {
		return nil, fmt.Errorf("infohash %q is not a 40 character hex string", infohash)
	}

	return &Spec{
		Name:         name,
		Announce:     []string{b.announce},
		PieceLength:  b.pieceLength,
		Pieces:       SyntheticPieces(infohash, length, b.pieceLength),
		Length:       length,
		Private:      true,
		Comment:      "Created by " + createdBy,
		CreatedBy:    createdBy,
		CreationDate: b.now().Unix(),
		InfoHash:     infohash,
	}, nil
}

func (b *Builder) encode(spec *Spec) ([]byte, error) {
	if !b.strict {
		return Encode(spec)
	}

	// Bounded pre-image search: vary the name padding until sha1(info)
	// equals the target. SHA-1 pre-images are infeasible to hit, so this
	// exists only to make the strict policy observable.
	base := spec.Name
	for attempt := 0; attempt < maxHashAttempts; attempt++ {
		if attempt > 0 {
			spec.Name = base + strings.Repeat(" ", attempt)
			spec.Pieces = SyntheticPieces(spec.InfoHash, spec.Length, spec.PieceLength)
		}
		got, err := InfoHash(spec)
		if err != nil {
			return nil, err
		}
		if got == spec.InfoHash {
			return Encode(spec)
		}
	}

	got, err := InfoHash(spec)
	if err != nil {
		return nil, err
	}
	return nil, &HashMismatchError{Want: spec.InfoHash, Got: got, Attempts: maxHashAttempts}
}

// Encode serializes the spec into a complete bencoded torrent file.
func Encode(spec *Spec) ([]byte, error) {
	outer := map[string]any{
		"comment":       spec.Comment,
		"created by":    spec.CreatedBy,
		"creation date": spec.CreationDate,
		"info":          infoDict(spec),
		"x_infohash":    spec.InfoHash,
	}

	if len(spec.Announce) > 0 {
		outer["announce"] = spec.Announce[0]
		tier := make([]any, 0, len(spec.Announce))
		for _, a := range spec.Announce {
			tier = append(tier, a)
		}
		outer["announce-list"] = []any{tier}
	}

	return bencode.Encode(outer)
}

// InfoHash returns the hex sha1 digest of the spec's encoded info dictionary.
// In assertion mode this generally differs from Spec.InfoHash; it is exposed
// for logging and verification.
func InfoHash(spec *Spec) (string, error) {
	encoded, err := bencode.Encode(infoDict(spec))
	if err != nil {
		return "", err
	}
	sum := sha1.Sum(encoded)
	return hex.EncodeToString(sum[:]), nil
}

func infoDict(spec *Spec) map[string]any {
	info := map[string]any{
		"name":         spec.Name,
		"piece length": spec.PieceLength,
		"pieces":       spec.Pieces,
		"length":       spec.Length,
	}
	if spec.Private {
		info["private"] = 1
	}
	return info
}

// SyntheticPieces derives a deterministic pieces blob for a fake file of the
// given length: one 20-byte sha1(seed + index) block per piece.
func SyntheticPieces(seed string, length, pieceLength int64) []byte {
	if pieceLength <= 0 {
		pieceLength = DefaultPieceLength
	}
	numPieces := (length + pieceLength - 1) / pieceLength
	if numPieces < 1 {
		numPieces = 1
	}

	pieces := make([]byte, 0, numPieces*20)
	for i := int64(0); i < numPieces; i++ {
		sum := sha1.Sum([]byte(seed + strconv.FormatInt(i, 10)))
		pieces = append(pieces, sum[:]...)
	}
	return pieces
}
