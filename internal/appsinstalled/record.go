// Copyright 2026 Esteban Alvarez. All Rights Reserved.
//
// Created: August 2026
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package appsinstalled defines the installed-apps record, the parser that
// produces it from one raw input line, and the byte-stable codec used for
// store values.
package appsinstalled

import (
	"errors"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

// Record is one device's installed-apps entry.
//
// DevType and DevID are always non-empty on a parsed record; Apps may be
// empty. A record is consumed exactly once by a write attempt and not
// retained afterwards.
type Record struct {
	DevType string
	DevID   string
	Lat     float64
	Lon     float64
	Apps    []uint32
}

// Key is the shard write key, "<dev_type>:<dev_id>".
func (r Record) Key() string {
	return r.DevType + ":" + r.DevID
}

var (
	// ErrMalformedLine marks a line with fewer than five tab-separated fields.
	ErrMalformedLine = errors.New("appsinstalled: line has fewer than 5 fields")
	// ErrEmptyIdentity marks a line whose device type or device id is empty.
	ErrEmptyIdentity = errors.New("appsinstalled: empty device type or device id")
)

// Parser turns raw input lines into Records. Partial field failures (apps,
// geo coordinates) degrade leniently with a logged warning; only a missing
// field layout or an empty identity rejects the line.
type Parser struct {
	log *zap.SugaredLogger
}

// NewParser returns a parser that reports coercion warnings on log.
func NewParser(log *zap.Logger) *Parser {
	return &Parser{log: log.Sugar()}
}

// ParseLine parses one tab-separated line:
//
//	dev_type \t dev_id \t lat \t lon \t app1,app2,...
//
// The returned error is the only failure signal; ParseLine never panics.
// When the apps field contains non-integer tokens, only the all-digit
// tokens are kept and a warning is logged; the record is still produced.
// When a geo coordinate fails to parse, it is carried as 0.0 with a
// warning; the record is still produced.
func (p *Parser) ParseLine(line string) (Record, error) {
	// Trim the right side only: a leading tab is an empty device type,
	// which must surface as an identity error, not a short line.
	parts := strings.Split(strings.TrimRightFunc(line, unicode.IsSpace), "\t")
	if len(parts) < 5 {
		return Record{}, ErrMalformedLine
	}
	devType, devID, rawLat, rawLon, rawApps := parts[0], parts[1], parts[2], parts[3], parts[4]
	if devType == "" || devID == "" {
		return Record{}, ErrEmptyIdentity
	}

	apps, ok := parseApps(rawApps)
	if !ok {
		p.log.Warnw("not all user apps are digits", "line", line)
	}

	rec := Record{DevType: devType, DevID: devID, Apps: apps}

	lat, latErr := strconv.ParseFloat(strings.TrimSpace(rawLat), 64)
	lon, lonErr := strconv.ParseFloat(strings.TrimSpace(rawLon), 64)
	if latErr != nil || lonErr != nil {
		// Open policy decision: an unparseable coordinate is carried as 0.0.
		p.log.Warnw("invalid geo coords", "line", line)
	}
	if latErr == nil {
		rec.Lat = lat
	}
	if lonErr == nil {
		rec.Lon = lon
	}
	return rec, nil
}

// parseApps splits the comma-separated app list. The second return is false
// when any token failed to parse and the digits-only fallback was taken.
func parseApps(raw string) ([]uint32, bool) {
	tokens := strings.Split(raw, ",")
	apps := make([]uint32, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		id, err := strconv.ParseUint(tok, 10, 32)
		if err != nil {
			return appsDigitsOnly(tokens), false
		}
		apps = append(apps, uint32(id))
	}
	return apps, true
}

// appsDigitsOnly retains only tokens composed entirely of digits.
func appsDigitsOnly(tokens []string) []uint32 {
	apps := make([]uint32, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.TrimSpace(tok)
		if tok == "" || !isDigits(tok) {
			continue
		}
		if id, err := strconv.ParseUint(tok, 10, 32); err == nil {
			apps = append(apps, uint32(id))
		}
	}
	return apps
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
