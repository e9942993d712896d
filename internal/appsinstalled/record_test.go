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

package appsinstalled

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// newObservedParser returns a parser whose warnings land in the returned
// observer sink.
func newObservedParser() (*Parser, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.WarnLevel)
	return NewParser(zap.New(core)), logs
}

func TestParseLine_WellFormed(t *testing.T) {
	p, logs := newObservedParser()

	rec, err := p.ParseLine("idfa\t1rfw452y52g2gq4g\t55.55\t42.42\t1423,43,567,3,7,23")
	require.NoError(t, err)
	assert.Equal(t, "idfa", rec.DevType)
	assert.Equal(t, "1rfw452y52g2gq4g", rec.DevID)
	assert.Equal(t, 55.55, rec.Lat)
	assert.Equal(t, 42.42, rec.Lon)
	assert.Equal(t, []uint32{1423, 43, 567, 3, 7, 23}, rec.Apps, "apps must preserve input order")
	assert.Equal(t, 0, logs.Len(), "well-formed line should produce no warnings")
}

func TestParseLine_Key(t *testing.T) {
	p, _ := newObservedParser()
	rec, err := p.ParseLine("gaid\t7rfw452y52g2gq4g\t55.55\t42.42\t7423,424")
	require.NoError(t, err)
	assert.Equal(t, "gaid:7rfw452y52g2gq4g", rec.Key())
}

func TestParseLine_TooFewFields(t *testing.T) {
	p, _ := newObservedParser()
	for _, line := range []string{
		"",
		"idfa",
		"idfa\tdev1",
		"idfa\tdev1\t55.55",
		"idfa\tdev1\t55.55\t42.42",
	} {
		_, err := p.ParseLine(line)
		assert.ErrorIs(t, err, ErrMalformedLine, "line %q", line)
	}
}

func TestParseLine_EmptyIdentity(t *testing.T) {
	p, _ := newObservedParser()

	_, err := p.ParseLine("\tdev1\t55.55\t42.42\t1,2")
	assert.ErrorIs(t, err, ErrEmptyIdentity)

	_, err = p.ParseLine("idfa\t\t55.55\t42.42\t1,2")
	assert.ErrorIs(t, err, ErrEmptyIdentity)
}

func TestParseLine_MixedApps(t *testing.T) {
	p, logs := newObservedParser()

	rec, err := p.ParseLine("idfa\tdev1\t55.55\t42.42\t12,xx,7")
	require.NoError(t, err)
	assert.Equal(t, []uint32{12, 7}, rec.Apps, "only all-digit tokens survive")
	assert.Equal(t, 1, logs.Len(), "exactly one warning for the apps fallback")
	assert.Equal(t, 1, logs.FilterMessage("not all user apps are digits").Len())
}

func TestParseLine_AppsWithSpaces(t *testing.T) {
	p, logs := newObservedParser()

	rec, err := p.ParseLine("idfa\tdev1\t55.55\t42.42\t12, 7 ,3")
	require.NoError(t, err)
	assert.Equal(t, []uint32{12, 7, 3}, rec.Apps)
	assert.Equal(t, 0, logs.Len())
}

func TestParseLine_BadGeo(t *testing.T) {
	p, logs := newObservedParser()

	rec, err := p.ParseLine("idfa\tdev1\tnorth\t42.42\t1,2")
	require.NoError(t, err, "bad geo still yields a record")
	assert.Equal(t, 0.0, rec.Lat, "unparseable coordinate is carried as 0.0")
	assert.Equal(t, 42.42, rec.Lon)
	assert.Equal(t, 1, logs.FilterMessage("invalid geo coords").Len())
}
