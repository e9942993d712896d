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
	"errors"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// The store value is the protobuf wire encoding of
//
//	message UserApps {
//	  double lat = 1;
//	  double lon = 2;
//	  repeated uint32 apps = 3 [packed = true];
//	}
//
// Fields are emitted in field-number order with no unknown fields, so the
// encoding is byte-stable for a given record.

// ErrBadValue marks a value that is not a valid UserApps encoding.
var ErrBadValue = errors.New("appsinstalled: malformed value encoding")

// Pack encodes a record's lat, lon and apps as the store value. Identity
// fields are not part of the value; they live in the key.
func Pack(r Record) []byte {
	b := protowire.AppendTag(nil, 1, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(r.Lat))
	b = protowire.AppendTag(b, 2, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, math.Float64bits(r.Lon))
	if len(r.Apps) > 0 {
		packed := make([]byte, 0, 2*len(r.Apps))
		for _, app := range r.Apps {
			packed = protowire.AppendVarint(packed, uint64(app))
		}
		b = protowire.AppendTag(b, 3, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}
	return b
}

// Unpack decodes a store value produced by Pack. The returned record has
// empty identity fields. It accepts apps encoded packed or one varint per
// tag, per proto3 decoding rules.
func Unpack(value []byte) (Record, error) {
	var rec Record
	for len(value) > 0 {
		num, typ, n := protowire.ConsumeTag(value)
		if n < 0 {
			return Record{}, ErrBadValue
		}
		value = value[n:]
		switch {
		case num == 1 && typ == protowire.Fixed64Type:
			bits, n := protowire.ConsumeFixed64(value)
			if n < 0 {
				return Record{}, ErrBadValue
			}
			rec.Lat = math.Float64frombits(bits)
			value = value[n:]
		case num == 2 && typ == protowire.Fixed64Type:
			bits, n := protowire.ConsumeFixed64(value)
			if n < 0 {
				return Record{}, ErrBadValue
			}
			rec.Lon = math.Float64frombits(bits)
			value = value[n:]
		case num == 3 && typ == protowire.BytesType:
			packed, n := protowire.ConsumeBytes(value)
			if n < 0 {
				return Record{}, ErrBadValue
			}
			value = value[n:]
			for len(packed) > 0 {
				app, n := protowire.ConsumeVarint(packed)
				if n < 0 {
					return Record{}, ErrBadValue
				}
				rec.Apps = append(rec.Apps, uint32(app))
				packed = packed[n:]
			}
		case num == 3 && typ == protowire.VarintType:
			app, n := protowire.ConsumeVarint(value)
			if n < 0 {
				return Record{}, ErrBadValue
			}
			rec.Apps = append(rec.Apps, uint32(app))
			value = value[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, value)
			if n < 0 {
				return Record{}, ErrBadValue
			}
			value = value[n:]
		}
	}
	return rec, nil
}
