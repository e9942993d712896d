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

package loader

// Router maps a device type to its shard address. The table is copied at
// construction and never mutated afterwards, so a Router is safe to share
// across files and workers.
type Router struct {
	shards map[string]string
}

// NewRouter builds a router from a device-type to shard-address table.
func NewRouter(table map[string]string) Router {
	shards := make(map[string]string, len(table))
	for devType, addr := range table {
		shards[devType] = addr
	}
	return Router{shards: shards}
}

// Route returns the shard address for devType. ok is false for an unknown
// device type; the caller counts that as a file error and drops the record.
func (r Router) Route(devType string) (addr string, ok bool) {
	addr, ok = r.shards[devType]
	return addr, ok
}
