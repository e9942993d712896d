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

// Shared test fakes for the loader package: an in-memory store that records
// every Set per shard address, and a gzip fixture writer.
package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"memcload/internal/store"
)

// recordingStore is a fake shard backend shared by all conns its dialer
// hands out. setErr, when non-nil, decides per call whether a Set fails.
type recordingStore struct {
	mu     sync.Mutex
	dials  int
	sets   map[string][]string // addr -> keys, in arrival order
	values map[string][]byte   // key -> last written value
	setErr func(addr, key string) error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{
		sets:   make(map[string][]string),
		values: make(map[string][]byte),
	}
}

func (s *recordingStore) dialer() store.Dialer {
	return func(addr string) store.Conn {
		s.mu.Lock()
		s.dials++
		s.mu.Unlock()
		return &recordingConn{s: s, addr: addr}
	}
}

func (s *recordingStore) setCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, keys := range s.sets {
		n += len(keys)
	}
	return n
}

func (s *recordingStore) keysFor(addr string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sets[addr]...)
}

func (s *recordingStore) valueOf(key string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

type recordingConn struct {
	s    *recordingStore
	addr string
}

func (c *recordingConn) Set(ctx context.Context, key string, value []byte) error {
	c.s.mu.Lock()
	errFn := c.s.setErr
	c.s.mu.Unlock()
	if errFn != nil {
		if err := errFn(c.addr, key); err != nil {
			return err
		}
	}
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.sets[c.addr] = append(c.s.sets[c.addr], key)
	c.s.values[key] = append([]byte(nil), value...)
	return nil
}

func (c *recordingConn) Close() error { return nil }

// testConfig keeps the pool acquire wait tiny so empty-pool dials don't
// stall the tests.
func testConfig() Config {
	return Config{
		Workers:     2,
		QueueSize:   16,
		AcquireWait: time.Millisecond,
	}
}

// writeGzFile writes lines as a gzip-compressed file under dir.
func writeGzFile(t *testing.T, dir, name string, lines []string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())
	return path
}
