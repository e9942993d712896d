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

package store

import (
	"context"
	"sync"
	"time"

	"memcload/internal/telemetry"
)

const (
	// DefaultAcquireWait bounds how long Acquire waits for an idle
	// connection before dialing a fresh one.
	DefaultAcquireWait = 100 * time.Millisecond
	// DefaultMaxIdle bounds the free list per shard. Connections released
	// beyond the bound are closed, not queued.
	DefaultMaxIdle = 64
)

// Pool keeps reusable connections to a single shard address. A connection,
// once dialed for the pool's address, is only ever used against that
// address. Pools are scoped to one file-processing invocation.
type Pool struct {
	addr string
	dial Dialer
	wait time.Duration
	idle chan Conn
}

// NewPool returns a pool for addr. maxIdle <= 0 and wait <= 0 select the
// package defaults; the bounds are always explicit, never "zero means
// unbounded".
func NewPool(addr string, dial Dialer, maxIdle int, wait time.Duration) *Pool {
	if maxIdle <= 0 {
		maxIdle = DefaultMaxIdle
	}
	if wait <= 0 {
		wait = DefaultAcquireWait
	}
	return &Pool{addr: addr, dial: dial, wait: wait, idle: make(chan Conn, maxIdle)}
}

// Addr returns the shard address this pool serves.
func (p *Pool) Addr() string { return p.addr }

// Acquire returns an idle connection if one is available or shows up within
// the acquire wait, and dials a fresh one otherwise. It only fails when ctx
// is done.
func (p *Pool) Acquire(ctx context.Context) (Conn, error) {
	select {
	case c := <-p.idle:
		return c, nil
	default:
	}
	t := time.NewTimer(p.wait)
	defer t.Stop()
	select {
	case c := <-p.idle:
		return c, nil
	case <-t.C:
		telemetry.ConnsDialedTotal.Inc()
		return p.dial(p.addr), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns c to the free list for reuse by a later Acquire. When the
// free list is full the connection is closed instead.
func (p *Pool) Release(c Conn) {
	select {
	case p.idle <- c:
	default:
		_ = c.Close()
	}
}

// WithConn runs fn with a pooled connection. On success the connection goes
// back to the free list; on error it is closed and discarded, so the pool
// never re-queues a connection in an unknown state.
func (p *Pool) WithConn(ctx context.Context, fn func(Conn) error) error {
	c, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	if err := fn(c); err != nil {
		_ = c.Close()
		return err
	}
	p.Release(c)
	return nil
}

// Close drains and closes every idle connection.
func (p *Pool) Close() {
	for {
		select {
		case c := <-p.idle:
			_ = c.Close()
		default:
			return
		}
	}
}

// PoolSet lazily creates one Pool per shard address. One set is created per
// file-processing invocation and discarded when the file completes; sets
// are never shared across files.
type PoolSet struct {
	dial    Dialer
	maxIdle int
	wait    time.Duration

	mu    sync.Mutex
	pools map[string]*Pool
}

// NewPoolSet returns an empty set; pools appear on first Get per address.
func NewPoolSet(dial Dialer, maxIdle int, wait time.Duration) *PoolSet {
	return &PoolSet{dial: dial, maxIdle: maxIdle, wait: wait, pools: make(map[string]*Pool)}
}

// Get returns the pool for addr, creating it on first use.
func (s *PoolSet) Get(addr string) *Pool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pools[addr]
	if !ok {
		p = NewPool(addr, s.dial, s.maxIdle, s.wait)
		s.pools[addr] = p
	}
	return p
}

// Close closes every pool in the set.
func (s *PoolSet) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pools {
		p.Close()
	}
}
