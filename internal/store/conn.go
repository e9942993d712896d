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

// Package store provides the key-value store client surface the loader
// writes through, a go-redis adapter for it, and the per-shard connection
// pool.
package store

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Conn abstracts the minimal surface we need from a store client.
// Implementations may wrap github.com/redis/go-redis/v9 or any equivalent
// client that supports a plain key/value set.
type Conn interface {
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}

// Dialer opens a new connection to one shard address. Dialing is lazy in
// the go-redis sense: the returned Conn may defer the actual network
// connect to the first Set, whose error then carries the dial failure.
type Dialer func(addr string) Conn

// redisConn adapts a go-redis client to Conn.
type redisConn struct {
	c *redis.Client
}

func (rc redisConn) Set(ctx context.Context, key string, value []byte) error {
	return rc.c.Set(ctx, key, value, 0).Err()
}

func (rc redisConn) Close() error {
	return rc.c.Close()
}

// NewRedisDialer returns a Dialer whose connections use socketTimeout for
// dial, read and write deadlines.
func NewRedisDialer(socketTimeout time.Duration) Dialer {
	return func(addr string) Conn {
		return redisConn{c: redis.NewClient(&redis.Options{
			Addr:         addr,
			DialTimeout:  socketTimeout,
			ReadTimeout:  socketTimeout,
			WriteTimeout: socketTimeout,
			// The loader manages its own per-shard pooling; one live
			// connection per client is enough.
			PoolSize:        1,
			MaxRetries:      -1,
			MinIdleConns:    0,
			ConnMaxIdleTime: -1,
		})}
	}
}
