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

// Package loader implements the concurrent loading pipeline: per-file
// streaming through the parser and shard router, a fixed worker pool
// writing through per-shard connection pools with bounded retry, per-file
// error-rate classification, and the dispatcher that fans files out and
// dot-renames them when done.
package loader

import "time"

const (
	// DefaultWorkers is the worker count per file.
	DefaultWorkers = 4
	// DefaultMaxRetries is the write attempt budget (1 = no retry).
	DefaultMaxRetries = 1
	// DefaultSocketTimeout bounds each store operation.
	DefaultSocketTimeout = 3 * time.Second
	// DefaultBackoffFactor is the base retry delay; attempt n sleeps
	// factor * 2^n.
	DefaultBackoffFactor = 300 * time.Millisecond
	// DefaultQueueSize is the job channel capacity. The bound is explicit:
	// a full channel applies backpressure to the streaming producer.
	DefaultQueueSize = 1024
)

// Config carries the knobs for one loader run. It is built once, defaults
// applied via withDefaults, and passed by value; nothing mutates it after
// construction.
type Config struct {
	DryRun        bool
	MaxRetries    int
	SocketTimeout time.Duration
	BackoffFactor time.Duration
	Workers       int
	QueueSize     int

	// MaxIdleConns and AcquireWait are handed to each per-shard pool;
	// zero selects the store package defaults.
	MaxIdleConns int
	AcquireWait  time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.SocketTimeout <= 0 {
		c.SocketTimeout = DefaultSocketTimeout
	}
	if c.BackoffFactor <= 0 {
		c.BackoffFactor = DefaultBackoffFactor
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.QueueSize <= 0 {
		c.QueueSize = DefaultQueueSize
	}
	return c
}
