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

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"memcload/internal/appsinstalled"
	"memcload/internal/store"
	"memcload/internal/telemetry"
)

// Writer performs one record's store write: key "<dev_type>:<dev_id>",
// value from the appsinstalled codec, with bounded retry and exponential
// backoff. Every failure is converted into a false result; nothing
// propagates past Insert.
type Writer struct {
	maxRetries    int
	backoffFactor time.Duration
	dryRun        bool
	log           *zap.SugaredLogger

	// sleep is swapped out by tests to make the backoff schedule
	// observable without waiting it out.
	sleep func(time.Duration)
}

// NewWriter returns a writer configured from cfg (defaults applied).
func NewWriter(cfg Config, log *zap.Logger) *Writer {
	cfg = cfg.withDefaults()
	return &Writer{
		maxRetries:    cfg.MaxRetries,
		backoffFactor: cfg.BackoffFactor,
		dryRun:        cfg.DryRun,
		log:           log.Sugar(),
		sleep:         time.Sleep,
	}
}

// newBackoff returns the retry schedule: factor, factor*2, factor*4, ...
// with no jitter, so the delays are exact.
func (w *Writer) newBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = w.backoffFactor
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = time.Hour
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Insert writes rec to its shard through pool. In dry-run mode it logs the
// would-be write and reports success without touching the network. A
// connection is acquired per record and returned to the pool on success;
// on the failure path it is closed and discarded, never re-pooled.
func (w *Writer) Insert(ctx context.Context, pool *store.Pool, addr string, rec appsinstalled.Record) bool {
	key := rec.Key()
	if w.dryRun {
		w.log.Debugw("dry run set", "addr", addr, "key", key,
			"lat", rec.Lat, "lon", rec.Lon, "apps", len(rec.Apps))
		telemetry.StoreWritesTotal.Inc()
		return true
	}
	value := appsinstalled.Pack(rec)

	err := pool.WithConn(ctx, func(c store.Conn) error {
		schedule := w.newBackoff()
		var setErr error
		for attempt := 0; attempt < w.maxRetries; attempt++ {
			if setErr = c.Set(ctx, key, value); setErr == nil {
				return nil
			}
			// Back off between attempts only; after the last failure
			// there is nothing left to wait for.
			if attempt+1 < w.maxRetries {
				telemetry.RetriesTotal.Inc()
				w.sleep(schedule.NextBackOff())
			}
		}
		return setErr
	})
	if err != nil {
		telemetry.StoreWriteErrorsTotal.Inc()
		w.log.Errorw("cannot write to store", "addr", addr, "key", key, "err", err)
		return false
	}
	telemetry.StoreWritesTotal.Inc()
	return true
}
