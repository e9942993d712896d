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
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"memcload/internal/appsinstalled"
	"memcload/internal/store"
	"memcload/internal/telemetry"
)

// NormalErrRate is the per-file error budget. At or above it the load is
// logged as failed; the classification is informational and never blocks
// the file's completion.
const NormalErrRate = 0.01

// maxLineBytes bounds a single input line.
const maxLineBytes = 1 << 20

// Stats are one file's totals after every worker has drained.
type Stats struct {
	Processed int
	Errors    int
}

// ErrRate is errors relative to successfully processed records. Zero when
// nothing was processed.
func (s Stats) ErrRate() float64 {
	if s.Processed == 0 {
		return 0
	}
	return float64(s.Errors) / float64(s.Processed)
}

// Acceptable reports whether the file's error rate is under the budget.
func (s Stats) Acceptable() bool {
	return s.ErrRate() < NormalErrRate
}

// Loader processes one file at a time end to end. It is safe for
// concurrent use: every LoadFile call owns its pools, channels and workers,
// so concurrent files stay fully isolated.
type Loader struct {
	cfg    Config
	router Router
	dial   store.Dialer
	log    *zap.Logger
}

// NewLoader wires a loader from its collaborators. cfg is defaulted and
// captured; the router table is immutable by construction.
func NewLoader(cfg Config, router Router, dial store.Dialer, log *zap.Logger) *Loader {
	return &Loader{cfg: cfg.withDefaults(), router: router, dial: dial, log: log}
}

// LoadFile streams one gzip-compressed log through the parse/route/write
// pipeline and returns the file's totals.
//
// Phases: open the stream and start the workers; stream lines, counting
// parse failures and unknown device types as file errors and enqueueing the
// rest; close the job channel and wait for the workers; sum their counters
// and classify the error rate. An open or read failure is returned as an
// error and is isolated to this file.
func (l *Loader) LoadFile(ctx context.Context, path string) (Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stats{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return Stats{}, fmt.Errorf("gzip %s: %w", path, err)
	}
	defer gz.Close()

	log := l.log.Sugar()
	log.Infow("processing", "file", path)

	pools := store.NewPoolSet(l.dial, l.cfg.MaxIdleConns, l.cfg.AcquireWait)
	defer pools.Close()

	jobs := make(chan workItem, l.cfg.QueueSize)
	results := make(chan Counters, l.cfg.Workers)
	writer := NewWriter(l.cfg, l.log)
	wg := runWorkers(ctx, l.cfg.Workers, writer, jobs, results)

	parser := appsinstalled.NewParser(l.log)

	var st Stats
	var readErr error
	sc := bufio.NewScanner(gz)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

stream:
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		telemetry.LinesTotal.Inc()

		rec, err := parser.ParseLine(line)
		if err != nil {
			st.Errors++
			telemetry.ParseErrorsTotal.Inc()
			continue
		}
		addr, ok := l.router.Route(rec.DevType)
		if !ok {
			st.Errors++
			telemetry.UnknownDeviceTotal.Inc()
			log.Errorw("unknown device type", "dev_type", rec.DevType, "file", path)
			continue
		}
		select {
		case jobs <- workItem{pool: pools.Get(addr), addr: addr, rec: rec}:
		case <-ctx.Done():
			readErr = ctx.Err()
			break stream
		}
	}
	if readErr == nil {
		readErr = sc.Err()
	}

	// End-of-stream signal: workers drain what is queued, then exit.
	close(jobs)
	wg.Wait()
	close(results)
	for tally := range results {
		st.Processed += tally.Processed
		st.Errors += tally.Errors
	}

	if readErr != nil {
		return st, fmt.Errorf("read %s: %w", path, readErr)
	}

	if st.Processed > 0 {
		if st.Acceptable() {
			log.Infow("acceptable error rate, successful load",
				"file", path, "err_rate", st.ErrRate())
		} else {
			log.Errorw("high error rate, failed load",
				"file", path, "err_rate", st.ErrRate(), "threshold", NormalErrRate)
		}
	}
	return st, nil
}
