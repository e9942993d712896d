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
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"memcload/internal/telemetry"
)

// processedMarker prefixes a finished file's base name.
const processedMarker = "."

// Dispatcher fans matched input files out across a bounded group of loader
// tasks and marks each file processed once its load completes. One bad file
// never stops the others.
type Dispatcher struct {
	loader      *Loader
	concurrency int
	log         *zap.SugaredLogger
}

// NewDispatcher returns a dispatcher running at most concurrency files at
// once; concurrency <= 0 selects the host CPU count.
func NewDispatcher(loader *Loader, concurrency int, log *zap.Logger) *Dispatcher {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	return &Dispatcher{loader: loader, concurrency: concurrency, log: log.Sugar()}
}

// Run processes every file matching pattern in sorted order and returns the
// number of files that failed (load error or rename error). Per-file
// failures are logged and isolated; Run itself only fails on a bad pattern
// or a cancelled context.
func (d *Dispatcher) Run(ctx context.Context, pattern string) (failed int, err error) {
	files, err := filepath.Glob(pattern)
	if err != nil {
		return 0, fmt.Errorf("glob %q: %w", pattern, err)
	}
	files = skipProcessed(files)
	sort.Strings(files)
	if len(files) == 0 {
		d.log.Infow("no files matched", "pattern", pattern)
		return 0, nil
	}

	var failures atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for _, path := range files {
		path := path
		telemetry.FilesTotal.Inc()
		g.Go(func() error {
			st, err := d.loader.LoadFile(gctx, path)
			if err != nil {
				failures.Add(1)
				telemetry.FilesFailedTotal.Inc()
				d.log.Errorw("file load failed", "file", path, "err", err)
				return nil
			}
			d.log.Infow("file done", "file", path,
				"processed", st.Processed, "errors", st.Errors)
			if err := markProcessed(path); err != nil {
				failures.Add(1)
				telemetry.FilesFailedTotal.Inc()
				d.log.Errorw("cannot mark file processed", "file", path, "err", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	if ctx.Err() != nil {
		return int(failures.Load()), ctx.Err()
	}
	return int(failures.Load()), nil
}

// skipProcessed drops matches whose base name already carries the
// processed marker. filepath.Match has no dotfile rule, so a pattern like
// "*.tsv.gz" matches previously renamed files too.
func skipProcessed(files []string) []string {
	kept := files[:0]
	for _, path := range files {
		if !strings.HasPrefix(filepath.Base(path), processedMarker) {
			kept = append(kept, path)
		}
	}
	return kept
}

// markProcessed renames path to "<marker><base>" in the same directory.
// Rename is atomic on a single filesystem, and Run skips marker-prefixed
// matches, so a re-run never picks the file up again.
func markProcessed(path string) error {
	dir, base := filepath.Split(path)
	return os.Rename(path, filepath.Join(dir, processedMarker+base))
}
