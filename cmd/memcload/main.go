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

// Command memcload bulk-loads gzip-compressed installed-apps logs into
// sharded key-value store endpoints selected by device type.
//
// Each matched file is processed by its own loader task: lines are parsed,
// routed to the shard configured for their device type, and written by a
// fixed pool of workers through per-shard connection pools with bounded
// retry. Finished files are renamed with a leading "." so a re-run skips
// them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"memcload/internal/loader"
	"memcload/internal/store"
	"memcload/internal/telemetry"
)

func main() {
	pattern := flag.String("pattern", "/data/appsinstalled/*.tsv.gz", "Glob pattern of input files")
	dry := flag.Bool("dry", false, "Dry run: log would-be writes, touch no store")
	logPath := flag.String("log", "", "Log file path (default: stderr)")

	idfa := flag.String("idfa", "127.0.0.1:33013", "Shard address for idfa devices")
	gaid := flag.String("gaid", "127.0.0.1:33014", "Shard address for gaid devices")
	adid := flag.String("adid", "127.0.0.1:33015", "Shard address for adid devices")
	dvid := flag.String("dvid", "127.0.0.1:33016", "Shard address for dvid devices")

	workers := flag.Int("workers", loader.DefaultWorkers, "Write workers per file")
	maxRetries := flag.Int("max_retries", loader.DefaultMaxRetries, "Write attempts per record (1 = no retry)")
	socketTimeout := flag.Duration("socket_timeout", loader.DefaultSocketTimeout, "Store socket timeout")
	backoffFactor := flag.Duration("backoff_factor", loader.DefaultBackoffFactor, "Base retry delay; attempt n sleeps factor*2^n")
	queueSize := flag.Int("queue_size", loader.DefaultQueueSize, "Job queue capacity per file")
	maxIdleConns := flag.Int("max_idle_conns", store.DefaultMaxIdle, "Idle connections kept per shard pool")
	acquireWait := flag.Duration("acquire_wait", store.DefaultAcquireWait, "How long to wait for an idle connection before dialing")
	fileConcurrency := flag.Int("file_concurrency", 0, "Concurrent files (0 = host CPU count)")
	metricsAddr := flag.String("metrics_addr", "", "If non-empty, expose Prometheus /metrics on this address (e.g., :9090)")
	flag.Parse()

	log, err := buildLogger(*logPath, *dry)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if *metricsAddr != "" {
		telemetry.StartMetricsEndpoint(*metricsAddr)
	}

	cfg := loader.Config{
		DryRun:        *dry,
		MaxRetries:    *maxRetries,
		SocketTimeout: *socketTimeout,
		BackoffFactor: *backoffFactor,
		Workers:       *workers,
		QueueSize:     *queueSize,
		MaxIdleConns:  *maxIdleConns,
		AcquireWait:   *acquireWait,
	}
	router := loader.NewRouter(map[string]string{
		"idfa": *idfa,
		"gaid": *gaid,
		"adid": *adid,
		"dvid": *dvid,
	})
	dial := store.NewRedisDialer(*socketTimeout)

	ld := loader.NewLoader(cfg, router, dial, log)
	dispatcher := loader.NewDispatcher(ld, *fileConcurrency, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	log.Sugar().Infow("memc loader started", "pattern", *pattern, "dry_run", *dry)

	failed, err := dispatcher.Run(ctx, *pattern)
	if err != nil {
		log.Sugar().Errorw("run aborted", "err", err)
		os.Exit(1)
	}
	log.Sugar().Infow("memc loader finished",
		"failed_files", failed, "elapsed", time.Since(start))
	if failed > 0 {
		os.Exit(1)
	}
}

// buildLogger sets up zap: production config, debug level in dry-run mode
// (dry writes are logged at debug), optional file target.
func buildLogger(path string, dry bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if dry {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if path != "" {
		cfg.OutputPaths = []string{path}
		cfg.ErrorOutputPaths = []string{path}
	}
	return cfg.Build()
}
