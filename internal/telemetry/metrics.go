// Package telemetry holds the loader's Prometheus counters and the optional
// standalone /metrics endpoint. Counters are global and label-free; they are
// registered eagerly, which is harmless when no endpoint is exposed.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LinesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "memcload_lines_total",
		Help: "Total non-blank input lines streamed across all files",
	})
	ParseErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "memcload_parse_errors_total",
		Help: "Total lines dropped by the parser (malformed layout or empty identity)",
	})
	UnknownDeviceTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "memcload_unknown_device_total",
		Help: "Total parsed records dropped because no shard is configured for their device type",
	})
	StoreWritesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "memcload_store_writes_total",
		Help: "Total records written to a store shard (dry-run writes included)",
	})
	StoreWriteErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "memcload_store_write_errors_total",
		Help: "Total records that failed all write attempts",
	})
	RetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "memcload_store_retries_total",
		Help: "Total backoff sleeps taken between failed write attempts",
	})
	ConnsDialedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "memcload_conns_dialed_total",
		Help: "Total new store connections dialed on pool misses",
	})
	FilesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "memcload_files_total",
		Help: "Total input files picked up by the dispatcher",
	})
	FilesFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "memcload_files_failed_total",
		Help: "Total files whose load or processed-rename failed",
	})
)

func init() {
	prometheus.MustRegister(
		LinesTotal, ParseErrorsTotal, UnknownDeviceTotal,
		StoreWritesTotal, StoreWriteErrorsTotal, RetriesTotal,
		ConnsDialedTotal, FilesTotal, FilesFailedTotal,
	)
}

// StartMetricsEndpoint exposes /metrics on addr in a background goroutine.
// Best-effort: a bind failure is silently dropped, the loader itself must
// not depend on the endpoint.
func StartMetricsEndpoint(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		_ = server.ListenAndServe()
	}()
}
