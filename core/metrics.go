package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	SetOperation     = "set"
	GetOperation     = "get"
	RemoveOperation  = "remove"
	ScanOperation    = "scan"
	CompactOperation = "compact"
	RecoverOperation = "recover"
	SyncOperation    = "sync"
)

var (
	EngineOperationDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kvs_engine_operation_duration_seconds",
		Help:    "how long it takes to perform an engine operation",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
	}, []string{"engine", "operation"})

	EngineCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kvs_engine_cache_hit_count",
		Help: "number of reads served from the value cache",
	})

	EngineDiskHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kvs_engine_disk_hit_count",
		Help: "number of reads served from a generation file",
	})

	EngineKeys = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kvs_engine_keys",
		Help: "number of live keys in the index",
	})

	EngineStaleBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "kvs_engine_stale_bytes",
		Help: "bytes on disk no longer reachable from the index",
	})

	EngineCompactions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kvs_engine_compaction_count",
		Help: "how many times compaction has run",
	}, []string{"status"})

	EngineReclaimedBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "kvs_engine_reclaimed_bytes",
		Help: "bytes freed by compaction",
	})
)

func init() {
	prometheus.MustRegister(
		EngineOperationDurationSeconds,
		EngineCacheHits,
		EngineDiskHits,
		EngineKeys,
		EngineStaleBytes,
		EngineCompactions,
		EngineReclaimedBytes,
	)
}

func observe(engine, operation string, start time.Time) {
	EngineOperationDurationSeconds.WithLabelValues(engine, operation).Observe(time.Since(start).Seconds())
}
