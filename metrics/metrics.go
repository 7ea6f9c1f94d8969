package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Prometheus metrics
	ticksExportedMetric = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_ticks_exported_total",
		Help: "The total number of normalized ticks exported",
	})

	ticksSkippedMetric = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_ticks_skipped_total",
		Help: "Valid snapshots that carried no new trade",
	})

	invalidSnapshotsMetric = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_invalid_snapshots_total",
		Help: "Snapshots rejected by market data validation",
	})

	writeFailuresMetric = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_write_failures_total",
		Help: "Snapshot or response artifacts that could not be published",
	})

	commandsMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_commands_total",
		Help: "Trade commands consumed, by response status",
	}, []string{"status"})

	quoteTierMetric = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bridge_quote_tier_total",
		Help: "Bid/ask resolution tier used per exported tick",
	}, []string{"tier"})

	cycleLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bridge_cycle_latency_seconds",
		Help:    "Time spent in each invocation cycle",
		Buckets: prometheus.ExponentialBuckets(0.00005, 2, 12),
	})

	latencyOverrunsMetric = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bridge_latency_overruns_total",
		Help: "Cycles that exceeded the advisory latency budget",
	})

	bufferSequenceMetric = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_buffer_sequence",
		Help: "Most recently assigned tick sequence number",
	})

	// Internal counters
	ticksExported uint64
	errorCount    uint64
	lastExport    time.Time
	startTime     = time.Now()
)

func IncrementExported() {
	atomic.AddUint64(&ticksExported, 1)
	ticksExportedMetric.Inc()
	lastExport = time.Now()
}

func IncrementSkipped() {
	ticksSkippedMetric.Inc()
}

func IncrementInvalid() {
	atomic.AddUint64(&errorCount, 1)
	invalidSnapshotsMetric.Inc()
}

func IncrementWriteFailures() {
	atomic.AddUint64(&errorCount, 1)
	writeFailuresMetric.Inc()
}

func IncrementCommands(status string) {
	commandsMetric.WithLabelValues(status).Inc()
}

func RecordQuoteTier(tier string) {
	quoteTierMetric.WithLabelValues(tier).Inc()
}

func RecordCycleLatency(duration time.Duration) {
	cycleLatency.Observe(duration.Seconds())
}

func IncrementLatencyOverruns() {
	latencyOverrunsMetric.Inc()
}

func SetBufferSequence(seq uint64) {
	bufferSequenceMetric.Set(float64(seq))
}

func GetStats() (uint64, uint64, time.Time, time.Duration) {
	return atomic.LoadUint64(&ticksExported),
		atomic.LoadUint64(&errorCount),
		lastExport,
		time.Since(startTime)
}
