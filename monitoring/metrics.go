package monitoring

import (
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// System resources
	MemoryUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_memory_bytes",
		Help: "Current memory usage in bytes",
	})

	GoroutineCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bridge_goroutines",
		Help: "Current number of goroutines",
	})

	// Artifact I/O
	WriteDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bridge_artifact_write_seconds",
		Help:    "Time taken to publish snapshot and response artifacts",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
	}, []string{"artifact"})
)

// Start collecting system metrics
func StartMetricsCollection() {
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			collectSystemMetrics()
		}
	}()
}

func collectSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	MemoryUsage.Set(float64(m.Alloc))
	GoroutineCount.Set(float64(runtime.NumGoroutine()))
}
