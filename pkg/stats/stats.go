package stats

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const (
	BYTE = 1 << (10 * iota)
	KILOBYTE
	MEGABYTE
	GIGABYTE
	TERABYTE
)

const statsFile = "stats"

var (
	revealedAddresses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "descwallet",
			Name:      "revealed_addresses_total",
			Help:      "Number of addresses revealed by keychain.",
		},
		[]string{"keychain"},
	)
	syncDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "descwallet",
			Name:      "sync_duration_seconds",
			Help:      "Duration of wallet syncs.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)
	syncErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "descwallet",
			Name:      "sync_errors_total",
			Help:      "Number of failed wallet syncs.",
		},
	)
	scannedScripts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "descwallet",
			Name:      "scanned_scripts_total",
			Help:      "Number of scripts looked up on the blockchain during syncs.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		revealedAddresses, syncDuration, syncErrors, scannedScripts,
	)
}

// AddRevealedAddress increments the counter of revealed addresses for the
// given keychain.
func AddRevealedAddress(keychain string) {
	revealedAddresses.WithLabelValues(keychain).Inc()
}

// ObserveSync records the outcome of a wallet sync started at the given time.
func ObserveSync(start time.Time, numScripts int, err error) {
	syncDuration.Observe(time.Since(start).Seconds())
	scannedScripts.Add(float64(numScripts))
	if err != nil {
		syncErrors.Inc()
	}
}

// EnableMemoryStatistics enables go routine that periodically prints memory
// usage of the go process until the context is done.
func EnableMemoryStatistics(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				PrintMemoryStatistics()
				PrintNumOfRoutines()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// toGigabytes returns given memory in bytes to gigabytes.
func toGigabytes(bytes uint64) float64 {
	return float64(bytes) / GIGABYTE
}

// PrintMemoryStatistics prints memory statistics using go runtime library.
func PrintMemoryStatistics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	log.Infof(
		"Total allocated: %.3fGB, Heap allocated: %.3fGB, "+
			"Allocated objects count: %v, Freed objects count: %v",
		toGigabytes(memStats.TotalAlloc),
		toGigabytes(memStats.HeapAlloc),
		memStats.Mallocs,
		memStats.Frees,
	)
}

// DumpPrometheusDefaults write default Prometheus metrics to a file in the
// given directory
func DumpPrometheusDefaults(datadir string) error {
	file, err := os.OpenFile(
		filepath.Join(datadir, statsFile),
		os.O_APPEND|os.O_CREATE|os.O_RDWR,
		0644,
	)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	metricFamily, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}
	for _, v := range metricFamily {
		if _, err := writer.WriteString(v.String() + "\n"); err != nil {
			return err
		}
	}

	return writer.Flush()
}

// PrintNumOfRoutines prints number of go routines currently running
func PrintNumOfRoutines() {
	log.Infof("Num of go routines: %v", runtime.NumGoroutine())
}
