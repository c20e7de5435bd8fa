package wfaclient

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one client-side counter.
type MetricID uint16

const (
	// MetricLoginSuccess counts successful logins.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts failed logins, credential or transport.
	MetricLoginFailure
	// MetricSignupSuccess counts successful signups.
	MetricSignupSuccess
	// MetricSignupFailure counts failed signups.
	MetricSignupFailure
	// MetricLogout counts logout calls.
	MetricLogout
	// MetricSessionRestored counts persisted sessions restored after
	// verification.
	MetricSessionRestored
	// MetricSessionRestoreRejected counts persisted tokens the backend
	// refused during restore.
	MetricSessionRestoreRejected
	// MetricForcedLogout counts sessions cleared after a 401 on an
	// authenticated route.
	MetricForcedLogout
	// MetricFetchSuccess counts successful catalog fetches.
	MetricFetchSuccess
	// MetricFetchFailure counts failed catalog fetches.
	MetricFetchFailure
	// MetricStaleDropped counts superseded responses discarded without
	// touching a snapshot.
	MetricStaleDropped
	// MetricRegisterSuccess counts successful program enrollments.
	MetricRegisterSuccess
	// MetricRegisterFailure counts failed program enrollments.
	MetricRegisterFailure
	// MetricSubmitRefused counts submits refused by the in-flight latch.
	MetricSubmitRefused
	// MetricRequestLatency is the histogram of request round-trip times.
	MetricRequestLatency

	metricIDCount
)

const histBucketCount = 8

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

// paddedCounter keeps hot counters on separate cache lines.
type paddedCounter struct {
	value uint64
	_     [7]uint64
}

// Metrics is an in-process, allocation-free counter registry. All
// methods are safe for concurrent use; a nil *Metrics is a no-op.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter and
// histogram.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a registry honoring cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Inc increments a counter. No-op when metrics are disabled.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a request latency sample. Only
// [MetricRequestLatency] carries a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enableLatency || id != MetricRequestLatency {
		return
	}
	atomic.AddUint64(&m.histograms[id].buckets[bucketIndex(d)], 1)
}

// Value reads a single counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter, plus the latency histogram when
// enabled.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricRequestLatency].buckets[i])
		}
		s.Histograms[MetricRequestLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
