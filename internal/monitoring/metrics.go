package monitoring

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics holds process counters for the scoring pipeline.
type Metrics struct {
	RequestCount int64
	ErrorCount   int64

	IndividualsScored  int64
	HeuristicFallbacks int64
	TextsClassified    int64
	CrisisTexts        int64
	SnapshotsComputed  int64
	SnapshotCacheHits  int64
	ArtifactReloads    int64

	StartTime time.Time

	// Rolling window of recent response times for percentile reporting.
	responseTimes []time.Duration
	responseMu    sync.RWMutex
}

// NewMetrics creates a zeroed metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{
		StartTime:     time.Now(),
		responseTimes: make([]time.Duration, 0, 1000),
	}
}

func (m *Metrics) IncrementRequest() { atomic.AddInt64(&m.RequestCount, 1) }
func (m *Metrics) IncrementError()   { atomic.AddInt64(&m.ErrorCount, 1) }

// RecordIndividualScored counts one individual assessment, flagged or not.
func (m *Metrics) RecordIndividualScored(heuristicFallback bool) {
	atomic.AddInt64(&m.IndividualsScored, 1)
	if heuristicFallback {
		atomic.AddInt64(&m.HeuristicFallbacks, 1)
	}
}

// RecordTextClassified counts one text classification; crisis results are
// tracked separately for intervention dashboards.
func (m *Metrics) RecordTextClassified(crisis bool) {
	atomic.AddInt64(&m.TextsClassified, 1)
	if crisis {
		atomic.AddInt64(&m.CrisisTexts, 1)
	}
}

// RecordSnapshot counts one organizational aggregation.
func (m *Metrics) RecordSnapshot(cacheHit bool) {
	if cacheHit {
		atomic.AddInt64(&m.SnapshotCacheHits, 1)
		return
	}
	atomic.AddInt64(&m.SnapshotsComputed, 1)
}

// RecordArtifactReload counts one bundle hot swap.
func (m *Metrics) RecordArtifactReload() { atomic.AddInt64(&m.ArtifactReloads, 1) }

// RecordResponseTime keeps the last 1000 samples for percentile reporting.
func (m *Metrics) RecordResponseTime(duration time.Duration) {
	m.responseMu.Lock()
	m.responseTimes = append(m.responseTimes, duration)
	if len(m.responseTimes) > 1000 {
		m.responseTimes = m.responseTimes[1:]
	}
	m.responseMu.Unlock()
}

// PercentileResponseTime returns the given percentile over the sample window.
func (m *Metrics) PercentileResponseTime(percentile float64) time.Duration {
	m.responseMu.RLock()
	defer m.responseMu.RUnlock()

	if len(m.responseTimes) == 0 {
		return 0
	}

	times := make([]time.Duration, len(m.responseTimes))
	copy(times, m.responseTimes)
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	index := int(float64(len(times)-1) * percentile / 100.0)
	if index >= len(times) {
		index = len(times) - 1
	}
	return times[index]
}

// GetStats returns the current counters for the health endpoint.
func (m *Metrics) GetStats() map[string]interface{} {
	requests := atomic.LoadInt64(&m.RequestCount)
	errors := atomic.LoadInt64(&m.ErrorCount)

	errorRate := float64(0)
	if requests > 0 {
		errorRate = float64(errors) / float64(requests) * 100
	}

	return map[string]interface{}{
		"uptime_seconds":       time.Since(m.StartTime).Seconds(),
		"total_requests":       requests,
		"error_count":          errors,
		"error_rate_percent":   errorRate,
		"individuals_scored":   atomic.LoadInt64(&m.IndividualsScored),
		"heuristic_fallbacks":  atomic.LoadInt64(&m.HeuristicFallbacks),
		"texts_classified":     atomic.LoadInt64(&m.TextsClassified),
		"crisis_texts":         atomic.LoadInt64(&m.CrisisTexts),
		"snapshots_computed":   atomic.LoadInt64(&m.SnapshotsComputed),
		"snapshot_cache_hits":  atomic.LoadInt64(&m.SnapshotCacheHits),
		"artifact_reloads":     atomic.LoadInt64(&m.ArtifactReloads),
		"p50_response_time_ms": float64(m.PercentileResponseTime(50)) / 1e6,
		"p95_response_time_ms": float64(m.PercentileResponseTime(95)) / 1e6,
		"p99_response_time_ms": float64(m.PercentileResponseTime(99)) / 1e6,
		"start_time":           m.StartTime.Format(time.RFC3339),
	}
}

// Reset zeroes all counters. Used in tests.
func (m *Metrics) Reset() {
	atomic.StoreInt64(&m.RequestCount, 0)
	atomic.StoreInt64(&m.ErrorCount, 0)
	atomic.StoreInt64(&m.IndividualsScored, 0)
	atomic.StoreInt64(&m.HeuristicFallbacks, 0)
	atomic.StoreInt64(&m.TextsClassified, 0)
	atomic.StoreInt64(&m.CrisisTexts, 0)
	atomic.StoreInt64(&m.SnapshotsComputed, 0)
	atomic.StoreInt64(&m.SnapshotCacheHits, 0)
	atomic.StoreInt64(&m.ArtifactReloads, 0)

	m.responseMu.Lock()
	m.responseTimes = m.responseTimes[:0]
	m.responseMu.Unlock()

	m.StartTime = time.Now()
}
