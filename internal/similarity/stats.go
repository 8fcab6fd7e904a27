package similarity

import (
	"math"
	"sort"
	"sync"
	"time"
)

// CallStats tracks embedding call latencies over a rolling time window,
// plus total success and failure counts for the life of the process.
type CallStats struct {
	mu        sync.Mutex
	maxAge    time.Duration
	samples   []callSample
	successes int64
	failures  int64
}

type callSample struct {
	timestamp  time.Time
	durationMs int64
}

// StatsSnapshot is a point-in-time view of embedding call behavior.
// Latency figures cover only calls still inside the rolling window.
type StatsSnapshot struct {
	Count     int     `json:"count"`
	Successes int64   `json:"successes"`
	Failures  int64   `json:"failures"`
	MinMs     int64   `json:"min_ms"`
	MaxMs     int64   `json:"max_ms"`
	AvgMs     float64 `json:"avg_ms"`
	P50Ms     float64 `json:"p50_ms"`
	P95Ms     float64 `json:"p95_ms"`
	P99Ms     float64 `json:"p99_ms"`
}

// NewCallStats creates a collector that keeps samples for maxAge.
func NewCallStats(maxAge time.Duration) *CallStats {
	return &CallStats{maxAge: maxAge}
}

// Record stores one call's duration and outcome. Negative durations are
// clamped to zero.
func (s *CallStats) Record(durationMs int64, ok bool) {
	if durationMs < 0 {
		durationMs = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if ok {
		s.successes++
	} else {
		s.failures++
	}
	s.samples = append(s.samples, callSample{timestamp: time.Now(), durationMs: durationMs})
	s.pruneLocked()
}

// Snapshot prunes expired samples and summarizes the rest.
func (s *CallStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()

	snap := StatsSnapshot{
		Count:     len(s.samples),
		Successes: s.successes,
		Failures:  s.failures,
	}
	if len(s.samples) == 0 {
		return snap
	}

	durations := make([]int64, len(s.samples))
	var sum int64
	for i, smp := range s.samples {
		durations[i] = smp.durationMs
		sum += smp.durationMs
	}
	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	snap.MinMs = durations[0]
	snap.MaxMs = durations[len(durations)-1]
	snap.AvgMs = float64(sum) / float64(len(durations))
	snap.P50Ms = percentile(durations, 50)
	snap.P95Ms = percentile(durations, 95)
	snap.P99Ms = percentile(durations, 99)
	return snap
}

func (s *CallStats) pruneLocked() {
	cutoff := time.Now().Add(-s.maxAge)
	keep := s.samples[:0]
	for _, smp := range s.samples {
		if smp.timestamp.After(cutoff) {
			keep = append(keep, smp)
		}
	}
	s.samples = keep
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sorted []int64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return float64(sorted[0])
	}
	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return float64(sorted[lower])
	}
	frac := rank - float64(lower)
	return float64(sorted[lower])*(1-frac) + float64(sorted[upper])*frac
}
