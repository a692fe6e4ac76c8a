package pipeline

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	timestamp  time.Time
	durationMs int64
}

// StatsSnapshot is a point-in-time aggregate of duration samples for one
// pipeline phase.
type StatsSnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// PhaseStats tracks recent phase durations within a rolling time window,
// keyed by the Phase* constants.
type PhaseStats struct {
	mu     sync.Mutex
	phases map[string][]sample
	maxAge time.Duration
}

func NewPhaseStats(maxAge time.Duration) *PhaseStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &PhaseStats{
		phases: make(map[string][]sample),
		maxAge: maxAge,
	}
}

// Record adds one duration sample for a phase.
func (s *PhaseStats) Record(phase string, d time.Duration) {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	pruned := prune(s.phases[phase], now.Add(-s.maxAge))
	s.phases[phase] = append(pruned, sample{timestamp: now, durationMs: ms})
}

// RecordAll adds one sample per phase from a run's timing map.
func (s *PhaseStats) RecordAll(timings map[string]time.Duration) {
	for phase, d := range timings {
		s.Record(phase, d)
	}
}

// Snapshot aggregates the live window for every phase that has at least
// one sample left in it.
func (s *PhaseStats) Snapshot() map[string]StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]StatsSnapshot, len(s.phases))
	for phase, samples := range s.phases {
		samples = prune(samples, now.Add(-s.maxAge))
		s.phases[phase] = samples
		if len(samples) == 0 {
			continue
		}

		values := make([]int64, 0, len(samples))
		var sum int64
		for _, sm := range samples {
			values = append(values, sm.durationMs)
			sum += sm.durationMs
		}
		sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

		out[phase] = StatsSnapshot{
			Count: len(values),
			MinMs: values[0],
			MaxMs: values[len(values)-1],
			AvgMs: float64(sum) / float64(len(values)),
			P50Ms: percentile(values, 50),
			P95Ms: percentile(values, 95),
			P99Ms: percentile(values, 99),
		}
	}
	return out
}

func prune(samples []sample, cutoff time.Time) []sample {
	writeIdx := 0
	for _, sm := range samples {
		if !sm.timestamp.Before(cutoff) {
			samples[writeIdx] = sm
			writeIdx++
		}
	}
	return samples[:writeIdx]
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
