package pipeline

import (
	"slices"
	"sync"
	"time"
)

type conversion struct {
	at         time.Time
	durationMs int64
	found      int
	converted  int
	warnings   int
}

// StatsSnapshot aggregates the conversions inside the stats window.
type StatsSnapshot struct {
	Conversions        int     `json:"conversions"`
	AddressesFound     int     `json:"addresses_found"`
	AddressesConverted int     `json:"addresses_converted"`
	Warnings           int     `json:"warnings"`
	MinMs              int64   `json:"min_ms"`
	MaxMs              int64   `json:"max_ms"`
	AvgMs              float64 `json:"avg_ms"`
	P50Ms              float64 `json:"p50_ms"`
	P95Ms              float64 `json:"p95_ms"`
}

// ConversionStats keeps a rolling window of completed conversions, from
// batch jobs and from synchronous API calls alike.
type ConversionStats struct {
	mu     sync.Mutex
	window time.Duration
	recent []conversion
}

func NewConversionStats(window time.Duration) *ConversionStats {
	if window <= 0 {
		window = time.Hour
	}
	return &ConversionStats{window: window}
}

// Record adds one conversion that took d.
func (s *ConversionStats) Record(d time.Duration, found, converted, warnings int) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(now)
	s.recent = append(s.recent, conversion{
		at:         now,
		durationMs: max(d.Milliseconds(), 0),
		found:      found,
		converted:  converted,
		warnings:   warnings,
	})
}

func (s *ConversionStats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(time.Now())

	var snap StatsSnapshot
	if len(s.recent) == 0 {
		return snap
	}
	ms := make([]int64, 0, len(s.recent))
	var total int64
	for _, c := range s.recent {
		ms = append(ms, c.durationMs)
		total += c.durationMs
		snap.AddressesFound += c.found
		snap.AddressesConverted += c.converted
		snap.Warnings += c.warnings
	}
	slices.Sort(ms)

	snap.Conversions = len(ms)
	snap.MinMs = ms[0]
	snap.MaxMs = ms[len(ms)-1]
	snap.AvgMs = float64(total) / float64(len(ms))
	snap.P50Ms = percentile(ms, 50)
	snap.P95Ms = percentile(ms, 95)
	return snap
}

func (s *ConversionStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	s.recent = slices.DeleteFunc(s.recent, func(c conversion) bool {
		return c.at.Before(cutoff)
	})
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []int64, pct float64) float64 {
	switch {
	case len(sorted) == 0:
		return 0
	case pct <= 0:
		return float64(sorted[0])
	case pct >= 100:
		return float64(sorted[len(sorted)-1])
	}
	rank := float64(len(sorted)-1) * pct / 100
	lo := int(rank)
	if lo+1 >= len(sorted) {
		return float64(sorted[lo])
	}
	frac := rank - float64(lo)
	return float64(sorted[lo]) + frac*float64(sorted[lo+1]-sorted[lo])
}
