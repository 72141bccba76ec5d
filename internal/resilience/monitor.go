package resilience

import (
	"log/slog"
	"sync"
	"time"
)

// Monitor keeps rolling per-operation-type statistics: counts, success
// rate, average duration, and the fraction of slow operations. State is
// process-local and resets on restart.
type Monitor struct {
	mu            sync.RWMutex
	stats         map[string]*opStats
	slowThreshold time.Duration
}

type opStats struct {
	count    int64
	errors   int64
	slow     int64
	duration time.Duration
}

const DefaultSlowThreshold = 500 * time.Millisecond

func NewMonitor(slowThreshold time.Duration) *Monitor {
	if slowThreshold <= 0 {
		slowThreshold = DefaultSlowThreshold
	}
	return &Monitor{stats: make(map[string]*opStats), slowThreshold: slowThreshold}
}

// Record captures one timed operation. Durations beyond the slow threshold
// are logged as warnings with a truncated context.
func (m *Monitor) Record(operation string, d time.Duration, err error) {
	m.mu.Lock()
	st, ok := m.stats[operation]
	if !ok {
		st = &opStats{}
		m.stats[operation] = st
	}
	st.count++
	st.duration += d
	if err != nil {
		st.errors++
	}
	slow := d > m.slowThreshold
	if slow {
		st.slow++
	}
	m.mu.Unlock()

	if slow {
		slog.Warn("slow operation", "operation", operation, "duration_ms", d.Milliseconds(),
			"threshold_ms", m.slowThreshold.Milliseconds())
	}
}

// OpSnapshot is a point-in-time view of one operation type.
type OpSnapshot struct {
	Count         int64   `json:"count"`
	SuccessRate   float64 `json:"success_rate"`
	ErrorRate     float64 `json:"error_rate"`
	AvgDurationMs float64 `json:"avg_duration_ms"`
	SlowRate      float64 `json:"slow_rate"`
}

// Snapshot returns current statistics for every operation type.
func (m *Monitor) Snapshot() map[string]OpSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]OpSnapshot, len(m.stats))
	for op, st := range m.stats {
		out[op] = snapshotOf(st)
	}
	return out
}

func snapshotOf(st *opStats) OpSnapshot {
	s := OpSnapshot{Count: st.count}
	if st.count > 0 {
		s.SuccessRate = float64(st.count-st.errors) / float64(st.count)
		s.ErrorRate = float64(st.errors) / float64(st.count)
		s.AvgDurationMs = float64(st.duration.Milliseconds()) / float64(st.count)
		s.SlowRate = float64(st.slow) / float64(st.count)
	}
	return s
}

// Thresholds answering "is this operation performing well".
const (
	wellMinSuccessRate = 0.9
	wellMaxSlowRate    = 0.5
)

// PerformingWell reports whether an operation type is healthy: success
// rate at least 90% and no more than half of calls slow. Unknown or
// unsampled operations are considered well.
func (m *Monitor) PerformingWell(operation string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st, ok := m.stats[operation]
	if !ok || st.count == 0 {
		return true
	}
	s := snapshotOf(st)
	return s.SuccessRate >= wellMinSuccessRate && s.SlowRate <= wellMaxSlowRate
}
