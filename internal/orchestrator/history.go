package orchestrator

import (
	"sync"
	"time"

	"github.com/FairForge/sentinel/internal/drivers"
)

// MetricSnapshot is one per-node observation. Immutable once appended.
type MetricSnapshot struct {
	Timestamp      time.Time     `json:"timestamp"`
	Node           string        `json:"node"`
	Role           string        `json:"role"`
	Healthy        bool          `json:"healthy"`
	ReplicationLag time.Duration `json:"replication_lag"`
	drivers.Stats
}

// defaultHistoryCap matches the window the cluster has always been
// observed over; there is no persistence behind it.
const defaultHistoryCap = 100

// metricsHistory is a FIFO-bounded window of snapshots: once full,
// each append evicts the oldest entry.
type metricsHistory struct {
	mu      sync.RWMutex
	entries []MetricSnapshot
	cap     int
}

func newMetricsHistory(capacity int) *metricsHistory {
	if capacity <= 0 {
		capacity = defaultHistoryCap
	}
	return &metricsHistory{cap: capacity}
}

func (h *metricsHistory) Append(s MetricSnapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, s)
	if len(h.entries) > h.cap {
		h.entries = h.entries[len(h.entries)-h.cap:]
	}
}

func (h *metricsHistory) All() []MetricSnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]MetricSnapshot, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *metricsHistory) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}
