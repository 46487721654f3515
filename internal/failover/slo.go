package failover

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SLOTargets are the recovery objectives a failover is judged against.
type SLOTargets struct {
	RTO time.Duration
	RPO time.Duration
}

// DefaultSLOTargets returns the objectives the cluster is operated to.
func DefaultSLOTargets() SLOTargets {
	return SLOTargets{
		RTO: 15 * time.Minute,
		RPO: 5 * time.Minute,
	}
}

// RecoveryRecord is one failover attempt measured against the targets.
type RecoveryRecord struct {
	ID         string        `json:"id"`
	Outcome    string        `json:"outcome"`
	OldPrimary string        `json:"old_primary,omitempty"`
	NewPrimary string        `json:"new_primary,omitempty"`
	ActualRTO  time.Duration `json:"actual_rto"`
	ActualRPO  time.Duration `json:"actual_rpo"`
	RTOMet     bool          `json:"rto_met"`
	RPOMet     bool          `json:"rpo_met"`
	Timestamp  time.Time     `json:"timestamp"`
}

// SLOMetrics aggregates the recorded history.
type SLOMetrics struct {
	TotalFailovers    int
	Completed         int
	Aborted           int
	RTOCompliant      int
	RPOCompliant      int
	RTOComplianceRate float64
	RPOComplianceRate float64
	AverageRTO        time.Duration
	WorstRTO          time.Duration
	WorstRPO          time.Duration
}

// sloHistoryCap bounds the in-memory record history.
const sloHistoryCap = 100

// SLOTracker records failover outcomes against RTO/RPO targets.
type SLOTracker struct {
	mu      sync.RWMutex
	targets SLOTargets
	history []RecoveryRecord
}

// NewSLOTracker creates a tracker for the given targets.
func NewSLOTracker(targets SLOTargets) *SLOTracker {
	return &SLOTracker{targets: targets}
}

// Targets returns the configured objectives.
func (t *SLOTracker) Targets() SLOTargets {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.targets
}

// Record measures a finished failover against the targets and appends
// it to the history. Skipped triggers are not recorded.
func (t *SLOTracker) Record(result Result) RecoveryRecord {
	record := RecoveryRecord{
		ID:         uuid.NewString(),
		Outcome:    result.Outcome.String(),
		OldPrimary: result.OldPrimary,
		NewPrimary: result.NewPrimary,
		ActualRTO:  result.RTO,
		ActualRPO:  result.RPO,
		Timestamp:  result.FinishedAt,
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	record.RTOMet = result.Outcome == OutcomeCompleted && result.RTO <= t.targets.RTO
	record.RPOMet = result.Outcome == OutcomeCompleted && result.RPO <= t.targets.RPO

	t.history = append(t.history, record)
	if len(t.history) > sloHistoryCap {
		t.history = t.history[len(t.history)-sloHistoryCap:]
	}
	return record
}

// History returns a copy of the recorded failovers, oldest first.
func (t *SLOTracker) History() []RecoveryRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]RecoveryRecord, len(t.history))
	copy(out, t.history)
	return out
}

// Metrics aggregates the history.
func (t *SLOTracker) Metrics() SLOMetrics {
	t.mu.RLock()
	defer t.mu.RUnlock()

	m := SLOMetrics{TotalFailovers: len(t.history)}
	if len(t.history) == 0 {
		return m
	}

	var totalRTO time.Duration
	for _, r := range t.history {
		switch r.Outcome {
		case OutcomeCompleted.String():
			m.Completed++
		case OutcomeAborted.String():
			m.Aborted++
		}
		if r.RTOMet {
			m.RTOCompliant++
		}
		if r.RPOMet {
			m.RPOCompliant++
		}
		totalRTO += r.ActualRTO
		if r.ActualRTO > m.WorstRTO {
			m.WorstRTO = r.ActualRTO
		}
		if r.ActualRPO > m.WorstRPO {
			m.WorstRPO = r.ActualRPO
		}
	}

	m.AverageRTO = totalRTO / time.Duration(len(t.history))
	if m.Completed > 0 {
		m.RTOComplianceRate = float64(m.RTOCompliant) / float64(m.Completed) * 100
		m.RPOComplianceRate = float64(m.RPOCompliant) / float64(m.Completed) * 100
	}
	return m
}
