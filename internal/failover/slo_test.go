package failover

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSLOTracker_RecordCompleted(t *testing.T) {
	tracker := NewSLOTracker(SLOTargets{RTO: time.Minute, RPO: 10 * time.Second})

	record := tracker.Record(Result{
		Outcome:    OutcomeCompleted,
		OldPrimary: "primary",
		NewPrimary: "standby-1",
		RTO:        30 * time.Second,
		RPO:        2 * time.Second,
		FinishedAt: time.Now(),
	})

	assert.NotEmpty(t, record.ID)
	assert.True(t, record.RTOMet)
	assert.True(t, record.RPOMet)
}

func TestSLOTracker_RecordBreach(t *testing.T) {
	tracker := NewSLOTracker(SLOTargets{RTO: time.Minute, RPO: 10 * time.Second})

	record := tracker.Record(Result{
		Outcome:    OutcomeCompleted,
		NewPrimary: "standby-1",
		RTO:        2 * time.Minute,
		RPO:        30 * time.Second,
		FinishedAt: time.Now(),
	})

	assert.False(t, record.RTOMet)
	assert.False(t, record.RPOMet)
}

func TestSLOTracker_AbortedNeverCompliant(t *testing.T) {
	tracker := NewSLOTracker(SLOTargets{RTO: time.Hour, RPO: time.Hour})

	record := tracker.Record(Result{
		Outcome:    OutcomeAborted,
		Reason:     "no healthy standby",
		OldPrimary: "primary",
		RTO:        time.Millisecond,
		FinishedAt: time.Now(),
	})

	assert.False(t, record.RTOMet)
	assert.False(t, record.RPOMet)
}

func TestSLOTracker_Metrics(t *testing.T) {
	tracker := NewSLOTracker(SLOTargets{RTO: time.Minute, RPO: 10 * time.Second})

	tracker.Record(Result{Outcome: OutcomeCompleted, RTO: 20 * time.Second, RPO: time.Second, FinishedAt: time.Now()})
	tracker.Record(Result{Outcome: OutcomeCompleted, RTO: 2 * time.Minute, RPO: time.Second, FinishedAt: time.Now()})
	tracker.Record(Result{Outcome: OutcomeAborted, Reason: "promotion failed", RTO: 5 * time.Second, FinishedAt: time.Now()})

	m := tracker.Metrics()
	require.Equal(t, 3, m.TotalFailovers)
	assert.Equal(t, 2, m.Completed)
	assert.Equal(t, 1, m.Aborted)
	assert.Equal(t, 1, m.RTOCompliant)
	assert.Equal(t, 2, m.RPOCompliant)
	assert.InDelta(t, 50.0, m.RTOComplianceRate, 0.01)
	assert.InDelta(t, 100.0, m.RPOComplianceRate, 0.01)
	assert.Equal(t, 2*time.Minute, m.WorstRTO)
}

func TestSLOTracker_EmptyMetrics(t *testing.T) {
	tracker := NewSLOTracker(DefaultSLOTargets())

	m := tracker.Metrics()
	assert.Equal(t, 0, m.TotalFailovers)
	assert.Equal(t, time.Duration(0), m.AverageRTO)
}
