package alerting

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestManager_EmitDispatchesToSubscribers(t *testing.T) {
	m := NewManager(DefaultManagerConfig(), zap.NewNop())

	received := make(chan Alert, 1)
	m.Subscribe(func(a Alert) { received <- a })

	ok := m.Emit(TypePrimaryDown, SeverityCritical, "primary", "primary node primary failed its health check")
	require.True(t, ok)

	select {
	case a := <-received:
		assert.Equal(t, TypePrimaryDown, a.Type)
		assert.Equal(t, SeverityCritical, a.Severity)
		assert.Equal(t, "primary", a.Node)
		assert.NotEmpty(t, a.ID)
		assert.False(t, a.Timestamp.IsZero())
	case <-time.After(time.Second):
		t.Fatal("subscriber never received the alert")
	}
}

func TestManager_ThrottlesRepeatsPerType(t *testing.T) {
	m := NewManager(ManagerConfig{
		ThrottleInterval: time.Hour,
		Burst:            1,
	}, zap.NewNop())

	assert.True(t, m.Emit(TypePrimaryDown, SeverityCritical, "primary", "down"))
	assert.False(t, m.Emit(TypePrimaryDown, SeverityCritical, "primary", "still down"))

	// Throttling is per type: a different type fires immediately.
	assert.True(t, m.Emit(TypeClusterDegraded, SeverityCritical, "", "no primary"))

	// Suppressed alerts never land in the history.
	require.Len(t, m.Recent(0), 2)
}

func TestManager_BurstAllowsBackToBackAlerts(t *testing.T) {
	m := NewManager(ManagerConfig{
		ThrottleInterval: time.Hour,
		Burst:            3,
	}, zap.NewNop())

	for i := 0; i < 3; i++ {
		assert.True(t, m.Emit(TypeFailoverAborted, SeverityCritical, "primary", "no healthy standby"))
	}
	assert.False(t, m.Emit(TypeFailoverAborted, SeverityCritical, "primary", "no healthy standby"))
}

func TestManager_RecentOrderAndLimit(t *testing.T) {
	m := NewManager(ManagerConfig{Burst: 10}, zap.NewNop())

	m.Emit(TypePrimaryDown, SeverityCritical, "primary", "first")
	m.Emit(TypeFailoverComplete, SeverityInfo, "standby-1", "second")
	m.Emit(TypeClusterDegraded, SeverityCritical, "", "third")

	recent := m.Recent(2)
	require.Len(t, recent, 2)
	assert.Equal(t, "second", recent[0].Message)
	assert.Equal(t, "third", recent[1].Message)

	all := m.Recent(0)
	require.Len(t, all, 3)
	assert.Equal(t, "first", all[0].Message)
}

func TestManager_HistoryIsBounded(t *testing.T) {
	m := NewManager(ManagerConfig{Burst: 1000, HistorySize: 5}, zap.NewNop())

	for i := 0; i < 20; i++ {
		m.Emit(TypeFailoverComplete, SeverityInfo, "standby-1", "done")
	}
	assert.Len(t, m.Recent(0), 5)
}
