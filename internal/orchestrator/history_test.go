package orchestrator

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsHistory_AppendAndRead(t *testing.T) {
	h := newMetricsHistory(100)

	h.Append(MetricSnapshot{Node: "primary", Timestamp: time.Now()})
	h.Append(MetricSnapshot{Node: "standby-1", Timestamp: time.Now()})

	entries := h.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "primary", entries[0].Node)
	assert.Equal(t, "standby-1", entries[1].Node)
}

func TestMetricsHistory_EvictsOldestFirst(t *testing.T) {
	h := newMetricsHistory(100)

	for i := 1; i <= 100; i++ {
		h.Append(MetricSnapshot{Node: fmt.Sprintf("entry-%d", i)})
	}
	require.Equal(t, 100, h.Len())

	// Entry 101 evicts entry 1, not entry 100.
	h.Append(MetricSnapshot{Node: "entry-101"})

	entries := h.All()
	require.Equal(t, 100, len(entries))
	assert.Equal(t, "entry-2", entries[0].Node)
	assert.Equal(t, "entry-101", entries[99].Node)
}

func TestMetricsHistory_NeverExceedsCap(t *testing.T) {
	h := newMetricsHistory(100)

	for i := 0; i < 250; i++ {
		h.Append(MetricSnapshot{Node: fmt.Sprintf("entry-%d", i)})
		assert.LessOrEqual(t, h.Len(), 100)
	}
	assert.Equal(t, 100, h.Len())
}

func TestMetricsHistory_DefaultCap(t *testing.T) {
	h := newMetricsHistory(0)
	assert.Equal(t, defaultHistoryCap, h.cap)
}
