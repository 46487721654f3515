package cluster

import (
	"context"
	"testing"
	"time"

	"github.com/FairForge/sentinel/internal/drivers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) (*Registry, *drivers.FakeDriver) {
	t.Helper()

	d := drivers.NewFakeDriver()
	r := NewRegistry()
	r.Add(newTestNode(t, d, "primary-us-west-2", 5435, RolePrimary))
	r.Add(newTestNode(t, d, "standby-us-east-1", 5436, RoleStandby))
	r.Add(newTestNode(t, d, "standby-eu-west-1", 5437, RoleStandby))
	return r, d
}

func TestRegistry_PreservesInsertionOrder(t *testing.T) {
	r, _ := newTestRegistry(t)

	names := make([]string, 0, r.Len())
	for _, n := range r.Nodes() {
		names = append(names, n.Name())
	}
	assert.Equal(t, []string{"primary-us-west-2", "standby-us-east-1", "standby-eu-west-1"}, names)
}

func TestRegistry_CurrentPrimaryLookup(t *testing.T) {
	r, _ := newTestRegistry(t)

	primary, ok := r.CurrentPrimary()
	require.True(t, ok)
	assert.Equal(t, "primary-us-west-2", primary.Name())

	n, ok := r.Get("standby-us-east-1")
	require.True(t, ok)
	assert.Equal(t, RoleStandby, n.Role())

	_, ok = r.Get("nonexistent")
	assert.False(t, ok)
}

func TestRegistry_NoPrimary(t *testing.T) {
	r := NewRegistry()
	_, ok := r.CurrentPrimary()
	assert.False(t, ok)

	snap := r.Snapshot()
	assert.Empty(t, snap.Primary)
}

func TestRegistry_FailoverGuard(t *testing.T) {
	r, _ := newTestRegistry(t)

	assert.False(t, r.FailoverInProgress())
	assert.True(t, r.BeginFailover())
	assert.True(t, r.FailoverInProgress())

	// Re-entrant trigger must be refused, not queued.
	assert.False(t, r.BeginFailover())

	r.EndFailover()
	assert.False(t, r.FailoverInProgress())
	assert.True(t, r.BeginFailover())
	r.EndFailover()
}

func TestRegistry_CompletePromotion(t *testing.T) {
	r, _ := newTestRegistry(t)

	standby, ok := r.Get("standby-us-east-1")
	require.True(t, ok)

	r.CompletePromotion(standby)

	primary, ok := r.CurrentPrimary()
	require.True(t, ok)
	assert.Equal(t, "standby-us-east-1", primary.Name())
	assert.Equal(t, RolePrimary, primary.Role())

	old, _ := r.Get("primary-us-west-2")
	assert.Equal(t, RoleStandby, old.Role())

	// Exactly one primary after the swap.
	count := 0
	for _, n := range r.Nodes() {
		if n.Role() == RolePrimary {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestRegistry_SnapshotCountsHealth(t *testing.T) {
	r, d := newTestRegistry(t)

	d.Conn("localhost", 5436).SetLag(300 * time.Millisecond)
	s1, _ := r.Get("standby-us-east-1")
	s1.MeasureLag(context.Background())

	snap := r.Snapshot()
	assert.Equal(t, 3, snap.TotalNodes)
	assert.Equal(t, 3, snap.HealthyNodes)
	assert.Equal(t, "primary-us-west-2", snap.Primary)
	require.Len(t, snap.Nodes, 3)
	assert.Equal(t, 300*time.Millisecond, snap.Nodes[1].Lag)
}
