package cluster

import (
	"sync"
	"time"
)

// NodeStatus is a point-in-time view of one node.
type NodeStatus struct {
	Name   string
	Role   Role
	Health Health
	Lag    time.Duration
}

// Snapshot is a consistent view of the whole registry.
type Snapshot struct {
	Primary      string // empty when no primary is known
	TotalNodes   int
	HealthyNodes int
	Nodes        []NodeStatus
}

// Registry holds the cluster's nodes in insertion order and tracks the
// current primary by name. The primary reference is a lookup, never a
// second owning reference, so it cannot diverge from the node list.
type Registry struct {
	mu       sync.RWMutex
	nodes    []*Node
	byName   map[string]*Node
	primary  string
	failover bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Node)}
}

// Add appends a node. Insertion order is preserved and used as the
// stable tie-break during candidate selection. A node added with the
// primary role becomes the current primary.
func (r *Registry) Add(n *Node) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nodes = append(r.nodes, n)
	r.byName[n.Name()] = n
	if n.Role() == RolePrimary {
		r.primary = n.Name()
	}
}

// Nodes returns the nodes in insertion order.
func (r *Registry) Nodes() []*Node {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Node, len(r.nodes))
	copy(out, r.nodes)
	return out
}

// Get looks a node up by name.
func (r *Registry) Get(name string) (*Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.byName[name]
	return n, ok
}

// Len returns the number of registered nodes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}

// CurrentPrimary resolves the primary reference. ok is false when no
// primary is known, which can happen after a failed promotion.
func (r *Registry) CurrentPrimary() (*Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.primary == "" {
		return nil, false
	}
	n, ok := r.byName[r.primary]
	return n, ok
}

// BeginFailover attempts to take the failover guard. Returns false when
// a failover is already in progress; the caller must then drop the
// trigger rather than queue it.
func (r *Registry) BeginFailover() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failover {
		return false
	}
	r.failover = true
	return true
}

// EndFailover releases the failover guard.
func (r *Registry) EndFailover() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failover = false
}

// FailoverInProgress reports whether the guard is held.
func (r *Registry) FailoverInProgress() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.failover
}

// CompletePromotion moves the primary reference to newPrimary and
// downgrades the old primary, all in one critical section so a
// concurrent Snapshot can never observe a half-moved primary.
func (r *Registry) CompletePromotion(newPrimary *Node) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byName[r.primary]; ok && old != newPrimary {
		old.setRole(RoleStandby)
	}
	newPrimary.setRole(RolePrimary)
	r.primary = newPrimary.Name()
}

// Snapshot returns a consistent view of the registry. Taken under the
// registry lock so it cannot interleave with CompletePromotion.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := Snapshot{
		Primary:    r.primary,
		TotalNodes: len(r.nodes),
		Nodes:      make([]NodeStatus, 0, len(r.nodes)),
	}
	for _, n := range r.nodes {
		status := n.Status()
		if status.Health == Healthy {
			snap.HealthyNodes++
		}
		snap.Nodes = append(snap.Nodes, status)
	}
	return snap
}
