// Package cluster holds the node health model and the registry of
// nodes the orchestrator manages.
package cluster

import (
	"context"
	"sync"
	"time"

	"github.com/FairForge/sentinel/internal/drivers"
	"go.uber.org/zap"
)

// Role of a node within the cluster.
type Role int

const (
	RoleStandby Role = iota
	RolePrimary
)

func (r Role) String() string {
	switch r {
	case RolePrimary:
		return "primary"
	case RoleStandby:
		return "standby"
	default:
		return "unknown"
	}
}

// Health of a node per its most recent check.
type Health int

const (
	Healthy Health = iota
	Unhealthy
)

func (h Health) String() string {
	switch h {
	case Healthy:
		return "healthy"
	case Unhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Node is one database instance in the cluster. Its connection handle
// is owned exclusively by the node and re-established on demand; the
// mutable fields are updated in place by the monitoring loop and the
// failover engine.
type Node struct {
	name   string
	target drivers.Target
	driver drivers.Driver
	logger *zap.Logger

	mu     sync.RWMutex
	role   Role
	health Health
	lag    time.Duration
	conn   drivers.Conn
}

// NewNode creates a node. Nodes start out healthy; the first monitoring
// tick corrects that if it is wrong.
func NewNode(name string, target drivers.Target, role Role, driver drivers.Driver, logger *zap.Logger) *Node {
	return &Node{
		name:   name,
		target: target,
		driver: driver,
		logger: logger,
		role:   role,
		health: Healthy,
	}
}

// Name returns the node's stable identity.
func (n *Node) Name() string { return n.name }

// Role returns the node's current role.
func (n *Node) Role() Role {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.role
}

func (n *Node) setRole(r Role) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.role = r
}

// Health returns the result of the most recent health check.
func (n *Node) Health() Health {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.health
}

func (n *Node) setHealth(h Health) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.health = h
}

// ReplicationLag returns the most recently observed lag. A primary
// always reports zero.
func (n *Node) ReplicationLag() time.Duration {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.role == RolePrimary {
		return 0
	}
	return n.lag
}

func (n *Node) connection() drivers.Conn {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.conn
}

// EnsureConnected returns true if a usable connection handle exists,
// dialing through the driver when it is absent or closed. On failure
// the node is marked unhealthy.
func (n *Node) EnsureConnected(ctx context.Context) bool {
	if conn := n.connection(); conn != nil && !conn.Closed() {
		return true
	}

	conn, err := n.driver.Connect(ctx, n.target)
	if err != nil {
		n.logger.Error("failed to connect to node",
			zap.String("node", n.name), zap.Error(err))
		n.setHealth(Unhealthy)
		return false
	}

	n.mu.Lock()
	n.conn = conn
	n.mu.Unlock()
	return true
}

// CheckHealth probes the node and records the result. Reconnects first
// if the connection handle is absent or closed.
func (n *Node) CheckHealth(ctx context.Context) bool {
	conn := n.connection()
	if conn == nil || conn.Closed() {
		if !n.EnsureConnected(ctx) {
			return false
		}
		// A fresh connection doubles as the liveness probe.
		n.setHealth(Healthy)
		return true
	}

	if err := conn.Probe(ctx); err != nil {
		n.logger.Error("health check failed",
			zap.String("node", n.name), zap.Error(err))
		n.setHealth(Unhealthy)
		return false
	}

	n.setHealth(Healthy)
	return true
}

// MeasureLag refreshes the node's replication lag. A primary is a no-op
// returning zero. When the probe fails the previous value is retained,
// never reset: a failing probe must not masquerade as a caught-up
// standby.
func (n *Node) MeasureLag(ctx context.Context) time.Duration {
	if n.Role() == RolePrimary {
		return 0
	}

	conn := n.connection()
	if conn == nil || conn.Closed() {
		return n.ReplicationLag()
	}

	lag, err := conn.ReplicationLag(ctx)
	if err != nil {
		n.logger.Warn("could not measure replication lag, keeping last value",
			zap.String("node", n.name),
			zap.Duration("last_lag", n.ReplicationLag()),
			zap.Error(err))
		return n.ReplicationLag()
	}
	if lag < 0 {
		lag = 0
	}

	n.mu.Lock()
	n.lag = lag
	n.mu.Unlock()
	return lag
}

// Promote issues the driver's promotion command. The role flip is left
// to the registry so that the primary reference and both roles move in
// one critical section.
func (n *Node) Promote(ctx context.Context) bool {
	conn := n.connection()
	if conn == nil || conn.Closed() {
		n.logger.Error("cannot promote: node not connected", zap.String("node", n.name))
		return false
	}

	if err := conn.Promote(ctx); err != nil {
		n.logger.Error("promotion failed",
			zap.String("node", n.name), zap.Error(err))
		return false
	}

	n.logger.Info("node promoted to primary", zap.String("node", n.name))
	return true
}

// FetchStats retrieves the node's activity counters. Returns ok=false
// instead of an error when the query fails so a monitoring tick can
// skip this node without aborting.
func (n *Node) FetchStats(ctx context.Context) (drivers.Stats, bool) {
	conn := n.connection()
	if conn == nil || conn.Closed() {
		return drivers.Stats{}, false
	}

	stats, err := conn.Stats(ctx)
	if err != nil {
		n.logger.Warn("could not fetch stats",
			zap.String("node", n.name), zap.Error(err))
		return drivers.Stats{}, false
	}
	return stats, true
}

// Status returns a point-in-time copy of the node's observable state.
func (n *Node) Status() NodeStatus {
	n.mu.RLock()
	defer n.mu.RUnlock()

	lag := n.lag
	if n.role == RolePrimary {
		lag = 0
	}
	return NodeStatus{
		Name:   n.name,
		Role:   n.role,
		Health: n.health,
		Lag:    lag,
	}
}
