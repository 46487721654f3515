// Package orchestrator drives the monitoring loop: periodic health
// checks, automatic failover, metrics history and the status reporter.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/FairForge/sentinel/internal/alerting"
	"github.com/FairForge/sentinel/internal/cluster"
	"github.com/FairForge/sentinel/internal/failover"
	"go.uber.org/zap"
)

// Options tune the monitoring loop.
type Options struct {
	// CheckInterval is the tick period of the monitoring loop.
	CheckInterval time.Duration
	// HistorySize bounds the metrics ring buffer.
	HistorySize int
}

// DefaultOptions returns the production loop settings.
func DefaultOptions() Options {
	return Options{
		CheckInterval: 5 * time.Second,
		HistorySize:   defaultHistoryCap,
	}
}

// NodeStatus is the wire-friendly per-node view served to callers.
type NodeStatus struct {
	Name              string  `json:"name"`
	Role              string  `json:"role"`
	Healthy           bool    `json:"healthy"`
	ReplicationLagSec float64 `json:"replication_lag_seconds"`
}

// StatusSnapshot is the read-only projection of cluster state. It
// reflects best-known state even mid-degradation: Primary is empty
// when no primary exists.
type StatusSnapshot struct {
	Timestamp          time.Time    `json:"timestamp"`
	Primary            string       `json:"primary,omitempty"`
	TotalNodes         int          `json:"total_nodes"`
	HealthyNodes       int          `json:"healthy_nodes"`
	FailoverInProgress bool         `json:"failover_in_progress"`
	Monitoring         bool         `json:"monitoring"`
	Nodes              []NodeStatus `json:"nodes"`
}

// Orchestrator owns the cluster registry, the failover engine and the
// monitoring lifecycle. All cross-component state lives here rather
// than in package globals.
type Orchestrator struct {
	registry *cluster.Registry
	engine   *failover.Engine
	alerts   *alerting.Manager
	history  *metricsHistory
	logger   *zap.Logger
	options  Options

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates an orchestrator. alerts may be nil to disable the alert
// hook.
func New(registry *cluster.Registry, engine *failover.Engine, alerts *alerting.Manager, options Options, logger *zap.Logger) *Orchestrator {
	if options.CheckInterval <= 0 {
		options.CheckInterval = DefaultOptions().CheckInterval
	}
	return &Orchestrator{
		registry: registry,
		engine:   engine,
		alerts:   alerts,
		history:  newMetricsHistory(options.HistorySize),
		logger:   logger,
		options:  options,
	}
}

// Initialize connects to every configured node. Returns false when any
// node could not be reached; those nodes are left marked unhealthy and
// monitoring can still be started against the rest.
func (o *Orchestrator) Initialize(ctx context.Context) bool {
	o.logger.Info("initializing cluster", zap.Int("nodes", o.registry.Len()))

	ok := true
	for _, node := range o.registry.Nodes() {
		if !node.EnsureConnected(ctx) {
			ok = false
		}
	}
	if ok {
		o.logger.Info("cluster initialized", zap.Int("nodes", o.registry.Len()))
	}
	return ok
}

// StartMonitoring launches the monitoring loop. Calling it while the
// loop already runs is a no-op.
func (o *Orchestrator) StartMonitoring() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	o.cancel = cancel
	o.done = done

	go o.monitorLoop(ctx, done)
}

// StopMonitoring requests a graceful stop and blocks until the loop
// exits. An in-flight failover is allowed to finish first.
func (o *Orchestrator) StopMonitoring() {
	o.mu.Lock()
	cancel, done := o.cancel, o.done
	o.cancel, o.done = nil, nil
	o.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Monitoring reports whether the loop is running.
func (o *Orchestrator) Monitoring() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cancel != nil
}

func (o *Orchestrator) monitorLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	o.logger.Info("cluster monitoring started",
		zap.Duration("interval", o.options.CheckInterval))

	ticker := time.NewTicker(o.options.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.logger.Info("cluster monitoring stopped")
			return
		case <-ticker.C:
			o.tick(ctx)
		}
	}
}

// tick is one pass of the monitoring loop: health-check every node,
// refresh standby lag, fail over if the primary is down, then record
// metrics. Node probe failures never abort the tick.
func (o *Orchestrator) tick(ctx context.Context) {
	for _, node := range o.registry.Nodes() {
		node.CheckHealth(ctx)
		if node.Role() != cluster.RolePrimary {
			node.MeasureLag(ctx)
		}
	}

	if primary, ok := o.registry.CurrentPrimary(); ok && primary.Health() == cluster.Unhealthy {
		o.logger.Warn("primary node is down", zap.String("node", primary.Name()))
		o.emit(alerting.TypePrimaryDown, alerting.SeverityCritical, primary.Name(),
			fmt.Sprintf("primary node %s failed its health check", primary.Name()))
		o.runFailover()
	}

	o.recordMetrics(ctx)
}

// TriggerFailover runs the failover state machine programmatically.
// The same guard applies: a trigger during an in-flight failover is
// dropped with OutcomeSkipped.
func (o *Orchestrator) TriggerFailover() failover.Result {
	return o.runFailover()
}

func (o *Orchestrator) runFailover() failover.Result {
	// Deliberately not the loop's context: a stop request must let an
	// in-flight failover run to completion.
	result := o.engine.Run(context.Background())
	observeFailover(result)

	switch result.Outcome {
	case failover.OutcomeCompleted:
		o.emit(alerting.TypeFailoverComplete, alerting.SeverityInfo, result.NewPrimary,
			fmt.Sprintf("failover complete: %s is now primary (RTO %s, RPO %s)",
				result.NewPrimary, result.RTO.Round(time.Millisecond), result.RPO.Round(time.Millisecond)))
	case failover.OutcomeAborted:
		o.emit(alerting.TypeFailoverAborted, alerting.SeverityCritical, result.OldPrimary,
			fmt.Sprintf("failover aborted: %s", result.Reason))
		if _, ok := o.registry.CurrentPrimary(); !ok {
			o.emit(alerting.TypeClusterDegraded, alerting.SeverityCritical, "",
				"cluster has no primary, operator intervention required")
		}
	}
	return result
}

// recordMetrics appends one snapshot per healthy node. Nodes whose
// stats query fails are skipped for this tick rather than recorded as
// zeros.
func (o *Orchestrator) recordMetrics(ctx context.Context) {
	now := time.Now()
	snap := o.registry.Snapshot()
	observeSnapshot(snap)

	for _, node := range o.registry.Nodes() {
		status := node.Status()
		if status.Health != cluster.Healthy {
			continue
		}

		stats, ok := node.FetchStats(ctx)
		if !ok {
			continue
		}

		o.history.Append(MetricSnapshot{
			Timestamp:      now,
			Node:           status.Name,
			Role:           status.Role.String(),
			Healthy:        true,
			ReplicationLag: status.Lag,
			Stats:          stats,
		})
	}
}

// GetClusterStatus returns a consistent snapshot of the cluster. Safe
// to call concurrently with the monitoring loop.
func (o *Orchestrator) GetClusterStatus() StatusSnapshot {
	snap := o.registry.Snapshot()

	status := StatusSnapshot{
		Timestamp:          time.Now(),
		Primary:            snap.Primary,
		TotalNodes:         snap.TotalNodes,
		HealthyNodes:       snap.HealthyNodes,
		FailoverInProgress: o.registry.FailoverInProgress(),
		Monitoring:         o.Monitoring(),
		Nodes:              make([]NodeStatus, 0, len(snap.Nodes)),
	}
	for _, n := range snap.Nodes {
		status.Nodes = append(status.Nodes, NodeStatus{
			Name:              n.Name,
			Role:              n.Role.String(),
			Healthy:           n.Health == cluster.Healthy,
			ReplicationLagSec: n.Lag.Seconds(),
		})
	}
	return status
}

// MetricsHistory returns the retained snapshots, oldest first.
func (o *Orchestrator) MetricsHistory() []MetricSnapshot {
	return o.history.All()
}

func (o *Orchestrator) emit(typ alerting.Type, severity, node, message string) {
	if o.alerts == nil {
		return
	}
	o.alerts.Emit(typ, severity, node, message)
}
