package orchestrator

import (
	"github.com/FairForge/sentinel/internal/cluster"
	"github.com/FairForge/sentinel/internal/failover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	nodeHealthy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sentinel_node_healthy",
			Help: "Whether the node passed its most recent health check (1 = healthy)",
		},
		[]string{"node"},
	)

	nodeReplicationLag = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sentinel_node_replication_lag_seconds",
			Help: "Most recently observed replication lag per node",
		},
		[]string{"node"},
	)

	clusterHealthyNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sentinel_cluster_healthy_nodes",
			Help: "Number of nodes currently passing health checks",
		},
	)

	clusterHasPrimary = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sentinel_cluster_has_primary",
			Help: "Whether the cluster currently has a primary (1 = yes)",
		},
	)

	monitorTicksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sentinel_monitor_ticks_total",
			Help: "Total number of monitoring ticks executed",
		},
	)

	failoversTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sentinel_failovers_total",
			Help: "Failover attempts by outcome",
		},
		[]string{"outcome"},
	)

	failoverDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sentinel_failover_duration_seconds",
			Help:    "Wall time from failover detection to completion",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)
)

func observeSnapshot(snap cluster.Snapshot) {
	monitorTicksTotal.Inc()
	clusterHealthyNodes.Set(float64(snap.HealthyNodes))

	if snap.Primary != "" {
		clusterHasPrimary.Set(1)
	} else {
		clusterHasPrimary.Set(0)
	}

	for _, n := range snap.Nodes {
		healthy := 0.0
		if n.Health == cluster.Healthy {
			healthy = 1
		}
		nodeHealthy.WithLabelValues(n.Name).Set(healthy)
		nodeReplicationLag.WithLabelValues(n.Name).Set(n.Lag.Seconds())
	}
}

func observeFailover(result failover.Result) {
	failoversTotal.WithLabelValues(result.Outcome.String()).Inc()
	if result.Outcome == failover.OutcomeCompleted {
		failoverDuration.Observe(result.RTO.Seconds())
	}
}
