// Package alerting is the orchestrator's alert hook: it fans alerts
// out to subscribers and throttles repeats per alert type. It never
// drives remediation; the core's no-auto-retry policy stays intact.
package alerting

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Severities
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Type categorizes alerts.
type Type string

const (
	TypePrimaryDown      Type = "primary_down"
	TypeFailoverComplete Type = "failover_complete"
	TypeFailoverAborted  Type = "failover_aborted"
	TypeClusterDegraded  Type = "cluster_degraded"
)

// Alert is one emitted alert.
type Alert struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	Severity  string    `json:"severity"`
	Node      string    `json:"node,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ManagerConfig configures alert throttling and history.
type ManagerConfig struct {
	// ThrottleInterval is the minimum spacing between alerts of the
	// same type once the burst is spent.
	ThrottleInterval time.Duration
	// Burst is how many alerts of one type may fire back to back.
	Burst int
	// HistorySize bounds the retained alert history.
	HistorySize int
}

// DefaultManagerConfig returns production throttling defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		ThrottleInterval: 30 * time.Second,
		Burst:            3,
		HistorySize:      100,
	}
}

// Manager dispatches alerts to subscribers.
type Manager struct {
	config ManagerConfig
	logger *zap.Logger

	mu       sync.Mutex
	handlers []func(Alert)
	limiters map[Type]*rate.Limiter
	history  []Alert
}

// NewManager creates an alert manager.
func NewManager(config ManagerConfig, logger *zap.Logger) *Manager {
	if config.HistorySize <= 0 {
		config.HistorySize = DefaultManagerConfig().HistorySize
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	return &Manager{
		config:   config,
		logger:   logger,
		limiters: make(map[Type]*rate.Limiter),
	}
}

// Subscribe registers a handler. Handlers run on their own goroutines
// and must not block on the manager.
func (m *Manager) Subscribe(handler func(Alert)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handler)
}

// Emit fires an alert. Returns false when the alert was suppressed by
// the per-type throttle.
func (m *Manager) Emit(typ Type, severity, node, message string) bool {
	alert := Alert{
		ID:        uuid.NewString(),
		Type:      typ,
		Severity:  severity,
		Node:      node,
		Message:   message,
		Timestamp: time.Now(),
	}

	m.mu.Lock()
	limiter, ok := m.limiters[typ]
	if !ok {
		limit := rate.Inf
		if m.config.ThrottleInterval > 0 {
			limit = rate.Every(m.config.ThrottleInterval)
		}
		limiter = rate.NewLimiter(limit, m.config.Burst)
		m.limiters[typ] = limiter
	}
	if !limiter.Allow() {
		m.mu.Unlock()
		m.logger.Debug("alert suppressed by throttle",
			zap.String("type", string(typ)), zap.String("node", node))
		return false
	}

	m.history = append(m.history, alert)
	if len(m.history) > m.config.HistorySize {
		m.history = m.history[len(m.history)-m.config.HistorySize:]
	}
	handlers := make([]func(Alert), len(m.handlers))
	copy(handlers, m.handlers)
	m.mu.Unlock()

	m.logger.Info("alert emitted",
		zap.String("type", string(typ)),
		zap.String("severity", severity),
		zap.String("node", node),
		zap.String("message", message))

	for _, handler := range handlers {
		go handler(alert)
	}
	return true
}

// Recent returns up to n most recent alerts, oldest first.
func (m *Manager) Recent(n int) []Alert {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n <= 0 || n > len(m.history) {
		n = len(m.history)
	}
	out := make([]Alert, n)
	copy(out, m.history[len(m.history)-n:])
	return out
}
