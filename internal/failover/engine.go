// Package failover implements the failover state machine: detect a
// lost primary, pick the best standby, wait for it to catch up, and
// promote it.
package failover

import (
	"context"
	"sort"
	"time"

	"github.com/FairForge/sentinel/internal/cluster"
	"go.uber.org/zap"
)

// State identifies a step of the failover state machine.
type State int

const (
	StateIdle State = iota
	StateDetecting
	StateSelectingCandidate
	StateWaitingForCatchup
	StatePromoting
	StateCompleted
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDetecting:
		return "detecting"
	case StateSelectingCandidate:
		return "selecting_candidate"
	case StateWaitingForCatchup:
		return "waiting_for_catchup"
	case StatePromoting:
		return "promoting"
	case StateCompleted:
		return "completed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Outcome of one failover attempt.
type Outcome int

const (
	// OutcomeCompleted means a standby was promoted and the registry
	// updated.
	OutcomeCompleted Outcome = iota
	// OutcomeAborted means the attempt terminated without changing the
	// registry; operator attention is required.
	OutcomeAborted
	// OutcomeSkipped means the trigger was dropped because another
	// failover already held the guard.
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeAborted:
		return "aborted"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Result describes a finished failover attempt.
type Result struct {
	Outcome    Outcome
	Reason     string
	OldPrimary string
	NewPrimary string
	RTO        time.Duration // wall time from detection to completion
	RPO        time.Duration // candidate lag at promotion time
	StartedAt  time.Time
	FinishedAt time.Time
}

// Policy bounds the catch-up wait before promotion. All values are
// configurable so tests can run the machine at millisecond scale.
type Policy struct {
	// CatchupThreshold is the lag below which a candidate counts as
	// caught up.
	CatchupThreshold time.Duration
	// CatchupTimeout caps the total catch-up wait. When it elapses the
	// candidate is promoted anyway with whatever lag remains; that
	// residual lag becomes the recorded RPO. Availability wins over
	// consistency here on purpose.
	CatchupTimeout time.Duration
	// PollInterval is the pause between lag re-measurements.
	PollInterval time.Duration
}

// DefaultPolicy returns the production catch-up policy.
func DefaultPolicy() Policy {
	return Policy{
		CatchupThreshold: 1 * time.Second,
		CatchupTimeout:   30 * time.Second,
		PollInterval:     2 * time.Second,
	}
}

// Engine runs failovers against a registry. It runs to completion
// synchronously in the caller's goroutine; the registry guard makes
// re-entrant triggers no-ops.
type Engine struct {
	registry *cluster.Registry
	policy   Policy
	tracker  *SLOTracker
	logger   *zap.Logger
}

// NewEngine creates a failover engine. tracker may be nil when RTO/RPO
// compliance tracking is not wanted.
func NewEngine(registry *cluster.Registry, policy Policy, tracker *SLOTracker, logger *zap.Logger) *Engine {
	return &Engine{
		registry: registry,
		policy:   policy,
		tracker:  tracker,
		logger:   logger,
	}
}

// Run executes one failover attempt. A second call while one is in
// flight returns OutcomeSkipped without touching cluster state.
func (e *Engine) Run(ctx context.Context) Result {
	if !e.registry.BeginFailover() {
		e.logger.Info("failover already in progress, ignoring trigger")
		return Result{
			Outcome: OutcomeSkipped,
			Reason:  "failover already in progress",
		}
	}
	defer e.registry.EndFailover()

	started := time.Now()
	e.transition(StateDetecting)

	var oldName string
	if old, ok := e.registry.CurrentPrimary(); ok {
		oldName = old.Name()
	}
	e.logger.Warn("initiating failover", zap.String("old_primary", oldName))

	e.transition(StateSelectingCandidate)
	candidate := e.selectCandidate()
	if candidate == nil {
		e.logger.Error("no healthy standby available, manual intervention required")
		return e.abort(started, oldName, "no healthy standby")
	}
	e.logger.Info("selected failover candidate",
		zap.String("node", candidate.Name()),
		zap.Duration("lag", candidate.ReplicationLag()))

	e.transition(StateWaitingForCatchup)
	e.waitForCatchup(ctx, candidate)

	// Capture the residual lag before the role flips; a primary always
	// reports zero.
	rpo := candidate.ReplicationLag()

	e.transition(StatePromoting)
	if !candidate.Promote(ctx) {
		e.logger.Error("failover failed: promotion unsuccessful, cluster degraded",
			zap.String("candidate", candidate.Name()))
		return e.abort(started, oldName, "promotion failed")
	}

	e.registry.CompletePromotion(candidate)
	e.transition(StateCompleted)

	result := Result{
		Outcome:    OutcomeCompleted,
		OldPrimary: oldName,
		NewPrimary: candidate.Name(),
		RTO:        time.Since(started),
		RPO:        rpo,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}

	e.logger.Info("failover complete",
		zap.String("new_primary", result.NewPrimary),
		zap.Duration("rto", result.RTO),
		zap.Duration("rpo", result.RPO))

	if e.tracker != nil {
		e.tracker.Record(result)
	}
	return result
}

func (e *Engine) transition(s State) {
	e.logger.Debug("failover state", zap.String("state", s.String()))
}

func (e *Engine) abort(started time.Time, oldName, reason string) Result {
	e.transition(StateAborted)
	result := Result{
		Outcome:    OutcomeAborted,
		Reason:     reason,
		OldPrimary: oldName,
		RTO:        time.Since(started),
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if e.tracker != nil {
		e.tracker.Record(result)
	}
	return result
}

// selectCandidate picks the healthy standby with the lowest replication
// lag. The sort is stable so registry insertion order breaks ties.
func (e *Engine) selectCandidate() *cluster.Node {
	eligible := make([]*cluster.Node, 0)
	for _, n := range e.registry.Nodes() {
		if n.Role() == cluster.RoleStandby && n.Health() == cluster.Healthy {
			eligible = append(eligible, n)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].ReplicationLag() < eligible[j].ReplicationLag()
	})
	return eligible[0]
}

// waitForCatchup polls the candidate's lag until it drops below the
// threshold or the timeout elapses. The timeout does not abort the
// failover: promotion proceeds with the remaining lag.
func (e *Engine) waitForCatchup(ctx context.Context, candidate *cluster.Node) {
	deadline := time.Now().Add(e.policy.CatchupTimeout)

	for candidate.ReplicationLag() > e.policy.CatchupThreshold {
		if !time.Now().Before(deadline) {
			e.logger.Warn("catch-up wait timed out, promoting with residual lag",
				zap.String("node", candidate.Name()),
				zap.Duration("lag", candidate.ReplicationLag()))
			return
		}

		e.logger.Info("waiting for replication to catch up",
			zap.String("node", candidate.Name()),
			zap.Duration("lag", candidate.ReplicationLag()))

		select {
		case <-ctx.Done():
			// Shutdown mid-wait: proceed to promotion rather than leave
			// the cluster with no primary.
			return
		case <-time.After(e.policy.PollInterval):
		}

		candidate.MeasureLag(ctx)
	}
}
