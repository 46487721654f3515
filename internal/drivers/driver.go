// Package drivers defines the storage-driver boundary the orchestrator
// talks through, plus the PostgreSQL implementation of it.
package drivers

import (
	"context"
	"time"
)

// Target identifies one database instance to connect to. The core
// treats everything here as opaque connection parameters.
type Target struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

// Stats holds the counters a database reports about itself.
type Stats struct {
	ActiveConnections int64   `json:"active_connections"`
	XactCommit        int64   `json:"transactions_committed"`
	XactRollback      int64   `json:"transactions_rolled_back"`
	BlocksRead        int64   `json:"blocks_read"`
	BlocksHit         int64   `json:"blocks_hit"`
	CacheHitRatio     float64 `json:"cache_hit_ratio"`
}

// Conn is a live connection to a single database instance. Every
// operation reports failure through its error return; none of them
// panic across this boundary.
type Conn interface {
	// Probe issues a trivial liveness check.
	Probe(ctx context.Context) error

	// ReplicationLag reports how far behind the primary this standby
	// is. Meaningless when called on a primary.
	ReplicationLag(ctx context.Context) (time.Duration, error)

	// Promote asks the instance to leave recovery and begin accepting
	// writes.
	Promote(ctx context.Context) error

	// Stats fetches the instance's activity counters.
	Stats(ctx context.Context) (Stats, error)

	// Closed reports whether the connection is no longer usable.
	Closed() bool

	Close() error
}

// Driver establishes connections to database instances. Implementations
// must be safe for use from multiple goroutines.
type Driver interface {
	Connect(ctx context.Context, target Target) (Conn, error)
}
