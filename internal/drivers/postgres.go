package drivers

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
)

// connectTimeout bounds both the TCP connect and the initial ping.
const connectTimeout = 5 * time.Second

// PostgresDriver connects to PostgreSQL instances via lib/pq.
type PostgresDriver struct {
	logger *zap.Logger
}

// NewPostgresDriver creates a PostgreSQL driver.
func NewPostgresDriver(logger *zap.Logger) *PostgresDriver {
	return &PostgresDriver{logger: logger}
}

// Connect opens a connection to the target and verifies it with a ping.
func (d *PostgresDriver) Connect(ctx context.Context, target Target) (Conn, error) {
	db, err := sql.Open("postgres", dsn(target))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One monitoring connection per node is enough; the orchestrator
	// never issues concurrent queries against the same node.
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s:%d: %w", target.Host, target.Port, err)
	}

	d.logger.Info("connected to database",
		zap.String("host", target.Host),
		zap.Int("port", target.Port),
		zap.String("database", target.Database))

	return &postgresConn{db: db, database: target.Database}, nil
}

func dsn(t Target) string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable connect_timeout=%d",
		t.Host, t.Port, t.User, t.Password, t.Database, int(connectTimeout.Seconds()))
}

type postgresConn struct {
	db       *sql.DB
	database string
	closed   bool
}

func (c *postgresConn) Probe(ctx context.Context) error {
	var one int
	if err := c.db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	return nil
}

func (c *postgresConn) ReplicationLag(ctx context.Context) (time.Duration, error) {
	// NULL replay timestamp means nothing has been replayed yet; report
	// that as zero lag the same way a fresh standby would.
	const query = `SELECT COALESCE(EXTRACT(EPOCH FROM (now() - pg_last_xact_replay_timestamp())), 0)`

	var seconds float64
	if err := c.db.QueryRowContext(ctx, query).Scan(&seconds); err != nil {
		return 0, fmt.Errorf("query replication lag: %w", err)
	}
	if seconds < 0 {
		seconds = 0
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

func (c *postgresConn) Promote(ctx context.Context) error {
	var promoted bool
	if err := c.db.QueryRowContext(ctx, "SELECT pg_promote()").Scan(&promoted); err != nil {
		return fmt.Errorf("promote: %w", err)
	}
	if !promoted {
		return fmt.Errorf("promote: server did not confirm promotion")
	}
	return nil
}

func (c *postgresConn) Stats(ctx context.Context) (Stats, error) {
	const query = `
		SELECT numbackends, xact_commit, xact_rollback, blks_read, blks_hit
		FROM pg_stat_database
		WHERE datname = $1`

	var s Stats
	err := c.db.QueryRowContext(ctx, query, c.database).Scan(
		&s.ActiveConnections,
		&s.XactCommit,
		&s.XactRollback,
		&s.BlocksRead,
		&s.BlocksHit,
	)
	if err != nil {
		return Stats{}, fmt.Errorf("query stats: %w", err)
	}

	if total := s.BlocksRead + s.BlocksHit; total > 0 {
		s.CacheHitRatio = float64(s.BlocksHit) / float64(total) * 100
	}
	return s, nil
}

func (c *postgresConn) Closed() bool {
	return c.closed
}

func (c *postgresConn) Close() error {
	c.closed = true
	return c.db.Close()
}
