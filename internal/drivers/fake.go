package drivers

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// FakeDriver is an in-memory Driver used by tests across packages. Each
// target gets a FakeConn whose behavior the test scripts up front.
type FakeDriver struct {
	mu         sync.Mutex
	conns      map[string]*FakeConn
	connectErr map[string]error
}

// NewFakeDriver creates an empty fake driver.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{
		conns:      make(map[string]*FakeConn),
		connectErr: make(map[string]error),
	}
}

func targetKey(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}

// Conn returns the FakeConn for a target, creating it if needed. Tests
// use this to script behavior before or after the node connects.
func (d *FakeDriver) Conn(host string, port int) *FakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := targetKey(host, port)
	if c, ok := d.conns[key]; ok {
		return c
	}
	c := &FakeConn{}
	d.conns[key] = c
	return c
}

// FailConnect makes Connect for the given target return err. Pass nil
// to clear the failure.
func (d *FakeDriver) FailConnect(host string, port int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := targetKey(host, port)
	if err == nil {
		delete(d.connectErr, key)
		return
	}
	d.connectErr[key] = err
}

// Connect implements Driver.
func (d *FakeDriver) Connect(_ context.Context, target Target) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	key := targetKey(target.Host, target.Port)
	if err, ok := d.connectErr[key]; ok {
		return nil, err
	}

	c, ok := d.conns[key]
	if !ok {
		c = &FakeConn{}
		d.conns[key] = c
	}
	c.reopen()
	return c, nil
}

// FakeConn is a scriptable Conn. The zero value behaves like a healthy,
// fully caught-up node.
type FakeConn struct {
	mu sync.Mutex

	probeErr   error
	lag        time.Duration
	lagSeq     []time.Duration
	lagErr     error
	promoteErr error
	stats      Stats
	statsErr   error
	closed     bool

	probeCalls   int
	lagCalls     int
	promoteCalls int
}

func (c *FakeConn) reopen() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = false
}

// SetProbeErr makes Probe fail with err (nil to succeed).
func (c *FakeConn) SetProbeErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probeErr = err
}

// SetLag fixes the reported replication lag.
func (c *FakeConn) SetLag(lag time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lag = lag
}

// SetLagSequence makes successive ReplicationLag calls return the given
// values in order, then fall back to the fixed lag.
func (c *FakeConn) SetLagSequence(seq ...time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lagSeq = append([]time.Duration(nil), seq...)
}

// SetLagErr makes ReplicationLag fail with err.
func (c *FakeConn) SetLagErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lagErr = err
}

// SetPromoteErr makes Promote fail with err.
func (c *FakeConn) SetPromoteErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.promoteErr = err
}

// SetStats fixes the reported stats.
func (c *FakeConn) SetStats(s Stats) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = s
}

// SetStatsErr makes Stats fail with err.
func (c *FakeConn) SetStatsErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statsErr = err
}

// PromoteCalls reports how many times Promote was invoked.
func (c *FakeConn) PromoteCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.promoteCalls
}

// ProbeCalls reports how many times Probe was invoked.
func (c *FakeConn) ProbeCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.probeCalls
}

func (c *FakeConn) Probe(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.probeCalls++
	return c.probeErr
}

func (c *FakeConn) ReplicationLag(_ context.Context) (time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lagCalls++
	if c.lagErr != nil {
		return 0, c.lagErr
	}
	if len(c.lagSeq) > 0 {
		lag := c.lagSeq[0]
		c.lagSeq = c.lagSeq[1:]
		return lag, nil
	}
	return c.lag, nil
}

func (c *FakeConn) Promote(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.promoteCalls++
	return c.promoteErr
}

func (c *FakeConn) Stats(_ context.Context) (Stats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.statsErr != nil {
		return Stats{}, c.statsErr
	}
	return c.stats, nil
}

func (c *FakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *FakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
