package drivers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN_IncludesConnectTimeout(t *testing.T) {
	got := dsn(Target{
		Host:     "db1.internal",
		Port:     5432,
		User:     "postgres",
		Password: "secret",
		Database: "app",
	})

	assert.Equal(t,
		"host=db1.internal port=5432 user=postgres password=secret dbname=app sslmode=disable connect_timeout=5",
		got)
}

func TestFakeDriver_ConnectAndFail(t *testing.T) {
	d := NewFakeDriver()
	target := Target{Host: "localhost", Port: 5435}

	conn, err := d.Connect(context.Background(), target)
	require.NoError(t, err)
	assert.False(t, conn.Closed())

	d.FailConnect("localhost", 5435, errors.New("connection refused"))
	_, err = d.Connect(context.Background(), target)
	assert.Error(t, err)

	d.FailConnect("localhost", 5435, nil)
	_, err = d.Connect(context.Background(), target)
	assert.NoError(t, err)
}

func TestFakeDriver_ReconnectReopensConn(t *testing.T) {
	d := NewFakeDriver()
	target := Target{Host: "localhost", Port: 5435}

	conn, err := d.Connect(context.Background(), target)
	require.NoError(t, err)
	require.NoError(t, conn.Close())
	assert.True(t, conn.Closed())

	again, err := d.Connect(context.Background(), target)
	require.NoError(t, err)
	assert.False(t, again.Closed())
	// Same underlying conn: scripted behavior survives reconnects.
	assert.Same(t, conn, again)
}

func TestFakeConn_LagSequence(t *testing.T) {
	c := &FakeConn{}
	c.SetLag(100 * time.Millisecond)
	c.SetLagSequence(3*time.Second, 500*time.Millisecond)

	lag, err := c.ReplicationLag(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, lag)

	lag, err = c.ReplicationLag(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, lag)

	// Sequence exhausted, falls back to the fixed value.
	lag, err = c.ReplicationLag(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 100*time.Millisecond, lag)
}
