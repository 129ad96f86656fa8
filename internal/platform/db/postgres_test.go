package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectRequiresDSN(t *testing.T) {
	pg, err := Connect(context.Background(), "", Options{}, nil)
	require.Error(t, err)
	assert.Nil(t, pg)
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{MaxIdleConns: 50}.withDefaults()
	assert.Equal(t, 10, opts.MaxOpenConns)
	assert.Equal(t, 10, opts.MaxIdleConns)
	assert.Equal(t, 5*time.Second, opts.PingTimeout)

	opts = Options{MaxOpenConns: 4, MaxIdleConns: 2, PingTimeout: time.Second}.withDefaults()
	assert.Equal(t, 2, opts.MaxIdleConns)
	assert.Equal(t, time.Second, opts.PingTimeout)
}

func TestCloseNil(t *testing.T) {
	var pg *Postgres
	assert.NoError(t, pg.Close())
}
