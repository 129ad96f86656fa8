package system

import (
	"context"
	"crypto/sha256"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualClockNeverMovesBackwards(t *testing.T) {
	clock := NewManualClock(10)
	clock.SetHeight(4)
	height, err := clock.CurrentHeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(10), height)

	assert.Equal(t, uint64(15), clock.Advance(5))
	clock.SetHeight(20)
	height, _ = clock.CurrentHeight(context.Background())
	assert.Equal(t, uint64(20), height)
}

func TestIntervalClockDerivesHeight(t *testing.T) {
	genesis := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := genesis.Add(95 * time.Second)
	clock := IntervalClock{Genesis: genesis, Interval: 10 * time.Second, Now: func() time.Time { return now }}

	height, err := clock.CurrentHeight(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(9), height)

	now = genesis.Add(-time.Hour)
	height, err = clock.CurrentHeight(context.Background())
	require.NoError(t, err)
	assert.Zero(t, height)

	_, err = IntervalClock{Genesis: genesis}.CurrentHeight(context.Background())
	assert.Error(t, err)
}

func TestStaticAuthorityRegistry(t *testing.T) {
	registry := NewStaticAuthorityRegistry(" SP1 ", "", "SP2")
	ctx := context.Background()

	ok, err := registry.IsVerifiedAuthority(ctx, "SP1")
	require.NoError(t, err)
	assert.True(t, ok)

	registry.Remove("SP2")
	ok, _ = registry.IsVerifiedAuthority(ctx, "SP2")
	assert.False(t, ok)

	ok, _ = registry.IsVerifiedAuthority(ctx, "")
	assert.False(t, ok)
}

func TestRecordingLedger(t *testing.T) {
	ledger := NewRecordingLedger(nil)
	ctx := context.Background()

	require.NoError(t, ledger.Transfer(ctx, 5, "SP1", "SP2"))
	ledger.Fail(true)
	assert.ErrorIs(t, ledger.Transfer(ctx, 6, "SP1", "SP2"), ErrLedgerUnavailable)
	ledger.Fail(false)
	require.NoError(t, ledger.Transfer(ctx, 0, "SP3", "SP2"))

	assert.Equal(t, []Transfer{{Amount: 5, From: "SP1", To: "SP2"}, {Amount: 0, From: "SP3", To: "SP2"}}, ledger.Transfers())
}

func TestHasherAndIDGenerator(t *testing.T) {
	assert.Equal(t, sha256.Sum256([]byte("abc")), SHA256Hasher{}.Sum256([]byte("abc")))

	id, err := UUIDGenerator{}.NewID(context.Background())
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)
}
