package boltadapter

import (
	"context"
	"path/filepath"
	"testing"

	"pollgov/contexts/governance/poll-manager/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeightClockRejectsLowerHeightAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polls.db")
	ctx := context.Background()

	store, err := Open(path, entities.DefaultSettings(), nil)
	require.NoError(t, err)
	_, found, err := store.LastHeight()
	require.NoError(t, err)
	assert.False(t, found)

	height, err := store.HeightClock(50).CurrentHeight(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), height)
	require.NoError(t, store.Close())

	store, err = Open(path, entities.DefaultSettings(), nil)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.HeightClock(10).CurrentHeight(ctx)
	assert.ErrorIs(t, err, ErrHeightRegressed)

	height, err = store.HeightClock(50).CurrentHeight(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), height)

	_, err = store.HeightClock(60).CurrentHeight(ctx)
	require.NoError(t, err)
	last, found, err := store.LastHeight()
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, uint64(60), last)
}
