package boltadapter

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"pollgov/contexts/governance/poll-manager/domain/entities"
	domainerrors "pollgov/contexts/governance/poll-manager/domain/errors"
	"pollgov/contexts/governance/poll-manager/ports"
	"pollgov/internal/shared/outbox"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, settings entities.Settings) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "polls.db"), settings, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "polls.db")
	ctx := context.Background()

	store, err := Open(path, entities.DefaultSettings(), nil)
	require.NoError(t, err)
	err = store.WithinTx(ctx, func(ctx context.Context, repo ports.Repository) error {
		pollID, err := repo.AllocatePollID(ctx)
		if err != nil {
			return err
		}
		if err := repo.PutPoll(ctx, entities.Poll{PollID: pollID, Title: "Treasury", Options: []string{"a", "b"}}); err != nil {
			return err
		}
		if err := repo.IndexTitle(ctx, "Treasury", pollID); err != nil {
			return err
		}
		return repo.PutCommitment(ctx, entities.VoteKey{PollID: pollID, Voter: "SP2"}, []byte{0xaa, 0xbb})
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(path, entities.DefaultSettings(), nil)
	require.NoError(t, err)
	defer store.Close()

	err = store.View(ctx, func(ctx context.Context, repo ports.Repository) error {
		count, err := repo.PollCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), count)

		poll, found, err := repo.GetPoll(ctx, 0)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, []string{"a", "b"}, poll.Options)

		pollID, found, err := repo.IDByTitle(ctx, "Treasury")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, uint64(0), pollID)

		commitment, found, err := repo.GetCommitment(ctx, entities.VoteKey{PollID: 0, Voter: "SP2"})
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, []byte{0xaa, 0xbb}, commitment)
		return nil
	})
	require.NoError(t, err)
}

func TestStoreRollsBackFailedTransaction(t *testing.T) {
	store := openStore(t, entities.DefaultSettings())
	ctx := context.Background()
	boom := errors.New("boom")

	err := store.WithinTx(ctx, func(ctx context.Context, repo ports.Repository) error {
		if _, err := repo.AllocatePollID(ctx); err != nil {
			return err
		}
		if err := repo.PutTally(ctx, entities.TallyKey{PollID: 0, Option: 1}, 4); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = store.View(ctx, func(ctx context.Context, repo ports.Repository) error {
		count, err := repo.PollCount(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
		tally, err := repo.GetTally(ctx, entities.TallyKey{PollID: 0, Option: 1})
		require.NoError(t, err)
		assert.Zero(t, tally)
		return nil
	})
	require.NoError(t, err)
}

func TestStoreAllocatorHonoursMaxPolls(t *testing.T) {
	store := openStore(t, entities.Settings{CreationFee: 1, MaxPolls: 1})
	ctx := context.Background()

	allocate := func() error {
		return store.WithinTx(ctx, func(ctx context.Context, repo ports.Repository) error {
			_, err := repo.AllocatePollID(ctx)
			return err
		})
	}
	require.NoError(t, allocate())
	assert.ErrorIs(t, allocate(), domainerrors.ErrMaxPollsExceeded)
}

func TestStoreViewRejectsWrites(t *testing.T) {
	store := openStore(t, entities.DefaultSettings())

	err := store.View(context.Background(), func(ctx context.Context, repo ports.Repository) error {
		return repo.FlagAnomaly(ctx, 1)
	})
	assert.ErrorIs(t, err, domainerrors.ErrReadOnly)
}

func TestStoreOutboxKeepsAppendOrder(t *testing.T) {
	store := openStore(t, entities.DefaultSettings())
	ctx := context.Background()

	err := store.WithinTx(ctx, func(ctx context.Context, repo ports.Repository) error {
		for _, id := range []string{"c", "a", "b"} {
			if err := repo.AppendOutbox(ctx, ports.OutboxMessage{
				OutboxID:  id,
				EventType: "poll.created",
				Status:    outbox.StatusPending,
				CreatedAt: time.Unix(0, 0).UTC(),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, store.MarkOutboxPublished(ctx, "a", time.Unix(10, 0)))

	pending, err := store.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "c", pending[0].OutboxID)
	assert.Equal(t, "b", pending[1].OutboxID)
}
