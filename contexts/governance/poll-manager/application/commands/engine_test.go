package commands

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"pollgov/contexts/governance/poll-manager/adapters/memory"
	"pollgov/contexts/governance/poll-manager/adapters/system"
	"pollgov/contexts/governance/poll-manager/domain/entities"
	domainerrors "pollgov/contexts/governance/poll-manager/domain/errors"
	"pollgov/contexts/governance/poll-manager/domain/services"
	"pollgov/contexts/governance/poll-manager/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	admin    = "SP1ADMIN"
	treasury = "SP2TREASURY"
)

type recordingMetrics struct {
	mu       sync.Mutex
	outcomes map[string][]string
}

func (m *recordingMetrics) OperationCompleted(operation string, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = map[string][]string{}
	}
	m.outcomes[operation] = append(m.outcomes[operation], outcome)
}

type fixture struct {
	engine  *Engine
	store   *memory.Store
	clock   *system.ManualClock
	ledger  *system.RecordingLedger
	metrics *recordingMetrics
}

func newFixture(t *testing.T, settings entities.Settings) fixture {
	t.Helper()
	f := fixture{
		store:   memory.NewStore(settings),
		clock:   system.NewManualClock(0),
		ledger:  system.NewRecordingLedger(nil),
		metrics: &recordingMetrics{},
	}
	f.engine = &Engine{
		Store:       f.store,
		Clock:       f.clock,
		Authorities: system.NewStaticAuthorityRegistry(admin),
		Ledger:      f.ledger,
		Hasher:      system.SHA256Hasher{},
		IDGen:       system.UUIDGenerator{},
		WallClock:   system.SystemClock{},
		Metrics:     f.metrics,
	}
	return f
}

func newBoundFixture(t *testing.T) fixture {
	t.Helper()
	f := newFixture(t, entities.DefaultSettings())
	require.NoError(t, f.engine.SetAuthorityContract(context.Background(), admin, treasury))
	return f
}

func validPoll(title string) CreatePollCommand {
	return CreatePollCommand{
		Caller:      admin,
		Title:       title,
		Options:     []string{"yes", "no"},
		Duration:    100,
		Quorum:      1,
		VotingType:  "single",
		PollType:    "governance",
		RewardRate:  3,
		GracePeriod: 10,
		Location:    "global",
		Category:    "dao",
		MinStake:    7,
		MaxVotes:    100,
	}
}

func (f fixture) commit(t *testing.T, pollID uint64, voter string, option uint32, salt string) error {
	t.Helper()
	return f.engine.CastVote(context.Background(), CastVoteCommand{
		Caller:     voter,
		PollID:     pollID,
		Commitment: services.ComputeCommitment(system.SHA256Hasher{}, option, []byte(salt)),
	})
}

func (f fixture) reveal(pollID uint64, voter string, option uint32, salt string) error {
	return f.engine.RevealVote(context.Background(), RevealVoteCommand{
		Caller: voter,
		PollID: pollID,
		Option: option,
		Salt:   []byte(salt),
	})
}

func (f fixture) pendingEventTypes(t *testing.T) []string {
	t.Helper()
	rows, err := f.store.ListPendingOutbox(context.Background(), 0)
	require.NoError(t, err)
	types := make([]string, 0, len(rows))
	for _, row := range rows {
		types = append(types, row.EventType)
	}
	return types
}

func (f fixture) view(t *testing.T, fn func(ctx context.Context, repo ports.Repository)) {
	t.Helper()
	require.NoError(t, f.store.View(context.Background(), func(ctx context.Context, repo ports.Repository) error {
		fn(ctx, repo)
		return nil
	}))
}

func TestCreatePollAssignsSequentialIDsAndWindow(t *testing.T) {
	f := newBoundFixture(t)
	ctx := context.Background()

	first, err := f.engine.CreatePoll(ctx, validPoll("First"))
	require.NoError(t, err)
	f.clock.SetHeight(42)
	second, err := f.engine.CreatePoll(ctx, validPoll("Second"))
	require.NoError(t, err)

	assert.Equal(t, uint64(0), first)
	assert.Equal(t, uint64(1), second)

	f.view(t, func(ctx context.Context, repo ports.Repository) {
		poll, found, err := repo.GetPoll(ctx, second)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, uint64(42), poll.StartBlock)
		assert.Equal(t, uint64(142), poll.EndBlock)
		assert.Equal(t, uint64(42), poll.Timestamp)
		assert.Equal(t, admin, poll.Creator)
		assert.Equal(t, entities.PollStatusOpen, poll.Status)
	})

	assert.Equal(t, []system.Transfer{
		{Amount: entities.DefaultCreationFee, From: admin, To: treasury},
		{Amount: entities.DefaultCreationFee, From: admin, To: treasury},
	}, f.ledger.Transfers())
	assert.Equal(t, []string{EventAuthorityBound, EventPollCreated, EventPollCreated}, f.pendingEventTypes(t))
}

func TestCreatePollReportsFirstFailingRule(t *testing.T) {
	ctx := context.Background()

	full := newFixture(t, entities.Settings{CreationFee: 1, MaxPolls: 0})
	cmd := validPoll("")
	cmd.Options = nil
	_, err := full.engine.CreatePoll(ctx, cmd)
	assert.ErrorIs(t, err, domainerrors.ErrMaxPollsExceeded)

	f := newBoundFixture(t)
	_, err = f.engine.CreatePoll(ctx, cmd)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidTitle)

	cmd = validPoll("Budget")
	cmd.Quorum = 101
	cmd.Category = "guild"
	_, err = f.engine.CreatePoll(ctx, cmd)
	assert.ErrorIs(t, err, domainerrors.ErrInvalidQuorum)

	cmd = validPoll("Budget")
	cmd.Caller = "SP9STRANGER"
	_, err = f.engine.CreatePoll(ctx, cmd)
	assert.ErrorIs(t, err, domainerrors.ErrNotAuthorized)
	assert.Equal(t, domainerrors.KindAuthorization, domainerrors.KindOf(err))

	unbound := newFixture(t, entities.DefaultSettings())
	_, err = unbound.engine.CreatePoll(ctx, validPoll("Budget"))
	assert.ErrorIs(t, err, domainerrors.ErrAuthorityNotVerified)

	assert.Empty(t, f.ledger.Transfers())
	assert.Equal(t, []string{"ok", "validation", "validation", "authorization"}, append(
		f.metrics.outcomes["set_authority_contract"], f.metrics.outcomes["create_poll"]...,
	))
}

func TestCreatePollTransferFailureLeavesNoTrace(t *testing.T) {
	f := newBoundFixture(t)
	f.ledger.Fail(true)

	_, err := f.engine.CreatePoll(context.Background(), validPoll("Budget"))
	require.ErrorIs(t, err, domainerrors.ErrTransferFailed)
	assert.ErrorIs(t, err, system.ErrLedgerUnavailable)
	assert.Equal(t, domainerrors.KindTransfer, domainerrors.KindOf(err))

	f.view(t, func(ctx context.Context, repo ports.Repository) {
		count, err := repo.PollCount(ctx)
		require.NoError(t, err)
		assert.Zero(t, count)
		exists, err := repo.ExistsByTitle(ctx, "Budget")
		require.NoError(t, err)
		assert.False(t, exists)
	})
	assert.Equal(t, []string{EventAuthorityBound}, f.pendingEventTypes(t))

	f.ledger.Fail(false)
	pollID, err := f.engine.CreatePoll(context.Background(), validPoll("Budget"))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), pollID)
}

func TestUpdatePollRules(t *testing.T) {
	f := newBoundFixture(t)
	ctx := context.Background()
	f.clock.SetHeight(7)
	pollID, err := f.engine.CreatePoll(ctx, validPoll("Budget"))
	require.NoError(t, err)
	_, err = f.engine.CreatePoll(ctx, validPoll("Roadmap"))
	require.NoError(t, err)

	err = f.engine.UpdatePoll(ctx, UpdatePollCommand{Caller: admin, PollID: 99, Title: "x", Duration: 1, Quorum: 1})
	assert.ErrorIs(t, err, domainerrors.ErrPollNotFound)

	err = f.engine.UpdatePoll(ctx, UpdatePollCommand{Caller: "SP9STRANGER", PollID: pollID, Title: "", Duration: 0, Quorum: 0})
	assert.ErrorIs(t, err, domainerrors.ErrPollUpdateNotAllowed)

	err = f.engine.UpdatePoll(ctx, UpdatePollCommand{Caller: admin, PollID: pollID, Title: "Budget", Duration: 0, Quorum: 500})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidDuration)

	err = f.engine.UpdatePoll(ctx, UpdatePollCommand{Caller: admin, PollID: pollID, Title: "Roadmap", Duration: 10, Quorum: 5})
	assert.ErrorIs(t, err, domainerrors.ErrPollAlreadyExists)

	f.clock.SetHeight(20)
	require.NoError(t, f.engine.UpdatePoll(ctx, UpdatePollCommand{Caller: admin, PollID: pollID, Title: "Budget", Duration: 30, Quorum: 5}))
	require.NoError(t, f.engine.UpdatePoll(ctx, UpdatePollCommand{Caller: admin, PollID: pollID, Title: "Budget 2027", Duration: 50, Quorum: 6}))

	f.view(t, func(ctx context.Context, repo ports.Repository) {
		poll, _, err := repo.GetPoll(ctx, pollID)
		require.NoError(t, err)
		assert.Equal(t, "Budget 2027", poll.Title)
		assert.Equal(t, uint64(7), poll.StartBlock)
		assert.Equal(t, uint64(57), poll.EndBlock)
		assert.Equal(t, uint64(6), poll.Quorum)
		assert.Equal(t, uint64(20), poll.Timestamp)

		oldTaken, err := repo.ExistsByTitle(ctx, "Budget")
		require.NoError(t, err)
		assert.False(t, oldTaken)

		update, found, err := repo.GetPollUpdate(ctx, pollID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, entities.PollUpdate{
			PollID:    pollID,
			Title:     "Budget 2027",
			Duration:  50,
			Quorum:    6,
			Timestamp: 20,
			Updater:   admin,
		}, update)
	})
	assert.Len(t, f.ledger.Transfers(), 2)
}

func TestSettingsOperations(t *testing.T) {
	f := newFixture(t, entities.DefaultSettings())
	ctx := context.Background()

	assert.ErrorIs(t, f.engine.SetCreationFee(ctx, admin, 5), domainerrors.ErrAuthorityNotVerified)
	assert.ErrorIs(t, f.engine.SetAuthorityContract(ctx, admin, ""), domainerrors.ErrInvalidAuthorityTarget)
	assert.ErrorIs(t, f.engine.SetAuthorityContract(ctx, admin, services.BurnAddress), domainerrors.ErrInvalidAuthorityTarget)

	require.NoError(t, f.engine.SetAuthorityContract(ctx, admin, treasury))
	assert.ErrorIs(t, f.engine.SetAuthorityContract(ctx, admin, "SP5OTHER"), domainerrors.ErrAuthorityAlreadyBound)

	require.NoError(t, f.engine.SetCreationFee(ctx, admin, 5))
	_, err := f.engine.CreatePoll(ctx, validPoll("Budget"))
	require.NoError(t, err)
	assert.Equal(t, []system.Transfer{{Amount: 5, From: admin, To: treasury}}, f.ledger.Transfers())

	f.view(t, func(ctx context.Context, repo ports.Repository) {
		settings, err := repo.GetSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, entities.Settings{CreationFee: 5, AuthorityTarget: treasury, MaxPolls: entities.DefaultMaxPolls}, settings)
	})
}

func TestCastVoteWindowAndDuplicates(t *testing.T) {
	f := newBoundFixture(t)
	ctx := context.Background()
	pollID, err := f.engine.CreatePoll(ctx, validPoll("Budget"))
	require.NoError(t, err)

	assert.ErrorIs(t, f.commit(t, 9, "SP3", 0, "s"), domainerrors.ErrPollNotFound)

	f.clock.SetHeight(10)
	require.NoError(t, f.commit(t, pollID, "SP3", 0, "s"))
	assert.ErrorIs(t, f.commit(t, pollID, "SP3", 1, "t"), domainerrors.ErrAlreadyVoted)

	f.clock.SetHeight(100)
	err = f.commit(t, pollID, "SP4", 0, "s")
	assert.ErrorIs(t, err, domainerrors.ErrPollEnded)
	assert.Equal(t, domainerrors.KindTemporal, domainerrors.KindOf(err))

	transfers := f.ledger.Transfers()
	require.Len(t, transfers, 2)
	assert.Equal(t, system.Transfer{Amount: 7, From: "SP3", To: treasury}, transfers[1])
}

func TestCastVoteStakeFailureRollsBackCommitment(t *testing.T) {
	f := newBoundFixture(t)
	pollID, err := f.engine.CreatePoll(context.Background(), validPoll("Budget"))
	require.NoError(t, err)

	f.ledger.Fail(true)
	assert.ErrorIs(t, f.commit(t, pollID, "SP3", 0, "s"), domainerrors.ErrTransferFailed)

	f.view(t, func(ctx context.Context, repo ports.Repository) {
		_, found, err := repo.GetCommitment(ctx, entities.VoteKey{PollID: pollID, Voter: "SP3"})
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestRevealVoteRules(t *testing.T) {
	f := newBoundFixture(t)
	pollID, err := f.engine.CreatePoll(context.Background(), validPoll("Budget"))
	require.NoError(t, err)

	f.clock.SetHeight(1)
	require.NoError(t, f.commit(t, pollID, "SP3", 1, "pepper"))
	require.NoError(t, f.commit(t, pollID, "SP4", 5, "salt"))

	f.clock.SetHeight(100)
	assert.ErrorIs(t, f.reveal(pollID, "SP3", 1, "pepper"), domainerrors.ErrRevealNotOpen)

	f.clock.SetHeight(101)
	assert.ErrorIs(t, f.reveal(42, "SP3", 1, "pepper"), domainerrors.ErrPollNotFound)
	assert.ErrorIs(t, f.reveal(pollID, "SP5", 1, "pepper"), domainerrors.ErrInvalidCommitment)
	assert.ErrorIs(t, f.reveal(pollID, "SP3", 0, "pepper"), domainerrors.ErrInvalidReveal)
	assert.ErrorIs(t, f.reveal(pollID, "SP4", 5, "salt"), domainerrors.ErrInvalidOption)

	require.NoError(t, f.reveal(pollID, "SP3", 1, "pepper"))
	assert.ErrorIs(t, f.reveal(pollID, "SP3", 1, "pepper"), domainerrors.ErrInvalidCommitment)

	f.view(t, func(ctx context.Context, repo ports.Repository) {
		option, found, err := repo.GetRevealedVote(ctx, entities.VoteKey{PollID: pollID, Voter: "SP3"})
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, uint32(1), option)

		count, err := repo.GetTally(ctx, entities.TallyKey{PollID: pollID, Option: 1})
		require.NoError(t, err)
		assert.Equal(t, uint64(1), count)

		_, stillCommitted, err := repo.GetCommitment(ctx, entities.VoteKey{PollID: pollID, Voter: "SP4"})
		require.NoError(t, err)
		assert.True(t, stillCommitted)
	})
}

func TestCastVoteAnomalyKeepsStakeAndCommitment(t *testing.T) {
	f := newBoundFixture(t)
	ctx := context.Background()
	cmd := validPoll("Budget")
	cmd.Duration = 10
	cmd.MaxVotes = 1
	pollID, err := f.engine.CreatePoll(ctx, cmd)
	require.NoError(t, err)

	f.clock.SetHeight(1)
	require.NoError(t, f.commit(t, pollID, "SP3", 0, "a"))
	require.NoError(t, f.commit(t, pollID, "SP4", 1, "b"))
	f.clock.SetHeight(11)
	require.NoError(t, f.reveal(pollID, "SP3", 0, "a"))
	require.NoError(t, f.reveal(pollID, "SP4", 1, "b"))

	// extending the poll reopens the voting window with two revealed votes
	require.NoError(t, f.engine.UpdatePoll(ctx, UpdatePollCommand{Caller: admin, PollID: pollID, Title: "Budget", Duration: 100, Quorum: 1}))
	f.clock.SetHeight(12)

	err = f.commit(t, pollID, "SP5", 0, "c")
	require.ErrorIs(t, err, domainerrors.ErrAnomalyDetected)
	assert.Equal(t, domainerrors.KindAnomaly, domainerrors.KindOf(err))

	f.view(t, func(ctx context.Context, repo ports.Repository) {
		anomalous, err := repo.IsAnomalous(ctx, pollID)
		require.NoError(t, err)
		assert.True(t, anomalous)
		_, found, err := repo.GetCommitment(ctx, entities.VoteKey{PollID: pollID, Voter: "SP5"})
		require.NoError(t, err)
		assert.True(t, found)
	})

	transfers := f.ledger.Transfers()
	assert.Equal(t, system.Transfer{Amount: 7, From: "SP5", To: treasury}, transfers[len(transfers)-1])

	events := f.pendingEventTypes(t)
	assert.Equal(t, []string{EventVoteCommitted, EventAnomalyDetected}, events[len(events)-2:])
	assert.Equal(t, "anomaly", f.metrics.outcomes["cast_vote"][2])
}

func TestFinalizePoll(t *testing.T) {
	f := newBoundFixture(t)
	ctx := context.Background()
	cmd := validPoll("Budget")
	cmd.Quorum = 1
	cmd.GracePeriod = 5
	pollID, err := f.engine.CreatePoll(ctx, cmd)
	require.NoError(t, err)

	_, err = f.engine.FinalizePoll(ctx, "SP3", 77)
	assert.ErrorIs(t, err, domainerrors.ErrPollNotFound)

	f.clock.SetHeight(3)
	require.NoError(t, f.commit(t, pollID, "SP3", 0, "x"))

	f.clock.SetHeight(104)
	_, err = f.engine.FinalizePoll(ctx, "SP3", pollID)
	assert.ErrorIs(t, err, domainerrors.ErrFinalizeTooEarly)

	f.clock.SetHeight(105)
	_, err = f.engine.FinalizePoll(ctx, "SP3", pollID)
	assert.ErrorIs(t, err, domainerrors.ErrQuorumNotMet)
	assert.Equal(t, domainerrors.KindQuorum, domainerrors.KindOf(err))

	require.NoError(t, f.reveal(pollID, "SP3", 0, "x"))
	tally, err := f.engine.FinalizePoll(ctx, "SP3", pollID)
	require.NoError(t, err)
	assert.Equal(t, entities.Tally{PollID: pollID, Counts: []uint64{1, 0}, Total: 1}, tally)

	_, err = f.engine.FinalizePoll(ctx, "SP9", pollID)
	require.NoError(t, err)

	f.view(t, func(ctx context.Context, repo ports.Repository) {
		poll, _, err := repo.GetPoll(ctx, pollID)
		require.NoError(t, err)
		assert.Equal(t, entities.PollStatusClosed, poll.Status)
	})

	rows, err := f.store.ListPendingOutbox(ctx, 0)
	require.NoError(t, err)
	last := rows[len(rows)-1]
	var envelope ports.EventEnvelope
	require.NoError(t, json.Unmarshal(last.Payload, &envelope))
	assert.Equal(t, EventPollFinalized, envelope.EventType)
	assert.Equal(t, uint64(105), envelope.Height)
	assert.Equal(t, "0", envelope.PartitionKey)
}

func TestCastVoteBeforeStartBlockIsRejected(t *testing.T) {
	f := newBoundFixture(t)
	f.clock.SetHeight(50)
	pollID, err := f.engine.CreatePoll(context.Background(), validPoll("Budget"))
	require.NoError(t, err)
	transfersBefore := len(f.ledger.Transfers())

	f.engine.Clock = system.NewManualClock(10)
	err = f.commit(t, pollID, "SP3", 0, "s")
	require.ErrorIs(t, err, domainerrors.ErrPollNotStarted)
	assert.Equal(t, domainerrors.KindTemporal, domainerrors.KindOf(err))
	assert.Equal(t, 122, domainerrors.CodeOf(err))

	assert.Len(t, f.ledger.Transfers(), transfersBefore)
	f.view(t, func(ctx context.Context, repo ports.Repository) {
		_, found, err := repo.GetCommitment(ctx, entities.VoteKey{PollID: pollID, Voter: "SP3"})
		require.NoError(t, err)
		assert.False(t, found)
	})
	assert.Equal(t, []string{EventAuthorityBound, EventPollCreated}, f.pendingEventTypes(t))
}
