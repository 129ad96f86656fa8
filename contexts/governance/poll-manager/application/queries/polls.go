package queries

import (
	"context"

	"pollgov/contexts/governance/poll-manager/domain/entities"
	domainerrors "pollgov/contexts/governance/poll-manager/domain/errors"
	"pollgov/contexts/governance/poll-manager/ports"
)

// PollQueries serves read-only views of the poll state. None of its
// methods write.
type PollQueries struct {
	Store ports.UnitOfWork
}

func (q PollQueries) GetPoll(ctx context.Context, pollID uint64) (entities.Poll, bool, error) {
	var (
		poll  entities.Poll
		found bool
	)
	err := q.Store.View(ctx, func(ctx context.Context, repo ports.Repository) error {
		var err error
		poll, found, err = repo.GetPoll(ctx, pollID)
		return err
	})
	return poll, found, err
}

// GetPollCount returns the number of polls ever created.
func (q PollQueries) GetPollCount(ctx context.Context) (uint64, error) {
	var count uint64
	err := q.Store.View(ctx, func(ctx context.Context, repo ports.Repository) error {
		var err error
		count, err = repo.PollCount(ctx)
		return err
	})
	return count, err
}

func (q PollQueries) CheckPollExistence(ctx context.Context, title string) (bool, error) {
	var exists bool
	err := q.Store.View(ctx, func(ctx context.Context, repo ports.Repository) error {
		var err error
		exists, err = repo.ExistsByTitle(ctx, title)
		return err
	})
	return exists, err
}

func (q PollQueries) GetPollUpdate(ctx context.Context, pollID uint64) (entities.PollUpdate, bool, error) {
	var (
		update entities.PollUpdate
		found  bool
	)
	err := q.Store.View(ctx, func(ctx context.Context, repo ports.Repository) error {
		var err error
		update, found, err = repo.GetPollUpdate(ctx, pollID)
		return err
	})
	return update, found, err
}

// GetTally returns the revealed-vote counts of every option of a poll.
func (q PollQueries) GetTally(ctx context.Context, pollID uint64) (entities.Tally, error) {
	var tally entities.Tally
	err := q.Store.View(ctx, func(ctx context.Context, repo ports.Repository) error {
		poll, found, err := repo.GetPoll(ctx, pollID)
		if err != nil {
			return err
		}
		if !found {
			return domainerrors.ErrPollNotFound
		}
		counts := make([]uint64, len(poll.Options))
		for i := range counts {
			counts[i], err = repo.GetTally(ctx, entities.TallyKey{PollID: pollID, Option: uint32(i)})
			if err != nil {
				return err
			}
		}
		tally = entities.NewTally(pollID, counts)
		return nil
	})
	return tally, err
}

// GetVoteStatus reports where voter stands in the commit-reveal protocol
// of a poll.
func (q PollQueries) GetVoteStatus(ctx context.Context, pollID uint64, voter string) (entities.VoteState, error) {
	state := entities.VoteStateNone
	err := q.Store.View(ctx, func(ctx context.Context, repo ports.Repository) error {
		key := entities.VoteKey{PollID: pollID, Voter: voter}
		if _, found, err := repo.GetRevealedVote(ctx, key); err != nil {
			return err
		} else if found {
			state = entities.VoteStateRevealed
			return nil
		}
		if _, found, err := repo.GetCommitment(ctx, key); err != nil {
			return err
		} else if found {
			state = entities.VoteStateCommitted
		}
		return nil
	})
	return state, err
}

func (q PollQueries) IsAnomalous(ctx context.Context, pollID uint64) (bool, error) {
	var flagged bool
	err := q.Store.View(ctx, func(ctx context.Context, repo ports.Repository) error {
		var err error
		flagged, err = repo.IsAnomalous(ctx, pollID)
		return err
	})
	return flagged, err
}

func (q PollQueries) GetSettings(ctx context.Context) (entities.Settings, error) {
	var settings entities.Settings
	err := q.Store.View(ctx, func(ctx context.Context, repo ports.Repository) error {
		var err error
		settings, err = repo.GetSettings(ctx)
		return err
	})
	return settings, err
}
