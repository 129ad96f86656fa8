package commands

import (
	"context"
	"encoding/hex"

	"pollgov/contexts/governance/poll-manager/domain/entities"
	domainerrors "pollgov/contexts/governance/poll-manager/domain/errors"
	"pollgov/contexts/governance/poll-manager/domain/services"
	"pollgov/contexts/governance/poll-manager/ports"
)

// CastVoteCommand records a hidden vote.
type CastVoteCommand struct {
	Caller     string
	PollID     uint64
	Commitment []byte
}

// RevealVoteCommand opens a previously cast commitment.
type RevealVoteCommand struct {
	Caller string
	PollID uint64
	Option uint32
	Salt   []byte
}

// CastVote stakes MinStake and records the caller's commitment while the
// voting window is open.
//
// The stake transfer and commitment are written before the anomaly check.
// When the revealed total already exceeds MaxVotes the poll is flagged and
// ErrAnomalyDetected is returned, but the stake and commitment stay
// recorded.
func (e *Engine) CastVote(ctx context.Context, cmd CastVoteCommand) error {
	key := entities.VoteKey{PollID: cmd.PollID, Voter: cmd.Caller}
	err := e.run(ctx, "cast_vote", cmd.Caller, func(ctx context.Context, repo ports.Repository, height uint64) error {
		poll, found, err := repo.GetPoll(ctx, cmd.PollID)
		if err != nil {
			return err
		}
		if !found {
			return domainerrors.ErrPollNotFound
		}
		if height < poll.StartBlock {
			return domainerrors.ErrPollNotStarted
		}
		if height >= poll.EndBlock {
			return domainerrors.ErrPollEnded
		}
		state, err := voteState(ctx, repo, key)
		if err != nil {
			return err
		}
		if state != entities.VoteStateNone {
			return domainerrors.ErrAlreadyVoted
		}

		settings, err := repo.GetSettings(ctx)
		if err != nil {
			return err
		}
		if err := repo.PutCommitment(ctx, key, append([]byte(nil), cmd.Commitment...)); err != nil {
			return err
		}
		if err := e.appendPollEvent(ctx, repo, EventVoteCommitted, poll.PollID, height, map[string]any{
			"poll_id":    poll.PollID,
			"voter":      cmd.Caller,
			"commitment": hex.EncodeToString(cmd.Commitment),
			"stake":      poll.MinStake,
		}); err != nil {
			return err
		}
		if err := e.transfer(ctx, poll.MinStake, cmd.Caller, settings.AuthorityTarget); err != nil {
			return err
		}

		tally, err := loadTally(ctx, repo, poll)
		if err != nil {
			return err
		}
		if tally.Total > poll.MaxVotes {
			if err := repo.FlagAnomaly(ctx, poll.PollID); err != nil {
				return err
			}
			if err := e.appendPollEvent(ctx, repo, EventAnomalyDetected, poll.PollID, height, map[string]any{
				"poll_id":     poll.PollID,
				"total_votes": tally.Total,
				"max_votes":   poll.MaxVotes,
			}); err != nil {
				return err
			}
			return commitAndFail{err: domainerrors.ErrAnomalyDetected}
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.logger().Info("vote committed",
		"event", "poll_vote_committed",
		"module", moduleName,
		"layer", "application",
		"poll_id", cmd.PollID,
		"voter", cmd.Caller,
	)
	return nil
}

// RevealVote checks option and salt against the caller's commitment once
// the voting window has closed and counts the vote.
func (e *Engine) RevealVote(ctx context.Context, cmd RevealVoteCommand) error {
	key := entities.VoteKey{PollID: cmd.PollID, Voter: cmd.Caller}
	err := e.run(ctx, "reveal_vote", cmd.Caller, func(ctx context.Context, repo ports.Repository, height uint64) error {
		poll, found, err := repo.GetPoll(ctx, cmd.PollID)
		if err != nil {
			return err
		}
		if !found {
			return domainerrors.ErrPollNotFound
		}
		if !poll.RevealOpen(height) {
			return domainerrors.ErrRevealNotOpen
		}
		commitment, found, err := repo.GetCommitment(ctx, key)
		if err != nil {
			return err
		}
		if !found {
			return domainerrors.ErrInvalidCommitment
		}
		if !services.VerifyReveal(e.Hasher, commitment, cmd.Option, cmd.Salt) {
			return domainerrors.ErrInvalidReveal
		}
		if int(cmd.Option) >= len(poll.Options) {
			return domainerrors.ErrInvalidOption
		}

		if err := repo.PutRevealedVote(ctx, key, cmd.Option); err != nil {
			return err
		}
		if err := repo.DeleteCommitment(ctx, key); err != nil {
			return err
		}
		tallyKey := entities.TallyKey{PollID: poll.PollID, Option: cmd.Option}
		count, err := repo.GetTally(ctx, tallyKey)
		if err != nil {
			return err
		}
		if err := repo.PutTally(ctx, tallyKey, count+1); err != nil {
			return err
		}
		return e.appendPollEvent(ctx, repo, EventVoteRevealed, poll.PollID, height, map[string]any{
			"poll_id": poll.PollID,
			"voter":   cmd.Caller,
			"option":  cmd.Option,
			"count":   count + 1,
		})
	})
	if err != nil {
		return err
	}

	e.logger().Info("vote revealed",
		"event", "poll_vote_revealed",
		"module", moduleName,
		"layer", "application",
		"poll_id", cmd.PollID,
		"voter", cmd.Caller,
		"option", cmd.Option,
	)
	return nil
}

func voteState(ctx context.Context, repo ports.VoteStore, key entities.VoteKey) (entities.VoteState, error) {
	if _, found, err := repo.GetRevealedVote(ctx, key); err != nil {
		return "", err
	} else if found {
		return entities.VoteStateRevealed, nil
	}
	if _, found, err := repo.GetCommitment(ctx, key); err != nil {
		return "", err
	} else if found {
		return entities.VoteStateCommitted, nil
	}
	return entities.VoteStateNone, nil
}

func loadTally(ctx context.Context, repo ports.VoteStore, poll entities.Poll) (entities.Tally, error) {
	counts := make([]uint64, len(poll.Options))
	for i := range poll.Options {
		count, err := repo.GetTally(ctx, entities.TallyKey{PollID: poll.PollID, Option: uint32(i)})
		if err != nil {
			return entities.Tally{}, err
		}
		counts[i] = count
	}
	return entities.NewTally(poll.PollID, counts), nil
}
