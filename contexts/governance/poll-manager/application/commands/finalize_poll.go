package commands

import (
	"context"

	"pollgov/contexts/governance/poll-manager/domain/entities"
	domainerrors "pollgov/contexts/governance/poll-manager/domain/errors"
	"pollgov/contexts/governance/poll-manager/ports"
)

// FinalizePoll closes a poll once the grace period after EndBlock has
// elapsed and the revealed votes reach quorum. Finalizing a closed poll
// re-checks both conditions and leaves it closed.
func (e *Engine) FinalizePoll(ctx context.Context, caller string, pollID uint64) (entities.Tally, error) {
	var tally entities.Tally
	err := e.run(ctx, "finalize_poll", caller, func(ctx context.Context, repo ports.Repository, height uint64) error {
		poll, found, err := repo.GetPoll(ctx, pollID)
		if err != nil {
			return err
		}
		if !found {
			return domainerrors.ErrPollNotFound
		}
		if height < poll.FinalizableAt() {
			return domainerrors.ErrFinalizeTooEarly
		}
		current, err := loadTally(ctx, repo, poll)
		if err != nil {
			return err
		}
		if current.Total < poll.Quorum {
			return domainerrors.ErrQuorumNotMet
		}

		poll.Status = entities.PollStatusClosed
		if err := repo.PutPoll(ctx, poll); err != nil {
			return err
		}
		if err := e.appendPollEvent(ctx, repo, EventPollFinalized, poll.PollID, height, map[string]any{
			"poll_id":     poll.PollID,
			"counts":      current.Counts,
			"total_votes": current.Total,
			"quorum":      poll.Quorum,
		}); err != nil {
			return err
		}
		tally = current
		return nil
	})
	if err != nil {
		return entities.Tally{}, err
	}

	e.logger().Info("poll finalized",
		"event", "poll_finalized",
		"module", moduleName,
		"layer", "application",
		"poll_id", pollID,
		"caller", caller,
		"total_votes", tally.Total,
	)
	return tally, nil
}
