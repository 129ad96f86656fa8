package commands

import (
	"context"

	"pollgov/contexts/governance/poll-manager/domain/entities"
	domainerrors "pollgov/contexts/governance/poll-manager/domain/errors"
	"pollgov/contexts/governance/poll-manager/domain/services"
	"pollgov/contexts/governance/poll-manager/ports"
)

// UpdatePollCommand changes the mutable fields of a poll.
type UpdatePollCommand struct {
	Caller   string
	PollID   uint64
	Title    string
	Duration int64
	Quorum   int64
}

// UpdatePoll lets the creator rename a poll and change its duration and
// quorum. EndBlock is recomputed from the original StartBlock.
func (e *Engine) UpdatePoll(ctx context.Context, cmd UpdatePollCommand) error {
	err := e.run(ctx, "update_poll", cmd.Caller, func(ctx context.Context, repo ports.Repository, height uint64) error {
		poll, found, err := repo.GetPoll(ctx, cmd.PollID)
		if err != nil {
			return err
		}
		if !found {
			return domainerrors.ErrPollNotFound
		}
		if poll.Creator != cmd.Caller {
			return domainerrors.ErrPollUpdateNotAllowed
		}
		if err := services.ValidateUpdateFields(services.UpdateDraft{
			Title:    cmd.Title,
			Duration: cmd.Duration,
			Quorum:   cmd.Quorum,
		}); err != nil {
			return err
		}
		if ownerID, taken, err := repo.IDByTitle(ctx, cmd.Title); err != nil {
			return err
		} else if taken && ownerID != cmd.PollID {
			return domainerrors.ErrPollAlreadyExists
		}

		oldTitle := poll.Title
		poll.Title = cmd.Title
		poll.Duration = uint64(cmd.Duration)
		poll.Quorum = uint64(cmd.Quorum)
		poll.Timestamp = height
		poll.EndBlock = poll.StartBlock + poll.Duration
		if err := repo.PutPoll(ctx, poll); err != nil {
			return err
		}
		if err := repo.DeleteTitle(ctx, oldTitle); err != nil {
			return err
		}
		if err := repo.IndexTitle(ctx, poll.Title, poll.PollID); err != nil {
			return err
		}
		if err := repo.PutPollUpdate(ctx, entities.PollUpdate{
			PollID:    poll.PollID,
			Title:     poll.Title,
			Duration:  poll.Duration,
			Quorum:    poll.Quorum,
			Timestamp: height,
			Updater:   cmd.Caller,
		}); err != nil {
			return err
		}
		return e.appendPollEvent(ctx, repo, EventPollUpdated, poll.PollID, height, map[string]any{
			"poll_id":   poll.PollID,
			"title":     poll.Title,
			"duration":  poll.Duration,
			"quorum":    poll.Quorum,
			"end_block": poll.EndBlock,
			"updater":   cmd.Caller,
		})
	})
	if err != nil {
		return err
	}

	e.logger().Info("poll updated",
		"event", "poll_updated",
		"module", moduleName,
		"layer", "application",
		"poll_id", cmd.PollID,
		"caller", cmd.Caller,
		"title", cmd.Title,
		"duration", cmd.Duration,
		"quorum", cmd.Quorum,
	)
	return nil
}
