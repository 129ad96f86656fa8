package commands

import (
	"context"

	"pollgov/contexts/governance/poll-manager/domain/entities"
	"pollgov/contexts/governance/poll-manager/domain/services"
	"pollgov/contexts/governance/poll-manager/ports"
)

// CreatePollCommand is the write-model input for poll creation.
type CreatePollCommand struct {
	Caller      string
	Title       string
	Options     []string
	Duration    int64
	Quorum      int64
	VotingType  string
	Anonymity   bool
	PollType    string
	RewardRate  int64
	GracePeriod int64
	Location    string
	Category    string
	MinStake    int64
	MaxVotes    int64
}

func (cmd CreatePollCommand) draft() services.PollDraft {
	return services.PollDraft{
		Title:       cmd.Title,
		Options:     cmd.Options,
		Duration:    cmd.Duration,
		Quorum:      cmd.Quorum,
		VotingType:  cmd.VotingType,
		Anonymity:   cmd.Anonymity,
		PollType:    cmd.PollType,
		RewardRate:  cmd.RewardRate,
		GracePeriod: cmd.GracePeriod,
		Location:    cmd.Location,
		Category:    cmd.Category,
		MinStake:    cmd.MinStake,
		MaxVotes:    cmd.MaxVotes,
	}
}

// creationFacts resolves creation rule facts against the current unit of
// work and the authority registry.
type creationFacts struct {
	repo        ports.Repository
	authorities ports.AuthorityRegistry
	caller      string
	settings    entities.Settings
}

func (f creationFacts) CapacityAvailable(ctx context.Context) (bool, error) {
	count, err := f.repo.PollCount(ctx)
	if err != nil {
		return false, err
	}
	return count < f.settings.MaxPolls, nil
}

func (f creationFacts) CallerVerified(ctx context.Context) (bool, error) {
	return f.authorities.IsVerifiedAuthority(ctx, f.caller)
}

func (f creationFacts) TitleAvailable(ctx context.Context, title string) (bool, error) {
	exists, err := f.repo.ExistsByTitle(ctx, title)
	return !exists, err
}

func (f creationFacts) AuthorityBound(context.Context) (bool, error) {
	return f.settings.AuthorityBound(), nil
}

// CreatePoll validates cmd, charges the creation fee to the caller and
// stores a new open poll starting at the current height.
func (e *Engine) CreatePoll(ctx context.Context, cmd CreatePollCommand) (uint64, error) {
	e.logger().Info("poll create processing started",
		"event", "poll_create_started",
		"module", moduleName,
		"layer", "application",
		"caller", cmd.Caller,
		"title", cmd.Title,
	)

	var pollID uint64
	err := e.run(ctx, "create_poll", cmd.Caller, func(ctx context.Context, repo ports.Repository, height uint64) error {
		settings, err := repo.GetSettings(ctx)
		if err != nil {
			return err
		}
		facts := creationFacts{
			repo:        repo,
			authorities: e.Authorities,
			caller:      cmd.Caller,
			settings:    settings,
		}
		if err := services.ValidateCreation(ctx, cmd.draft(), facts); err != nil {
			return err
		}

		id, err := repo.AllocatePollID(ctx)
		if err != nil {
			return err
		}
		duration := uint64(cmd.Duration)
		poll := entities.Poll{
			PollID:      id,
			Title:       cmd.Title,
			Options:     append([]string(nil), cmd.Options...),
			Duration:    duration,
			Quorum:      uint64(cmd.Quorum),
			VotingType:  entities.VotingType(cmd.VotingType),
			Anonymity:   cmd.Anonymity,
			PollType:    entities.PollType(cmd.PollType),
			RewardRate:  uint64(cmd.RewardRate),
			GracePeriod: uint64(cmd.GracePeriod),
			Location:    cmd.Location,
			Category:    entities.Category(cmd.Category),
			MinStake:    uint64(cmd.MinStake),
			MaxVotes:    uint64(cmd.MaxVotes),
			Status:      entities.PollStatusOpen,
			Creator:     cmd.Caller,
			Timestamp:   height,
			StartBlock:  height,
			EndBlock:    height + duration,
		}
		if err := repo.PutPoll(ctx, poll); err != nil {
			return err
		}
		if err := repo.IndexTitle(ctx, poll.Title, id); err != nil {
			return err
		}
		if err := e.appendPollEvent(ctx, repo, EventPollCreated, id, height, map[string]any{
			"poll_id":     id,
			"title":       poll.Title,
			"creator":     poll.Creator,
			"start_block": poll.StartBlock,
			"end_block":   poll.EndBlock,
			"fee":         settings.CreationFee,
		}); err != nil {
			return err
		}
		if err := e.transfer(ctx, settings.CreationFee, cmd.Caller, settings.AuthorityTarget); err != nil {
			return err
		}
		pollID = id
		return nil
	})
	if err != nil {
		return 0, err
	}

	e.logger().Info("poll created",
		"event", "poll_created",
		"module", moduleName,
		"layer", "application",
		"poll_id", pollID,
		"caller", cmd.Caller,
		"title", cmd.Title,
	)
	return pollID, nil
}
