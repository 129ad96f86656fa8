package httpadapter

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"

	"pollgov/contexts/governance/poll-manager/application/commands"
	"pollgov/contexts/governance/poll-manager/application/queries"
	"pollgov/contexts/governance/poll-manager/domain/entities"
	domainerrors "pollgov/contexts/governance/poll-manager/domain/errors"
	"pollgov/contexts/governance/poll-manager/domain/services"
	"pollgov/contexts/governance/poll-manager/ports"
	httptransport "pollgov/contexts/governance/poll-manager/transport/http"
)

type Handler struct {
	Engine  *commands.Engine
	Queries queries.PollQueries
	Hasher  ports.Hasher
	Logger  *slog.Logger
}

func (h Handler) CreatePollHandler(
	ctx context.Context,
	caller string,
	req httptransport.CreatePollRequest,
) (httptransport.CreatePollResponse, error) {
	pollID, err := h.Engine.CreatePoll(ctx, commands.CreatePollCommand{
		Caller:      caller,
		Title:       req.Title,
		Options:     req.Options,
		Duration:    req.Duration,
		Quorum:      req.Quorum,
		VotingType:  req.VotingType,
		Anonymity:   req.Anonymity,
		PollType:    req.PollType,
		RewardRate:  req.RewardRate,
		GracePeriod: req.GracePeriod,
		Location:    req.Location,
		Category:    req.Category,
		MinStake:    req.MinStake,
		MaxVotes:    req.MaxVotes,
	})
	if err != nil {
		return httptransport.CreatePollResponse{}, err
	}
	return httptransport.CreatePollResponse{PollID: pollID}, nil
}

func (h Handler) UpdatePollHandler(
	ctx context.Context,
	caller string,
	pollID uint64,
	req httptransport.UpdatePollRequest,
) error {
	return h.Engine.UpdatePoll(ctx, commands.UpdatePollCommand{
		Caller:   caller,
		PollID:   pollID,
		Title:    req.Title,
		Duration: req.Duration,
		Quorum:   req.Quorum,
	})
}

func (h Handler) SetAuthorityHandler(ctx context.Context, caller string, req httptransport.SetAuthorityRequest) error {
	return h.Engine.SetAuthorityContract(ctx, caller, req.Target)
}

func (h Handler) SetCreationFeeHandler(ctx context.Context, caller string, req httptransport.SetCreationFeeRequest) error {
	return h.Engine.SetCreationFee(ctx, caller, req.Fee)
}

func (h Handler) CastVoteHandler(
	ctx context.Context,
	caller string,
	pollID uint64,
	req httptransport.CastVoteRequest,
) error {
	commitment, err := decodeHex("commitment", req.Commitment)
	if err != nil {
		return err
	}
	return h.Engine.CastVote(ctx, commands.CastVoteCommand{
		Caller:     caller,
		PollID:     pollID,
		Commitment: commitment,
	})
}

func (h Handler) RevealVoteHandler(
	ctx context.Context,
	caller string,
	pollID uint64,
	req httptransport.RevealVoteRequest,
) error {
	salt, err := decodeHex("salt", req.Salt)
	if err != nil {
		return err
	}
	return h.Engine.RevealVote(ctx, commands.RevealVoteCommand{
		Caller: caller,
		PollID: pollID,
		Option: req.Option,
		Salt:   salt,
	})
}

func (h Handler) FinalizePollHandler(ctx context.Context, caller string, pollID uint64) (httptransport.TallyResponse, error) {
	tally, err := h.Engine.FinalizePoll(ctx, caller, pollID)
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	return mapTally(tally), nil
}

// CommitmentHandler computes the commitment a voter would cast for option
// and salt. It does not touch state.
func (h Handler) CommitmentHandler(_ context.Context, req httptransport.CommitmentRequest) (httptransport.CommitmentResponse, error) {
	salt, err := decodeHex("salt", req.Salt)
	if err != nil {
		return httptransport.CommitmentResponse{}, err
	}
	return httptransport.CommitmentResponse{
		Commitment: hex.EncodeToString(services.ComputeCommitment(h.Hasher, req.Option, salt)),
	}, nil
}

func (h Handler) GetPollHandler(ctx context.Context, pollID uint64) (httptransport.PollResponse, error) {
	poll, found, err := h.Queries.GetPoll(ctx, pollID)
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	if !found {
		return httptransport.PollResponse{}, domainerrors.ErrPollNotFound
	}
	anomalous, err := h.Queries.IsAnomalous(ctx, pollID)
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	resp := mapPoll(poll)
	resp.Anomalous = anomalous
	return resp, nil
}

func (h Handler) GetPollUpdateHandler(ctx context.Context, pollID uint64) (httptransport.PollUpdateResponse, error) {
	update, found, err := h.Queries.GetPollUpdate(ctx, pollID)
	if err != nil {
		return httptransport.PollUpdateResponse{}, err
	}
	if !found {
		return httptransport.PollUpdateResponse{}, domainerrors.ErrPollNotFound
	}
	return httptransport.PollUpdateResponse{
		PollID:    update.PollID,
		Title:     update.Title,
		Duration:  update.Duration,
		Quorum:    update.Quorum,
		Timestamp: update.Timestamp,
		Updater:   update.Updater,
	}, nil
}

func (h Handler) PollCountHandler(ctx context.Context) (httptransport.PollCountResponse, error) {
	count, err := h.Queries.GetPollCount(ctx)
	if err != nil {
		return httptransport.PollCountResponse{}, err
	}
	return httptransport.PollCountResponse{Count: count}, nil
}

func (h Handler) PollExistenceHandler(ctx context.Context, title string) (httptransport.PollExistenceResponse, error) {
	exists, err := h.Queries.CheckPollExistence(ctx, title)
	if err != nil {
		return httptransport.PollExistenceResponse{}, err
	}
	return httptransport.PollExistenceResponse{Title: title, Exists: exists}, nil
}

func (h Handler) TallyHandler(ctx context.Context, pollID uint64) (httptransport.TallyResponse, error) {
	tally, err := h.Queries.GetTally(ctx, pollID)
	if err != nil {
		return httptransport.TallyResponse{}, err
	}
	return mapTally(tally), nil
}

func (h Handler) VoteStatusHandler(ctx context.Context, pollID uint64, voter string) (httptransport.VoteStatusResponse, error) {
	state, err := h.Queries.GetVoteStatus(ctx, pollID, voter)
	if err != nil {
		return httptransport.VoteStatusResponse{}, err
	}
	return httptransport.VoteStatusResponse{PollID: pollID, Voter: voter, State: string(state)}, nil
}

func (h Handler) SettingsHandler(ctx context.Context) (httptransport.SettingsResponse, error) {
	settings, err := h.Queries.GetSettings(ctx)
	if err != nil {
		return httptransport.SettingsResponse{}, err
	}
	return httptransport.SettingsResponse{
		CreationFee:     settings.CreationFee,
		AuthorityTarget: settings.AuthorityTarget,
		MaxPolls:        settings.MaxPolls,
	}, nil
}

func decodeHex(field string, value string) ([]byte, error) {
	decoded, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be hex encoded", domainerrors.ErrMalformedInput, field)
	}
	return decoded, nil
}

func mapPoll(poll entities.Poll) httptransport.PollResponse {
	return httptransport.PollResponse{
		PollID:      poll.PollID,
		Title:       poll.Title,
		Options:     poll.Options,
		Duration:    poll.Duration,
		Quorum:      poll.Quorum,
		VotingType:  string(poll.VotingType),
		Anonymity:   poll.Anonymity,
		PollType:    string(poll.PollType),
		RewardRate:  poll.RewardRate,
		GracePeriod: poll.GracePeriod,
		Location:    poll.Location,
		Category:    string(poll.Category),
		MinStake:    poll.MinStake,
		MaxVotes:    poll.MaxVotes,
		Status:      string(poll.Status),
		Creator:     poll.Creator,
		Timestamp:   poll.Timestamp,
		StartBlock:  poll.StartBlock,
		EndBlock:    poll.EndBlock,
	}
}

func mapTally(tally entities.Tally) httptransport.TallyResponse {
	return httptransport.TallyResponse{
		PollID: tally.PollID,
		Counts: tally.Counts,
		Total:  tally.Total,
	}
}
