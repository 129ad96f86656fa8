package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	domainerrors "pollgov/contexts/governance/poll-manager/domain/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFacts struct {
	capacity  bool
	verified  bool
	available bool
	bound     bool
	err       error
	asked     []string
}

func (f *stubFacts) CapacityAvailable(context.Context) (bool, error) {
	f.asked = append(f.asked, "capacity")
	return f.capacity, f.err
}

func (f *stubFacts) CallerVerified(context.Context) (bool, error) {
	f.asked = append(f.asked, "caller")
	return f.verified, nil
}

func (f *stubFacts) TitleAvailable(context.Context, string) (bool, error) {
	f.asked = append(f.asked, "title")
	return f.available, nil
}

func (f *stubFacts) AuthorityBound(context.Context) (bool, error) {
	f.asked = append(f.asked, "authority")
	return f.bound, nil
}

func allFacts() *stubFacts {
	return &stubFacts{capacity: true, verified: true, available: true, bound: true}
}

func validDraft() PollDraft {
	return PollDraft{
		Title:       "Treasury allocation",
		Options:     []string{"yes", "no"},
		Duration:    100,
		Quorum:      10,
		VotingType:  "single",
		PollType:    "governance",
		RewardRate:  0,
		GracePeriod: 0,
		Location:    "global",
		Category:    "dao",
		MinStake:    0,
		MaxVotes:    1,
	}
}

func TestValidateCreationAcceptsValidDraft(t *testing.T) {
	facts := allFacts()
	require.NoError(t, ValidateCreation(context.Background(), validDraft(), facts))
	assert.Equal(t, []string{"capacity", "caller", "title", "authority"}, facts.asked)
}

func TestValidateCreationFieldRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*PollDraft)
		want   error
	}{
		{"empty title", func(d *PollDraft) { d.Title = "" }, domainerrors.ErrInvalidTitle},
		{"long title", func(d *PollDraft) { d.Title = strings.Repeat("t", MaxTitleLength+1) }, domainerrors.ErrInvalidTitle},
		{"one option", func(d *PollDraft) { d.Options = []string{"only"} }, domainerrors.ErrInvalidOptions},
		{"eleven options", func(d *PollDraft) { d.Options = make([]string, MaxOptions+1) }, domainerrors.ErrInvalidOptions},
		{"zero duration", func(d *PollDraft) { d.Duration = 0 }, domainerrors.ErrInvalidDuration},
		{"zero quorum", func(d *PollDraft) { d.Quorum = 0 }, domainerrors.ErrInvalidQuorum},
		{"large quorum", func(d *PollDraft) { d.Quorum = MaxQuorum + 1 }, domainerrors.ErrInvalidQuorum},
		{"voting type", func(d *PollDraft) { d.VotingType = "ranked" }, domainerrors.ErrInvalidVotingType},
		{"poll type", func(d *PollDraft) { d.PollType = "referendum" }, domainerrors.ErrInvalidPollType},
		{"negative reward", func(d *PollDraft) { d.RewardRate = -1 }, domainerrors.ErrInvalidRewardRate},
		{"large reward", func(d *PollDraft) { d.RewardRate = MaxRewardRate + 1 }, domainerrors.ErrInvalidRewardRate},
		{"large grace", func(d *PollDraft) { d.GracePeriod = MaxGracePeriod + 1 }, domainerrors.ErrInvalidGracePeriod},
		{"empty location", func(d *PollDraft) { d.Location = "" }, domainerrors.ErrInvalidLocation},
		{"category", func(d *PollDraft) { d.Category = "guild" }, domainerrors.ErrInvalidCategory},
		{"negative stake", func(d *PollDraft) { d.MinStake = -5 }, domainerrors.ErrInvalidMinStake},
		{"zero max votes", func(d *PollDraft) { d.MaxVotes = 0 }, domainerrors.ErrInvalidMaxVotes},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			draft := validDraft()
			tc.mutate(&draft)
			err := ValidateCreation(context.Background(), draft, allFacts())
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestValidateCreationBoundariesAccepted(t *testing.T) {
	draft := validDraft()
	draft.Title = strings.Repeat("é", MaxTitleLength)
	draft.Options = make([]string, MaxOptions)
	draft.Quorum = MaxQuorum
	draft.RewardRate = MaxRewardRate
	draft.GracePeriod = MaxGracePeriod
	draft.Location = strings.Repeat("l", MaxLocationLength)
	draft.VotingType = "multiple"
	draft.PollType = "election"
	draft.Category = "corporate"

	assert.NoError(t, ValidateCreation(context.Background(), draft, allFacts()))
}

func TestValidateCreationFirstFailureWins(t *testing.T) {
	draft := validDraft()
	draft.Title = ""
	draft.Options = nil
	draft.MaxVotes = 0

	facts := allFacts()
	facts.capacity = false
	assert.ErrorIs(t, ValidateCreation(context.Background(), draft, facts), domainerrors.ErrMaxPollsExceeded)

	assert.ErrorIs(t, ValidateCreation(context.Background(), draft, allFacts()), domainerrors.ErrInvalidTitle)

	draft = validDraft()
	facts = allFacts()
	facts.verified = false
	facts.bound = false
	assert.ErrorIs(t, ValidateCreation(context.Background(), draft, facts), domainerrors.ErrNotAuthorized)
	assert.Equal(t, []string{"capacity", "caller"}, facts.asked)

	facts = allFacts()
	facts.available = false
	facts.bound = false
	assert.ErrorIs(t, ValidateCreation(context.Background(), draft, facts), domainerrors.ErrPollAlreadyExists)

	facts = allFacts()
	facts.bound = false
	assert.ErrorIs(t, ValidateCreation(context.Background(), draft, facts), domainerrors.ErrAuthorityNotVerified)
}

func TestValidateCreationReturnsFactErrors(t *testing.T) {
	boom := errors.New("store unavailable")
	facts := allFacts()
	facts.err = boom

	assert.ErrorIs(t, ValidateCreation(context.Background(), validDraft(), facts), boom)
}

func TestValidateUpdateFields(t *testing.T) {
	assert.NoError(t, ValidateUpdateFields(UpdateDraft{Title: "New", Duration: 1, Quorum: 1}))
	assert.ErrorIs(t, ValidateUpdateFields(UpdateDraft{Title: "", Duration: 0, Quorum: 0}), domainerrors.ErrInvalidTitle)
	assert.ErrorIs(t, ValidateUpdateFields(UpdateDraft{Title: "New", Duration: 0, Quorum: 0}), domainerrors.ErrInvalidDuration)
	assert.ErrorIs(t, ValidateUpdateFields(UpdateDraft{Title: "New", Duration: 5, Quorum: 101}), domainerrors.ErrInvalidQuorum)
}
