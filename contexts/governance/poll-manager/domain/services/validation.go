package services

import (
	"context"
	"unicode/utf8"

	"pollgov/contexts/governance/poll-manager/domain/entities"
	domainerrors "pollgov/contexts/governance/poll-manager/domain/errors"
)

const (
	MaxTitleLength    = 100
	MaxLocationLength = 100
	MinOptions        = 2
	MaxOptions        = 10
	MinQuorum         = 1
	MaxQuorum         = 100
	MaxRewardRate     = 20
	MaxGracePeriod    = 30
)

// PollDraft is the caller-supplied configuration of a poll before any
// field has been checked. Numeric fields are signed so that out-of-range
// input can be reported instead of wrapping.
type PollDraft struct {
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

// CreationFacts answers the state-dependent questions of poll creation.
// Each fact is only asked for when its rule is reached.
type CreationFacts interface {
	CapacityAvailable(ctx context.Context) (bool, error)
	CallerVerified(ctx context.Context) (bool, error)
	TitleAvailable(ctx context.Context, title string) (bool, error)
	AuthorityBound(ctx context.Context) (bool, error)
}

// CreationRule is one named check of poll creation.
type CreationRule struct {
	Name  string
	Err   error
	Holds func(ctx context.Context, draft PollDraft, facts CreationFacts) (bool, error)
}

func fieldRule(name string, err error, holds func(PollDraft) bool) CreationRule {
	return CreationRule{
		Name: name,
		Err:  err,
		Holds: func(_ context.Context, draft PollDraft, _ CreationFacts) (bool, error) {
			return holds(draft), nil
		},
	}
}

// CreationRules is evaluated in order and the first failing rule wins.
// Callers depend on this order when several fields are invalid at once.
var CreationRules = []CreationRule{
	{
		Name: "capacity",
		Err:  domainerrors.ErrMaxPollsExceeded,
		Holds: func(ctx context.Context, _ PollDraft, facts CreationFacts) (bool, error) {
			return facts.CapacityAvailable(ctx)
		},
	},
	fieldRule("title", domainerrors.ErrInvalidTitle, func(d PollDraft) bool { return ValidTitle(d.Title) }),
	fieldRule("options", domainerrors.ErrInvalidOptions, func(d PollDraft) bool { return ValidOptions(d.Options) }),
	fieldRule("duration", domainerrors.ErrInvalidDuration, func(d PollDraft) bool { return ValidDuration(d.Duration) }),
	fieldRule("quorum", domainerrors.ErrInvalidQuorum, func(d PollDraft) bool { return ValidQuorum(d.Quorum) }),
	fieldRule("voting_type", domainerrors.ErrInvalidVotingType, func(d PollDraft) bool { return ValidVotingType(d.VotingType) }),
	fieldRule("poll_type", domainerrors.ErrInvalidPollType, func(d PollDraft) bool { return ValidPollType(d.PollType) }),
	fieldRule("reward_rate", domainerrors.ErrInvalidRewardRate, func(d PollDraft) bool {
		return d.RewardRate >= 0 && d.RewardRate <= MaxRewardRate
	}),
	fieldRule("grace_period", domainerrors.ErrInvalidGracePeriod, func(d PollDraft) bool {
		return d.GracePeriod >= 0 && d.GracePeriod <= MaxGracePeriod
	}),
	fieldRule("location", domainerrors.ErrInvalidLocation, func(d PollDraft) bool { return ValidLocation(d.Location) }),
	fieldRule("category", domainerrors.ErrInvalidCategory, func(d PollDraft) bool { return ValidCategory(d.Category) }),
	fieldRule("min_stake", domainerrors.ErrInvalidMinStake, func(d PollDraft) bool { return d.MinStake >= 0 }),
	fieldRule("max_votes", domainerrors.ErrInvalidMaxVotes, func(d PollDraft) bool { return d.MaxVotes > 0 }),
	{
		Name: "caller_authority",
		Err:  domainerrors.ErrNotAuthorized,
		Holds: func(ctx context.Context, _ PollDraft, facts CreationFacts) (bool, error) {
			return facts.CallerVerified(ctx)
		},
	},
	{
		Name: "title_unique",
		Err:  domainerrors.ErrPollAlreadyExists,
		Holds: func(ctx context.Context, draft PollDraft, facts CreationFacts) (bool, error) {
			return facts.TitleAvailable(ctx, draft.Title)
		},
	},
	{
		Name: "authority_bound",
		Err:  domainerrors.ErrAuthorityNotVerified,
		Holds: func(ctx context.Context, _ PollDraft, facts CreationFacts) (bool, error) {
			return facts.AuthorityBound(ctx)
		},
	},
}

// ValidateCreation runs CreationRules and returns the error of the first
// rule that does not hold. A fact lookup failure is returned as is.
func ValidateCreation(ctx context.Context, draft PollDraft, facts CreationFacts) error {
	for _, rule := range CreationRules {
		ok, err := rule.Holds(ctx, draft, facts)
		if err != nil {
			return err
		}
		if !ok {
			return rule.Err
		}
	}
	return nil
}

// UpdateDraft carries the mutable fields of a poll.
type UpdateDraft struct {
	Title    string
	Duration int64
	Quorum   int64
}

// ValidateUpdateFields checks the fields of an update in order.
func ValidateUpdateFields(draft UpdateDraft) error {
	switch {
	case !ValidTitle(draft.Title):
		return domainerrors.ErrInvalidTitle
	case !ValidDuration(draft.Duration):
		return domainerrors.ErrInvalidDuration
	case !ValidQuorum(draft.Quorum):
		return domainerrors.ErrInvalidQuorum
	}
	return nil
}

func ValidTitle(title string) bool {
	n := utf8.RuneCountInString(title)
	return n > 0 && n <= MaxTitleLength
}

func ValidLocation(location string) bool {
	n := utf8.RuneCountInString(location)
	return n > 0 && n <= MaxLocationLength
}

func ValidOptions(options []string) bool {
	return len(options) >= MinOptions && len(options) <= MaxOptions
}

func ValidDuration(duration int64) bool {
	return duration > 0
}

func ValidQuorum(quorum int64) bool {
	return quorum >= MinQuorum && quorum <= MaxQuorum
}

func ValidVotingType(value string) bool {
	switch entities.VotingType(value) {
	case entities.VotingTypeSingle, entities.VotingTypeMultiple:
		return true
	}
	return false
}

func ValidPollType(value string) bool {
	switch entities.PollType(value) {
	case entities.PollTypeGovernance, entities.PollTypeSurvey, entities.PollTypeElection:
		return true
	}
	return false
}

func ValidCategory(value string) bool {
	switch entities.Category(value) {
	case entities.CategoryDAO, entities.CategoryCommunity, entities.CategoryCorporate:
		return true
	}
	return false
}
