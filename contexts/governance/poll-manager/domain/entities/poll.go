package entities

type VotingType string

const (
	VotingTypeSingle   VotingType = "single"
	VotingTypeMultiple VotingType = "multiple"
)

type PollType string

const (
	PollTypeGovernance PollType = "governance"
	PollTypeSurvey     PollType = "survey"
	PollTypeElection   PollType = "election"
)

type Category string

const (
	CategoryDAO       Category = "dao"
	CategoryCommunity Category = "community"
	CategoryCorporate Category = "corporate"
)

type PollStatus string

const (
	PollStatusOpen   PollStatus = "open"
	PollStatusClosed PollStatus = "closed"
)

// Poll is a configured, height-bounded decision. StartBlock never changes
// after creation; EndBlock is always StartBlock + Duration.
type Poll struct {
	PollID      uint64
	Title       string
	Options     []string
	Duration    uint64
	Quorum      uint64
	VotingType  VotingType
	Anonymity   bool
	PollType    PollType
	RewardRate  uint64
	GracePeriod uint64
	Location    string
	Category    Category
	MinStake    uint64
	MaxVotes    uint64
	Status      PollStatus
	Creator     string
	Timestamp   uint64
	StartBlock  uint64
	EndBlock    uint64
}

func (p Poll) IsOpen() bool {
	return p.Status == PollStatusOpen
}

// VotingOpen reports whether commitments are accepted at height.
func (p Poll) VotingOpen(height uint64) bool {
	return p.StartBlock <= height && height < p.EndBlock
}

// RevealOpen reports whether reveals are accepted at height.
func (p Poll) RevealOpen(height uint64) bool {
	return height > p.EndBlock
}

// FinalizableAt is the first height at which the poll may be finalized.
func (p Poll) FinalizableAt() uint64 {
	return p.EndBlock + p.GracePeriod
}

// PollUpdate is the last update applied to a poll. Only one is retained.
type PollUpdate struct {
	PollID    uint64
	Title     string
	Duration  uint64
	Quorum    uint64
	Timestamp uint64
	Updater   string
}

// Settings holds the manager-wide configuration.
type Settings struct {
	CreationFee     uint64
	AuthorityTarget string
	MaxPolls        uint64
}

func (s Settings) AuthorityBound() bool {
	return s.AuthorityTarget != ""
}

const (
	DefaultMaxPolls    uint64 = 1000
	DefaultCreationFee uint64 = 1000
)

func DefaultSettings() Settings {
	return Settings{
		CreationFee: DefaultCreationFee,
		MaxPolls:    DefaultMaxPolls,
	}
}
