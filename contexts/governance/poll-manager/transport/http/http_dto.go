package http

type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	ErrorCode int    `json:"error_code,omitempty"`
	Kind      string `json:"kind,omitempty"`
}

type CreatePollRequest struct {
	Title       string   `json:"title"`
	Options     []string `json:"options"`
	Duration    int64    `json:"duration"`
	Quorum      int64    `json:"quorum"`
	VotingType  string   `json:"voting_type"`
	Anonymity   bool     `json:"anonymity"`
	PollType    string   `json:"poll_type"`
	RewardRate  int64    `json:"reward_rate"`
	GracePeriod int64    `json:"grace_period"`
	Location    string   `json:"location"`
	Category    string   `json:"category"`
	MinStake    int64    `json:"min_stake"`
	MaxVotes    int64    `json:"max_votes"`
}

type CreatePollResponse struct {
	PollID uint64 `json:"poll_id"`
}

type UpdatePollRequest struct {
	Title    string `json:"title"`
	Duration int64  `json:"duration"`
	Quorum   int64  `json:"quorum"`
}

type SetAuthorityRequest struct {
	Target string `json:"target"`
}

type SetCreationFeeRequest struct {
	Fee uint64 `json:"fee"`
}

// CastVoteRequest carries the commitment as lowercase hex.
type CastVoteRequest struct {
	Commitment string `json:"commitment"`
}

// RevealVoteRequest carries the salt as hex.
type RevealVoteRequest struct {
	Option uint32 `json:"option"`
	Salt   string `json:"salt"`
}

type CommitmentRequest struct {
	Option uint32 `json:"option"`
	Salt   string `json:"salt"`
}

type CommitmentResponse struct {
	Commitment string `json:"commitment"`
}

type PollResponse struct {
	PollID      uint64   `json:"poll_id"`
	Title       string   `json:"title"`
	Options     []string `json:"options"`
	Duration    uint64   `json:"duration"`
	Quorum      uint64   `json:"quorum"`
	VotingType  string   `json:"voting_type"`
	Anonymity   bool     `json:"anonymity"`
	PollType    string   `json:"poll_type"`
	RewardRate  uint64   `json:"reward_rate"`
	GracePeriod uint64   `json:"grace_period"`
	Location    string   `json:"location"`
	Category    string   `json:"category"`
	MinStake    uint64   `json:"min_stake"`
	MaxVotes    uint64   `json:"max_votes"`
	Status      string   `json:"status"`
	Creator     string   `json:"creator"`
	Timestamp   uint64   `json:"timestamp"`
	StartBlock  uint64   `json:"start_block"`
	EndBlock    uint64   `json:"end_block"`
	Anomalous   bool     `json:"anomalous"`
}

type PollUpdateResponse struct {
	PollID    uint64 `json:"poll_id"`
	Title     string `json:"title"`
	Duration  uint64 `json:"duration"`
	Quorum    uint64 `json:"quorum"`
	Timestamp uint64 `json:"timestamp"`
	Updater   string `json:"updater"`
}

type PollCountResponse struct {
	Count uint64 `json:"count"`
}

type PollExistenceResponse struct {
	Title  string `json:"title"`
	Exists bool   `json:"exists"`
}

type TallyResponse struct {
	PollID uint64   `json:"poll_id"`
	Counts []uint64 `json:"counts"`
	Total  uint64   `json:"total"`
}

type VoteStatusResponse struct {
	PollID uint64 `json:"poll_id"`
	Voter  string `json:"voter"`
	State  string `json:"state"`
}

type SettingsResponse struct {
	CreationFee     uint64 `json:"creation_fee"`
	AuthorityTarget string `json:"authority_target,omitempty"`
	MaxPolls        uint64 `json:"max_polls"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}
