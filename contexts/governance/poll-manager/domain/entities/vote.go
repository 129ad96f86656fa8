package entities

// VoteKey identifies a voter's participation in one poll.
type VoteKey struct {
	PollID uint64
	Voter  string
}

// TallyKey identifies the counter of one option in one poll.
type TallyKey struct {
	PollID uint64
	Option uint32
}

type VoteState string

const (
	VoteStateNone      VoteState = "none"
	VoteStateCommitted VoteState = "committed"
	VoteStateRevealed  VoteState = "revealed"
)

// Tally is the revealed-vote count of a poll, indexed by option.
type Tally struct {
	PollID uint64
	Counts []uint64
	Total  uint64
}

func NewTally(pollID uint64, counts []uint64) Tally {
	tally := Tally{PollID: pollID, Counts: counts}
	for _, count := range counts {
		tally.Total += count
	}
	return tally
}
