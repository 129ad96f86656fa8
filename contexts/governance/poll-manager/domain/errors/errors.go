package errors

import "errors"

// Kind groups domain failures by what went wrong rather than by field.
type Kind string

const (
	KindAuthorization Kind = "authorization"
	KindValidation    Kind = "validation"
	KindStateConflict Kind = "state_conflict"
	KindTemporal      Kind = "temporal"
	KindProtocol      Kind = "protocol"
	KindQuorum        Kind = "quorum"
	KindAnomaly       Kind = "anomaly"
	KindNotFound      Kind = "not_found"
	KindTransfer      Kind = "transfer"
	KindInternal      Kind = "internal"
)

// Error is a domain failure with a stable numeric code.
type Error struct {
	Code    int
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(code int, kind Kind, message string) *Error {
	return &Error{Code: code, Kind: kind, Message: message}
}

var (
	ErrNotAuthorized          = newError(100, KindAuthorization, "caller is not a verified authority")
	ErrInvalidOptions         = newError(101, KindValidation, "poll must have between 2 and 10 options")
	ErrInvalidDuration        = newError(102, KindValidation, "duration must be positive")
	ErrInvalidQuorum          = newError(103, KindValidation, "quorum must be between 1 and 100")
	ErrInvalidVotingType      = newError(104, KindValidation, "invalid voting type")
	ErrPollAlreadyExists      = newError(106, KindStateConflict, "poll title already exists")
	ErrPollNotFound           = newError(107, KindNotFound, "poll not found")
	ErrAuthorityNotVerified   = newError(109, KindAuthorization, "authority contract is not configured")
	ErrInvalidMinStake        = newError(110, KindValidation, "min stake must not be negative")
	ErrInvalidMaxVotes        = newError(111, KindValidation, "max votes must be positive")
	ErrPollUpdateNotAllowed   = newError(112, KindAuthorization, "only the poll creator may update it")
	ErrInvalidTitle           = newError(113, KindValidation, "title must be 1 to 100 characters")
	ErrMaxPollsExceeded       = newError(114, KindStateConflict, "maximum number of polls reached")
	ErrInvalidPollType        = newError(115, KindValidation, "invalid poll type")
	ErrInvalidRewardRate      = newError(116, KindValidation, "reward rate must be between 0 and 20")
	ErrInvalidGracePeriod     = newError(117, KindValidation, "grace period must be between 0 and 30")
	ErrInvalidLocation        = newError(118, KindValidation, "location must be 1 to 100 characters")
	ErrInvalidCategory        = newError(119, KindValidation, "invalid category")
	ErrPollEnded              = newError(121, KindTemporal, "voting window has ended")
	ErrPollNotStarted         = newError(122, KindTemporal, "voting window has not started")
	ErrAlreadyVoted           = newError(123, KindStateConflict, "voter already committed or revealed")
	ErrInvalidCommitment      = newError(124, KindProtocol, "no commitment recorded for voter")
	ErrInvalidReveal          = newError(125, KindProtocol, "reveal does not match commitment")
	ErrInvalidOption          = newError(126, KindProtocol, "option index out of range")
	ErrAnomalyDetected        = newError(127, KindAnomaly, "revealed votes exceed the poll cap")
	ErrQuorumNotMet           = newError(129, KindQuorum, "quorum not met")
	ErrInvalidAuthorityTarget = newError(131, KindValidation, "authority target is reserved")
	ErrAuthorityAlreadyBound  = newError(132, KindStateConflict, "authority contract already set")
	ErrRevealNotOpen          = newError(133, KindTemporal, "reveal window has not opened")
	ErrFinalizeTooEarly       = newError(134, KindTemporal, "grace period has not elapsed")
	ErrTransferFailed         = newError(135, KindTransfer, "ledger transfer failed")
	ErrReadOnly               = newError(136, KindInternal, "write attempted in read-only transaction")
	ErrMalformedInput         = newError(137, KindValidation, "malformed input")
)

// KindOf returns the kind of the first domain error in err's chain, or
// KindInternal when err carries none.
func KindOf(err error) Kind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindInternal
}

// CodeOf returns the numeric code of err, or 0 when err is not a domain error.
func CodeOf(err error) int {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return 0
}
