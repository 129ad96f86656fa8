package ports

import (
	"context"
	"time"

	"pollgov/contexts/governance/poll-manager/domain/entities"
	"pollgov/internal/shared/events"
	"pollgov/internal/shared/outbox"
)

type EventEnvelope = events.Envelope

type OutboxMessage = outbox.Message

// PollStore is the data-access contract for polls. It performs no
// validation; callers enforce every rule.
type PollStore interface {
	GetPoll(ctx context.Context, pollID uint64) (entities.Poll, bool, error)
	PutPoll(ctx context.Context, poll entities.Poll) error
	ExistsByTitle(ctx context.Context, title string) (bool, error)
	IDByTitle(ctx context.Context, title string) (uint64, bool, error)
	IndexTitle(ctx context.Context, title string, pollID uint64) error
	DeleteTitle(ctx context.Context, title string) error
	PollCount(ctx context.Context) (uint64, error)
	AllocatePollID(ctx context.Context) (uint64, error)
	GetPollUpdate(ctx context.Context, pollID uint64) (entities.PollUpdate, bool, error)
	PutPollUpdate(ctx context.Context, update entities.PollUpdate) error
}

type SettingsStore interface {
	GetSettings(ctx context.Context) (entities.Settings, error)
	PutSettings(ctx context.Context, settings entities.Settings) error
}

// VoteStore holds commitments, revealed votes, tallies and anomaly flags.
type VoteStore interface {
	GetCommitment(ctx context.Context, key entities.VoteKey) ([]byte, bool, error)
	PutCommitment(ctx context.Context, key entities.VoteKey, commitment []byte) error
	DeleteCommitment(ctx context.Context, key entities.VoteKey) error
	GetRevealedVote(ctx context.Context, key entities.VoteKey) (uint32, bool, error)
	PutRevealedVote(ctx context.Context, key entities.VoteKey, option uint32) error
	GetTally(ctx context.Context, key entities.TallyKey) (uint64, error)
	PutTally(ctx context.Context, key entities.TallyKey, count uint64) error
	IsAnomalous(ctx context.Context, pollID uint64) (bool, error)
	FlagAnomaly(ctx context.Context, pollID uint64) error
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, message OutboxMessage) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

// Repository is the full state context handed to one operation.
type Repository interface {
	PollStore
	SettingsStore
	VoteStore
	OutboxWriter
}

// UnitOfWork runs an operation against the state. WithinTx commits every
// write made through repo when fn returns nil and discards them otherwise.
// View must not be used for writes.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
	View(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}

// Clock supplies the current block height.
type Clock interface {
	CurrentHeight(ctx context.Context) (uint64, error)
}

type WallClock interface {
	Now() time.Time
}

type AuthorityRegistry interface {
	IsVerifiedAuthority(ctx context.Context, principal string) (bool, error)
}

// LedgerTransfer moves value between principals. A returned error aborts
// the enclosing operation.
type LedgerTransfer interface {
	Transfer(ctx context.Context, amount uint64, from string, to string) error
}

// Hasher is a pure 256-bit digest function.
type Hasher interface {
	Sum256(data []byte) [32]byte
}

type HasherFunc func(data []byte) [32]byte

func (f HasherFunc) Sum256(data []byte) [32]byte {
	return f(data)
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

// Metrics records operation outcomes. Outcome is "ok" or an error kind.
type Metrics interface {
	OperationCompleted(operation string, outcome string)
}
