package system

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

var ErrLedgerUnavailable = errors.New("ledger unavailable")

type Transfer struct {
	Amount uint64
	From   string
	To     string
}

// RecordingLedger accepts every transfer and keeps it in order. Fail makes
// subsequent transfers return ErrLedgerUnavailable.
type RecordingLedger struct {
	mu        sync.Mutex
	transfers []Transfer
	failing   bool
	logger    *slog.Logger
}

func NewRecordingLedger(logger *slog.Logger) *RecordingLedger {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordingLedger{logger: logger}
}

func (l *RecordingLedger) Transfer(_ context.Context, amount uint64, from string, to string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failing {
		return ErrLedgerUnavailable
	}
	l.transfers = append(l.transfers, Transfer{Amount: amount, From: from, To: to})
	l.logger.Info("ledger transfer recorded",
		"event", "poll_ledger_transfer",
		"module", "governance/poll-manager",
		"layer", "adapter",
		"amount", amount,
		"from", from,
		"to", to,
	)
	return nil
}

func (l *RecordingLedger) Fail(failing bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failing = failing
}

func (l *RecordingLedger) Transfers() []Transfer {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Transfer(nil), l.transfers...)
}
