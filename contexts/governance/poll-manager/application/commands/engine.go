package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	application "pollgov/contexts/governance/poll-manager/application"
	domainerrors "pollgov/contexts/governance/poll-manager/domain/errors"
	"pollgov/contexts/governance/poll-manager/ports"
)

const moduleName = "governance/poll-manager"

// Engine applies poll lifecycle, commit-reveal and tally operations.
// Operations are serialized by a single mutex and every operation runs in
// one unit of work, so a rejected operation leaves no trace in the state.
type Engine struct {
	Store       ports.UnitOfWork
	Clock       ports.Clock
	Authorities ports.AuthorityRegistry
	Ledger      ports.LedgerTransfer
	Hasher      ports.Hasher
	IDGen       ports.IDGenerator
	WallClock   ports.WallClock
	Metrics     ports.Metrics
	Logger      *slog.Logger

	mu sync.Mutex
}

// opFunc runs inside the unit of work at the given height.
type opFunc func(ctx context.Context, repo ports.Repository, height uint64) error

// commitAndFail makes run commit the staged writes while still reporting
// err to the caller.
type commitAndFail struct {
	err error
}

func (c commitAndFail) Error() string {
	return c.err.Error()
}

func (c commitAndFail) Unwrap() error {
	return c.err
}

func (e *Engine) run(ctx context.Context, operation string, caller string, fn opFunc) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	logger := application.ResolveLogger(e.Logger)
	height, err := e.Clock.CurrentHeight(ctx)
	if err != nil {
		err = fmt.Errorf("read block height: %w", err)
		e.finish(logger, operation, caller, 0, err)
		return err
	}

	var reported error
	err = e.Store.WithinTx(ctx, func(ctx context.Context, repo ports.Repository) error {
		opErr := fn(ctx, repo, height)
		var keep commitAndFail
		if errors.As(opErr, &keep) {
			reported = keep.err
			return nil
		}
		return opErr
	})
	if err == nil {
		err = reported
	}
	e.finish(logger, operation, caller, height, err)
	return err
}

func (e *Engine) finish(logger *slog.Logger, operation string, caller string, height uint64, err error) {
	outcome := "ok"
	if err != nil {
		outcome = string(domainerrors.KindOf(err))
	}
	if e.Metrics != nil {
		e.Metrics.OperationCompleted(operation, outcome)
	}
	if err == nil {
		return
	}
	if domainerrors.KindOf(err) == domainerrors.KindInternal {
		logger.Error("poll operation failed",
			"event", "poll_operation_failed",
			"module", moduleName,
			"layer", "application",
			"operation", operation,
			"caller", caller,
			"height", height,
			"error", err.Error(),
		)
		return
	}
	logger.Warn("poll operation rejected",
		"event", "poll_operation_rejected",
		"module", moduleName,
		"layer", "application",
		"operation", operation,
		"caller", caller,
		"height", height,
		"kind", outcome,
		"code", domainerrors.CodeOf(err),
		"error", err.Error(),
	)
}

func (e *Engine) transfer(ctx context.Context, amount uint64, from string, to string) error {
	if err := e.Ledger.Transfer(ctx, amount, from, to); err != nil {
		return fmt.Errorf("%w: %w", domainerrors.ErrTransferFailed, err)
	}
	return nil
}

func (e *Engine) logger() *slog.Logger {
	return application.ResolveLogger(e.Logger)
}
