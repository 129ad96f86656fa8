package pollmanager

import (
	"log/slog"

	httpadapter "pollgov/contexts/governance/poll-manager/adapters/http"
	"pollgov/contexts/governance/poll-manager/adapters/memory"
	"pollgov/contexts/governance/poll-manager/adapters/system"
	"pollgov/contexts/governance/poll-manager/application/commands"
	"pollgov/contexts/governance/poll-manager/application/queries"
	"pollgov/contexts/governance/poll-manager/domain/entities"
	"pollgov/contexts/governance/poll-manager/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Engine  *commands.Engine
	Queries queries.PollQueries
	Store   *memory.Store
	Clock   *system.ManualClock
	Ledger  *system.RecordingLedger
	Authz   *system.StaticAuthorityRegistry
}

type Dependencies struct {
	Store       ports.UnitOfWork
	Clock       ports.Clock
	Authorities ports.AuthorityRegistry
	Ledger      ports.LedgerTransfer
	Hasher      ports.Hasher
	IDGen       ports.IDGenerator
	Metrics     ports.Metrics
	Logger      *slog.Logger
}

func NewModule(deps Dependencies) Module {
	hasher := deps.Hasher
	if hasher == nil {
		hasher = system.SHA256Hasher{}
	}
	engine := &commands.Engine{
		Store:       deps.Store,
		Clock:       deps.Clock,
		Authorities: deps.Authorities,
		Ledger:      deps.Ledger,
		Hasher:      hasher,
		IDGen:       deps.IDGen,
		WallClock:   system.SystemClock{},
		Metrics:     deps.Metrics,
		Logger:      deps.Logger,
	}
	pollQueries := queries.PollQueries{Store: deps.Store}
	return Module{
		Handler: httpadapter.Handler{
			Engine:  engine,
			Queries: pollQueries,
			Hasher:  hasher,
			Logger:  deps.Logger,
		},
		Engine:  engine,
		Queries: pollQueries,
	}
}

// NewInMemoryModule wires the module against process-local adapters. The
// returned clock, ledger and registry stay controllable by the caller.
func NewInMemoryModule(settings entities.Settings, authorities []string, logger *slog.Logger) Module {
	store := memory.NewStore(settings)
	clock := system.NewManualClock(0)
	ledger := system.NewRecordingLedger(logger)
	registry := system.NewStaticAuthorityRegistry(authorities...)
	module := NewModule(Dependencies{
		Store:       store,
		Clock:       clock,
		Authorities: registry,
		Ledger:      ledger,
		IDGen:       system.UUIDGenerator{},
		Logger:      logger,
	})
	module.Store = store
	module.Clock = clock
	module.Ledger = ledger
	module.Authz = registry
	return module
}
