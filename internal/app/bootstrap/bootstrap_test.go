package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	pollmanager "pollgov/contexts/governance/poll-manager"
	"pollgov/contexts/governance/poll-manager/adapters/system"
	"pollgov/contexts/governance/poll-manager/application/commands"
	workerapp "pollgov/contexts/governance/poll-manager/application/workers"
	"pollgov/contexts/governance/poll-manager/domain/entities"
	"pollgov/internal/platform/httpserver"
	"pollgov/internal/platform/messaging"
	"pollgov/internal/platform/metrics"
	"pollgov/internal/shared/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeAddr(t *testing.T) {
	assert.Equal(t, ":8080", normalizeAddr(""))
	assert.Equal(t, ":9000", normalizeAddr("9000"))
	assert.Equal(t, ":9000", normalizeAddr(" :9000 "))
}

func TestRelayLoopPublishesOutboxToBus(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	module := pollmanager.NewInMemoryModule(entities.DefaultSettings(), nil, logger)
	require.NoError(t, module.Engine.SetAuthorityContract(context.Background(), "SP1", "SP2TREASURY"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := messaging.NewBus(4, logger)
	delivered := make(chan events.Envelope, 1)
	bus.Subscribe(ctx, "poll.authority_bound", "test", func(_ context.Context, event events.Envelope) error {
		delivered <- event
		return nil
	})

	collector := metrics.NewCollector()
	loop := &relayLoop{
		relay: workerapp.OutboxRelay{
			Outbox:    module.Store,
			Publisher: bus,
			Clock:     system.SystemClock{},
			Logger:    logger,
		},
		interval: time.Hour,
		metrics:  collector,
	}
	done := make(chan error, 1)
	go func() { done <- loop.run(ctx, logger) }()

	select {
	case event := <-delivered:
		assert.Equal(t, "settings", event.PartitionKey)
	case <-time.After(2 * time.Second):
		t.Fatal("authority event was not relayed")
	}
	cancel()
	require.NoError(t, <-done)

	pending, err := module.Store.ListPendingOutbox(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
	rec := httptest.NewRecorder()
	collector.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "pollgov_outbox_published_total 1")
}

func TestAPIAppRunReturnsAfterCancel(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	module := pollmanager.NewInMemoryModule(entities.DefaultSettings(), nil, logger)
	bus := messaging.NewBus(0, logger)
	app := &APIApp{
		server: httpserver.New(module, nil, logger, "127.0.0.1:0"),
		relay: &relayLoop{
			relay: workerapp.OutboxRelay{
				Outbox:    module.Store,
				Publisher: bus,
				Logger:    logger,
			},
			interval: time.Hour,
		},
		bus:    bus,
		logger: logger,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	require.Eventually(t, func() bool {
		return bus.Subscribers(commands.EventPollCreated) == 1
	}, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("api app did not stop")
	}
	require.Eventually(t, func() bool {
		for _, eventType := range commands.EventTypes {
			if bus.Subscribers(eventType) != 0 {
				return false
			}
		}
		return true
	}, 2*time.Second, 5*time.Millisecond)
	assert.NoError(t, app.Close())
}
