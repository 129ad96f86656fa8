package messaging

import (
	"context"
	"testing"
	"time"

	"pollgov/internal/shared/events"

	"github.com/stretchr/testify/require"
)

func TestBusDeliversToSubscribers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := NewBus(4, nil)
	received := make(chan events.Envelope, 1)
	bus.Subscribe(ctx, "poll.created", "test", func(_ context.Context, event events.Envelope) error {
		received <- event
		return nil
	})

	require.NoError(t, bus.Publish(ctx, "poll.created", events.Envelope{EventID: "e1", EventType: "poll.created"}))
	require.NoError(t, bus.Publish(ctx, "poll.finalized", events.Envelope{EventID: "e2"}))

	select {
	case event := <-received:
		require.Equal(t, "e1", event.EventID)
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestBusPublishWithoutSubscribers(t *testing.T) {
	bus := NewBus(0, nil)
	require.NoError(t, bus.Publish(context.Background(), "vote.committed", events.Envelope{EventID: "e1"}))
}

func TestBusDropsSubscriberWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	bus := NewBus(1, nil)
	bus.Subscribe(ctx, "poll.created", "test", func(context.Context, events.Envelope) error { return nil })
	require.Equal(t, 1, bus.Subscribers("poll.created"))

	cancel()
	require.Eventually(t, func() bool { return bus.Subscribers("poll.created") == 0 }, time.Second, 5*time.Millisecond)
}
