package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/clawtomations/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	bus := NewInMemoryEventBus(watermill.NopLogger{})
	defer func() {
		assert.NoError(t, bus.Close())
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu       sync.Mutex
		received []*events.SiteCompleted
	)

	require.NoError(t, bus.Handle(events.SiteCompletedEvent, func(_ context.Context, event any) error {
		mu.Lock()
		defer mu.Unlock()

		received = append(received, event.(*events.SiteCompleted))

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	err := bus.Publish(ctx, "run-1", events.SiteCompleted{
		BaseEvent: events.NewBaseEvent(events.SiteCompletedEvent, "run-1"),
		Site:      "shop",
		Status:    "success",
	})
	require.NoError(t, err)

	// Events without a handler are acknowledged and dropped.
	err = bus.Publish(ctx, "run-1", events.RunStarted{
		BaseEvent: events.NewBaseEvent(events.RunStartedEvent, "run-1"),
	})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return len(received) == 1
	}, time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	assert.Equal(t, "shop", received[0].Site)
	assert.Equal(t, "run-1", received[0].RunID)
}

func TestWatermillEventBus_HandlerErrorDoesNotStopSubscription(t *testing.T) {
	bus := NewInMemoryEventBus(watermill.NopLogger{})
	defer func() {
		assert.NoError(t, bus.Close())
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu    sync.Mutex
		calls int
	)

	require.NoError(t, bus.Handle(events.RunCompletedEvent, func(_ context.Context, event any) error {
		mu.Lock()
		defer mu.Unlock()

		calls++
		if event.(*events.RunCompleted).Status == "failed" {
			return errors.New("rejected")
		}

		return nil
	}))
	require.NoError(t, bus.Subscribe(ctx))

	require.NoError(t, bus.Publish(ctx, "run-2", events.RunCompleted{
		BaseEvent: events.NewBaseEvent(events.RunCompletedEvent, "run-2"),
		Status:    "success",
	}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()

		return calls >= 1
	}, time.Second, 10*time.Millisecond)
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	bus := NewInMemoryEventBus(watermill.NopLogger{})
	defer bus.Close()

	assert.NotEqual(t, bus.GenerateID(), bus.GenerateID())
}
