package messaging

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mathclass/rating-hub/internal/domain/shared"
)

func TestInMemoryEventBus_SyncDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	defer bus.Close()

	var typed, all []shared.EventType
	require.NoError(t, bus.Subscribe(shared.EventScoreUpdated, func(e shared.Event) error {
		typed = append(typed, e.EventType())
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		all = append(all, e.EventType())
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewScoreUpdatedEvent(1, "homework", 85, 90)))
	require.NoError(t, bus.Publish(shared.NewRosterLoadedEvent(4)))

	assert.Equal(t, []shared.EventType{shared.EventScoreUpdated}, typed)
	assert.Equal(t, []shared.EventType{shared.EventScoreUpdated, shared.EventRosterLoaded}, all)

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(2), snap.TotalPublished)
	assert.Equal(t, int64(3), snap.HandlerExecutions)
}

func TestInMemoryEventBus_HandlerFailuresAreContained(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	defer bus.Close()

	var reached bool
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { return errors.New("boom") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error { panic("kaboom") }))
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		reached = true
		return nil
	}))

	assert.NoError(t, bus.Publish(shared.NewRosterLoadedEvent(0)))
	assert.True(t, reached)
	assert.Equal(t, int64(2), bus.Metrics().Snapshot().HandlerFailures)
}

func TestInMemoryEventBus_Async(t *testing.T) {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = true
	bus := NewInMemoryEventBus(cfg)

	var count int32
	var wg sync.WaitGroup
	wg.Add(10)
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		atomic.AddInt32(&count, 1)
		wg.Done()
		return nil
	}))

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(shared.NewRosterLoadedEvent(i)))
	}
	wg.Wait()
	require.NoError(t, bus.Close())

	assert.Equal(t, int32(10), atomic.LoadInt32(&count))
}

func TestInMemoryEventBus_Closed(t *testing.T) {
	bus := NewInMemoryEventBus(DefaultInMemoryEventBusConfig())
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(shared.NewRosterLoadedEvent(1)), ErrEventBusClosed)
	assert.ErrorIs(t, bus.SubscribeAll(func(shared.Event) error { return nil }), ErrEventBusClosed)
	assert.Error(t, bus.Publish(nil))
}
