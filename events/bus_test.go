package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abeme/go_bm_api/logger"
)

func TestPublishDeliversInOrder(t *testing.T) {
	b := NewBus(nil, logger.NewNop())
	defer b.Close()
	ch, cancel := b.Subscribe()
	defer cancel()

	ctx := context.Background()
	b.Publish(ctx, Event{Kind: KindCreated, RelationshipID: "r1", Stage: 1})
	b.Publish(ctx, Event{Kind: KindStage, RelationshipID: "r1", Stage: 2})
	b.Publish(ctx, Event{Kind: KindRevealed, RelationshipID: "r1", Stage: 3})

	assert.Equal(t, KindCreated, (<-ch).Kind)
	ev := <-ch
	assert.Equal(t, KindStage, ev.Kind)
	assert.Equal(t, 2, ev.Stage)
	assert.Equal(t, KindRevealed, (<-ch).Kind)
}

func TestCancelStopsDelivery(t *testing.T) {
	b := NewBus(nil, logger.NewNop())
	defer b.Close()
	ch, cancel := b.Subscribe()
	cancel()

	b.Publish(context.Background(), Event{Kind: KindMessage, RelationshipID: "r1"})
	_, ok := <-ch
	assert.False(t, ok, "cancel closes the subscriber channel")
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	b := NewBus(nil, logger.NewNop())
	defer b.Close()
	slow, _ := b.Subscribe()

	// One more publish than the channel buffer holds; the overflow drops the
	// subscriber rather than blocking the bus.
	ctx := context.Background()
	for i := 0; i < cap(slow)+1; i++ {
		b.Publish(ctx, Event{Kind: KindMessage, RelationshipID: "r1"})
	}

	var got int
	for range slow {
		got++
	}
	assert.Equal(t, cap(slow), got, "buffered events survive, the overflow is lost")

	b.mu.Lock()
	defer b.mu.Unlock()
	require.Empty(t, b.subscribers)
}

func TestCloseIsIdempotent(t *testing.T) {
	b := NewBus(nil, logger.NewNop())
	ch, cancel := b.Subscribe()

	b.Close()
	_, ok := <-ch
	assert.False(t, ok)
	b.Close()
	cancel() // late cancel after close must not panic either

	// Subscribing after close yields an already-closed channel.
	ch2, cancel2 := b.Subscribe()
	defer cancel2()
	_, ok = <-ch2
	assert.False(t, ok)
}
