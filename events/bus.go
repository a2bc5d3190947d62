package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/abeme/go_bm_api/logger"
)

// Event kinds published on relationship channels.
const (
	KindCreated  = "relationship.created"
	KindStage    = "relationship.stage"
	KindRevealed = "relationship.revealed"
	KindMessage  = "relationship.message"
)

// Event describes a relationship change. Consumers re-fetch state via the
// API on receipt; the event itself is a hint, not a source of truth.
type Event struct {
	Kind           string `json:"kind"`
	RelationshipID string `json:"relationship_id"`
	Stage          int    `json:"stage,omitempty"`
}

// Bus fans relationship events out to in-process subscribers and, when a
// Redis client is attached, across instances via pub/sub on
// "relationship:<id>" channels.
type Bus struct {
	rdb *redis.Client
	log *logger.Logger

	mu          sync.Mutex
	subscribers map[int]chan Event
	nextID      int
	closed      bool
	cancel      context.CancelFunc
}

func NewBus(rdb *redis.Client, log *logger.Logger) *Bus {
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bus{
		rdb:         rdb,
		log:         log,
		subscribers: make(map[int]chan Event),
		cancel:      cancel,
	}
	if rdb != nil {
		go b.run(ctx)
	}
	return b
}

// run relays cross-instance pub/sub traffic into the local subscriber set.
func (b *Bus) run(ctx context.Context) {
	pubsub := b.rdb.PSubscribe(ctx, "relationship:*")
	defer pubsub.Close()
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.log.Warn("dropping malformed relationship event", "channel", msg.Channel, "err", err)
				continue
			}
			b.deliver(ev)
		}
	}
}

func (b *Bus) deliver(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
			// Slow subscriber: drop it rather than block the bus.
			close(ch)
			delete(b.subscribers, id)
			b.log.Warn("dropped slow event subscriber", "id", id)
		}
	}
}

// Publish emits an event locally and, if Redis is attached, to the
// relationship's channel for other instances.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	b.deliver(ev)
	if b.rdb == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := b.rdb.Publish(ctx, "relationship:"+ev.RelationshipID, payload).Err(); err != nil {
		b.log.Warn("redis publish failed", "relationship", ev.RelationshipID, "err", err)
	}
}

// Subscribe registers a buffered event channel. The returned cancel func
// unregisters it and closes the channel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, 16)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subscribers[id] = ch
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if c, ok := b.subscribers[id]; ok {
			close(c)
			delete(b.subscribers, id)
		}
	}
}

// Close stops the Redis relay and closes all subscriber channels.
func (b *Bus) Close() {
	b.cancel()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
