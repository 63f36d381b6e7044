package events

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Publisher is the narrow surface mutating services depend on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Broadcaster fans events out to every currently-connected subscriber.
// Delivery is best-effort and at-most-once per subscriber: a slow
// subscriber whose buffer is full loses the event, and nothing is
// replayed to late joiners.
type Broadcaster interface {
	Publisher
	Subscribe(topic string) *Subscription
}

// Subscription is one subscriber's attachment to a topic. C is closed
// when the subscription is closed.
type Subscription struct {
	C <-chan Event

	topic string
	id    uint64
	close func()
	once  sync.Once
}

// Close detaches the subscriber and closes C.
func (s *Subscription) Close() {
	s.once.Do(s.close)
}

// Hub is the in-process Broadcaster implementation.
type Hub struct {
	mu      sync.RWMutex
	nextID  uint64
	subs    map[string]map[uint64]chan Event
	buffer  int
	logger  *zap.Logger
	dropped atomic.Uint64
}

// NewHub creates a hub whose subscriber channels buffer the given
// number of events before deliveries start being dropped.
func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[string]map[uint64]chan Event),
		buffer: buffer,
		logger: logger,
	}
}

// Publish delivers the event to every subscriber of its topic. It never
// blocks on a subscriber and never returns a delivery failure: broadcast
// problems must not fail the originating mutation.
func (h *Hub) Publish(ctx context.Context, event Event) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for id, ch := range h.subs[event.Topic] {
		select {
		case ch <- event:
		default:
			h.dropped.Add(1)
			h.logger.Debug("dropping event for slow subscriber",
				zap.Uint64("subscriber_id", id),
				zap.String("topic", event.Topic),
				zap.String("event_type", string(event.Type)))
		}
	}
	return nil
}

// Subscribe attaches a new subscriber to the topic.
func (h *Hub) Subscribe(topic string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	ch := make(chan Event, h.buffer)
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[uint64]chan Event)
	}
	h.subs[topic][id] = ch

	return &Subscription{
		C:     ch,
		topic: topic,
		id:    id,
		close: func() { h.unsubscribe(topic, id) },
	}
}

func (h *Hub) unsubscribe(topic string, id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subs[topic][id]; ok {
		delete(h.subs[topic], id)
		close(ch)
	}
}

// SubscriberCount reports current subscribers on a topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}

// Dropped reports how many deliveries were skipped for slow subscribers.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
