package realtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"bluechain-mrv/backend/internal/outbox"
)

// ErrHubClosed is returned when subscribing to a closed hub.
var ErrHubClosed = errors.New("realtime hub closed")

// Subscriber receives the messages published on the topics it follows.
type Subscriber struct {
	id     uint64
	ch     chan outbox.Message
	topics map[string]struct{}
}

// Messages is closed when the subscriber is removed or the hub closes.
func (s *Subscriber) Messages() <-chan outbox.Message { return s.ch }

// Hub fans published messages out to topic subscribers inside one process.
// Publishing never blocks: a subscriber whose buffer is full misses the
// message.
type Hub struct {
	mu      sync.RWMutex
	subs    map[uint64]*Subscriber
	topics  map[string]map[uint64]*Subscriber
	buffer  int
	nextID  uint64
	closed  bool
	dropped atomic.Uint64
	logger  *zap.Logger
}

func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		subs:   make(map[uint64]*Subscriber),
		topics: make(map[string]map[uint64]*Subscriber),
		buffer: buffer,
		logger: logger,
	}
}

// NewSubscriber registers a subscriber with no topics.
func (h *Hub) NewSubscriber() (*Subscriber, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}

	h.nextID++
	sub := &Subscriber{
		id:     h.nextID,
		ch:     make(chan outbox.Message, h.buffer),
		topics: make(map[string]struct{}),
	}
	h.subs[sub.id] = sub
	return sub, nil
}

// Subscribe adds topic to sub. Subscribing twice is a no-op.
func (h *Hub) Subscribe(sub *Subscriber, topic string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	if _, ok := h.subs[sub.id]; !ok {
		return errors.New("subscriber not registered")
	}

	set, ok := h.topics[topic]
	if !ok {
		set = make(map[uint64]*Subscriber)
		h.topics[topic] = set
	}
	set[sub.id] = sub
	sub.topics[topic] = struct{}{}
	return nil
}

// Unsubscribe removes topic from sub.
func (h *Hub) Unsubscribe(sub *Subscriber, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.unsubscribeLocked(sub, topic)
}

func (h *Hub) unsubscribeLocked(sub *Subscriber, topic string) {
	delete(sub.topics, topic)
	if set, ok := h.topics[topic]; ok {
		delete(set, sub.id)
		if len(set) == 0 {
			delete(h.topics, topic)
		}
	}
}

// Remove drops every subscription of sub and closes its channel.
func (h *Hub) Remove(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subs[sub.id]; !ok {
		return
	}
	for topic := range sub.topics {
		h.unsubscribeLocked(sub, topic)
	}
	delete(h.subs, sub.id)
	close(sub.ch)
}

// Publish implements outbox.Publisher.
func (h *Hub) Publish(_ context.Context, msg outbox.Message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return ErrHubClosed
	}

	for _, sub := range h.topics[msg.Topic] {
		select {
		case sub.ch <- msg:
		default:
			h.dropped.Add(1)
			h.logger.Debug("Dropped message for slow subscriber",
				zap.String("topic", msg.Topic),
				zap.Uint64("subscriber", sub.id))
		}
	}
	return nil
}

// Dropped returns how many deliveries were skipped because a buffer was full.
func (h *Hub) Dropped() uint64 { return h.dropped.Load() }

// SubscriberCount returns the number of registered subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close removes every subscriber. Later publishes fail with ErrHubClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		close(sub.ch)
		delete(h.subs, id)
	}
	h.topics = make(map[string]map[uint64]*Subscriber)
}

var _ outbox.Publisher = (*Hub)(nil)
