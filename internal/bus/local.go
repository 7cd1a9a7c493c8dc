package bus

import "sync"

// Local delivers messages synchronously within the process. Handlers run on
// the publisher's goroutine, in subscription order.
type Local struct {
	mu     sync.RWMutex
	subs   map[string][]*localSub
	nextID uint64
	closed bool
}

type localSub struct {
	bus   *Local
	topic string
	id    uint64
	h     Handler
	once  sync.Once
}

// NewLocal returns an empty in-process bus.
func NewLocal() *Local {
	return &Local{subs: make(map[string][]*localSub)}
}

// Publish calls every handler subscribed to topic. Publishing to a topic
// with no subscribers is not an error.
func (b *Local) Publish(topic string, payload []byte) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return ErrClosed
	}
	subs := append([]*localSub(nil), b.subs[topic]...)
	b.mu.RUnlock()

	for _, s := range subs {
		s.h(topic, payload)
	}
	return nil
}

// Subscribe registers h for topic. Subscribing the same handler twice yields
// two independent subscriptions.
func (b *Local) Subscribe(topic string, h Handler) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	b.nextID++
	s := &localSub{bus: b, topic: topic, id: b.nextID, h: h}
	b.subs[topic] = append(b.subs[topic], s)
	return s, nil
}

// Subscribers returns the number of handlers subscribed to topic.
func (b *Local) Subscribers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Close drops all subscriptions. Later calls fail with ErrClosed.
func (b *Local) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	b.closed = true
	b.subs = nil
	return nil
}

func (s *localSub) Unsubscribe() error {
	s.once.Do(func() { s.bus.remove(s) })
	return nil
}

func (b *Local) remove(s *localSub) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[s.topic]
	for i, other := range subs {
		if other.id == s.id {
			b.subs[s.topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.subs[s.topic]) == 0 {
		delete(b.subs, s.topic)
	}
}
