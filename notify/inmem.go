package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// InmemTransport delivers messages inside one process. Subscriptions are named
// after the topic they consume. Nacked messages are redelivered until
// maxDeliveries is reached, then dropped.
type InmemTransport struct {
	mu            sync.RWMutex
	subs          map[string][]chan *Message
	seq           atomic.Int64
	maxDeliveries int
	closed        bool
}

func NewInmemTransport(maxDeliveries int) *InmemTransport {
	if maxDeliveries <= 0 {
		maxDeliveries = 5
	}
	return &InmemTransport{
		subs:          map[string][]chan *Message{},
		maxDeliveries: maxDeliveries,
	}
}

func (t *InmemTransport) Publish(ctx context.Context, topic string, data []byte, attributes map[string]string) (string, error) {
	if topic == "" {
		return "", errors.New("inmem: topic required")
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return "", errors.New("inmem: transport closed")
	}
	id := fmt.Sprintf("msg-%d", t.seq.Add(1))
	for _, ch := range t.subs[topic] {
		msg := &Message{
			ID:         id,
			Data:       append([]byte(nil), data...),
			Attributes: cloneMap(attributes),
			Attempt:    1,
			ReceivedAt: time.Now(),
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case ch <- msg:
		}
	}
	return id, nil
}

func (t *InmemTransport) Subscribe(ctx context.Context, subscription string, handler Handler) error {
	if handler == nil {
		return errors.New("inmem: handler required")
	}
	ch := make(chan *Message, 64)
	t.register(subscription, ch)
	defer t.unregister(subscription, ch)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-ch:
			if err := handler(ctx, msg); err != nil && msg.Attempt < t.maxDeliveries {
				retry := *msg
				retry.Attempt++
				retry.ReceivedAt = time.Now()
				select {
				case ch <- &retry:
				default:
				}
			}
		}
	}
}

func (t *InmemTransport) Close(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.subs = map[string][]chan *Message{}
	return nil
}

// Subscribers reports how many subscriptions are attached to topic.
func (t *InmemTransport) Subscribers(topic string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subs[topic])
}

func (t *InmemTransport) register(topic string, ch chan *Message) {
	t.mu.Lock()
	t.subs[topic] = append(t.subs[topic], ch)
	t.mu.Unlock()
}

func (t *InmemTransport) unregister(topic string, ch chan *Message) {
	t.mu.Lock()
	defer t.mu.Unlock()
	subs := t.subs[topic]
	for i, candidate := range subs {
		if candidate == ch {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	if len(subs) == 0 {
		delete(t.subs, topic)
	} else {
		t.subs[topic] = subs
	}
}
