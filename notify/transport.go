package notify

import (
	"context"
	"time"
)

// Message is a delivered notification.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
	Attempt    int
	ReceivedAt time.Time
}

// Handler processes one message. A nil error acks it; an error nacks it so the
// broker redelivers.
type Handler func(ctx context.Context, msg *Message) error

// Transport is a concrete broker. Subscribe blocks until ctx is done or the
// transport fails.
type Transport interface {
	Publish(ctx context.Context, topic string, data []byte, attributes map[string]string) (string, error)
	Subscribe(ctx context.Context, subscription string, handler Handler) error
	Close(ctx context.Context) error
}

// Publisher announces objects written by the fetcher.
type Publisher struct {
	transport Transport
	topic     string
}

func NewPublisher(transport Transport, topic string) *Publisher {
	return &Publisher{transport: transport, topic: topic}
}

func (p *Publisher) PublishObjectCreated(ctx context.Context, ev ObjectCreatedEvent, size int64) (string, error) {
	data, err := MarshalEvent(ev, size, time.Now())
	if err != nil {
		return "", err
	}
	return p.transport.Publish(ctx, p.topic, data, map[string]string{
		"eventType": "OBJECT_FINALIZE",
		"bucketId":  ev.Bucket,
		"objectId":  ev.Key,
	})
}

func cloneMap(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
