package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	gcppubsub "cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

type GoogleConfig struct {
	ProjectID       string
	CredentialsJSON []byte
	Endpoint        string
	Client          *gcppubsub.Client
	Logger          *zap.Logger
}

type googleTransport struct {
	client     *gcppubsub.Client
	ownsClient bool
	lg         *zap.Logger

	mu     sync.Mutex
	topics map[string]*gcppubsub.Topic
}

// NewGoogleTransport wraps a Pub/Sub client. Subscriptions receive one message
// at a time so that every notification maps to exactly one handler call.
func NewGoogleTransport(ctx context.Context, cfg GoogleConfig) (Transport, error) {
	client := cfg.Client
	owns := false
	if client == nil {
		if cfg.ProjectID == "" {
			return nil, errors.New("googlepubsub: project id required when client is not provided")
		}
		opts := make([]option.ClientOption, 0, 2)
		if len(cfg.CredentialsJSON) > 0 {
			opts = append(opts, option.WithCredentialsJSON(cfg.CredentialsJSON))
		}
		if cfg.Endpoint != "" {
			opts = append(opts, option.WithEndpoint(cfg.Endpoint))
		}
		var err error
		client, err = gcppubsub.NewClient(ctx, cfg.ProjectID, opts...)
		if err != nil {
			return nil, fmt.Errorf("googlepubsub: create client: %w", err)
		}
		owns = true
	}
	lg := cfg.Logger
	if lg == nil {
		lg = zap.NewNop()
	}
	return &googleTransport{
		client:     client,
		ownsClient: owns,
		lg:         lg,
		topics:     map[string]*gcppubsub.Topic{},
	}, nil
}

func (t *googleTransport) topic(name string) *gcppubsub.Topic {
	t.mu.Lock()
	defer t.mu.Unlock()
	topic, ok := t.topics[name]
	if !ok {
		topic = t.client.Topic(name)
		t.topics[name] = topic
	}
	return topic
}

func (t *googleTransport) Publish(ctx context.Context, topic string, data []byte, attributes map[string]string) (string, error) {
	if topic == "" {
		return "", errors.New("googlepubsub: topic required")
	}
	res := t.topic(topic).Publish(ctx, &gcppubsub.Message{
		Data:       append([]byte(nil), data...),
		Attributes: cloneMap(attributes),
	})
	id, err := res.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("googlepubsub: publish: %w", err)
	}
	return id, nil
}

func (t *googleTransport) Subscribe(ctx context.Context, subscription string, handler Handler) error {
	if subscription == "" {
		return errors.New("googlepubsub: subscription required")
	}
	if handler == nil {
		return errors.New("googlepubsub: handler required")
	}
	sub := t.client.Subscription(subscription)
	sub.ReceiveSettings.NumGoroutines = 1
	sub.ReceiveSettings.MaxOutstandingMessages = 1

	err := sub.Receive(ctx, func(msgCtx context.Context, m *gcppubsub.Message) {
		msg := &Message{
			ID:         m.ID,
			Data:       append([]byte(nil), m.Data...),
			Attributes: cloneMap(m.Attributes),
			Attempt:    1,
			ReceivedAt: m.PublishTime,
		}
		if m.DeliveryAttempt != nil {
			msg.Attempt = *m.DeliveryAttempt
		}

		defer func() {
			if r := recover(); r != nil {
				t.lg.Error("googlepubsub handler panic", zap.String("subscription", subscription), zap.Any("panic", r))
				m.Nack()
			}
		}()

		if err := handler(msgCtx, msg); err != nil {
			t.lg.Warn("googlepubsub handler failed, nacking",
				zap.String("subscription", subscription),
				zap.String("messageId", m.ID),
				zap.Error(err),
			)
			m.Nack()
			return
		}
		m.Ack()
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("googlepubsub: receive: %w", err)
	}
	return ctx.Err()
}

func (t *googleTransport) Close(context.Context) error {
	t.mu.Lock()
	for _, topic := range t.topics {
		topic.Stop()
	}
	t.topics = map[string]*gcppubsub.Topic{}
	t.mu.Unlock()
	if t.ownsClient {
		return t.client.Close()
	}
	return nil
}
