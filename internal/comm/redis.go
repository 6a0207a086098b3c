package comm

import (
	"context"
	"fmt"

	"github.com/Euraxluo/dataflow/common/logger"
	"github.com/Euraxluo/dataflow/internal/errs"
	"github.com/redis/go-redis/v9"
)

// RedisLayer is the production CommunicationLayer, adapted from
// common/redis/client.go's connection handling and cmd/fanout's
// PSubscribe-based forwarding.
type RedisLayer struct {
	client    *redis.Client
	namespace string
	log       *logger.Logger
}

// NewRedisLayer dials endpoints[0] as a Redis address and scopes every
// topic under namespace.
func NewRedisLayer(endpoints []string, namespace string, log *logger.Logger) (*RedisLayer, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("redis communication layer requires at least one endpoint")
	}
	client := redis.NewClient(&redis.Options{Addr: endpoints[0]})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, &errs.CommunicationError{Topic: "", Op: "connect", Err: err}
	}
	return &RedisLayer{client: client, namespace: namespace, log: log}, nil
}

func (l *RedisLayer) Publisher(ctx context.Context, topic string) (Publisher, error) {
	full := prefixed(l.namespace, topic)
	l.log.WithFields(map[string]any{"topic": full}).Debug("opened redis publisher")
	return &redisPublisher{client: l.client, topic: full}, nil
}

func (l *RedisLayer) Subscribe(ctx context.Context, topic string) (Subscriber, error) {
	full := prefixed(l.namespace, topic)
	pubsub := l.client.Subscribe(ctx, full)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, &errs.CommunicationError{Topic: full, Op: "subscribe", Err: err}
	}
	l.log.WithFields(map[string]any{"topic": full}).Debug("opened redis subscriber")
	return &redisSubscriber{pubsub: pubsub, topic: full, ch: pubsub.Channel()}, nil
}

func (l *RedisLayer) Close() error {
	return l.client.Close()
}

type redisPublisher struct {
	client *redis.Client
	topic  string
}

func (p *redisPublisher) Publish(ctx context.Context, data []byte) error {
	if err := p.client.Publish(ctx, p.topic, data).Err(); err != nil {
		return &errs.CommunicationError{Topic: p.topic, Op: "publish", Err: err}
	}
	return nil
}

func (p *redisPublisher) Close() error { return nil }

type redisSubscriber struct {
	pubsub *redis.PubSub
	topic  string
	ch     <-chan *redis.Message
}

func (s *redisSubscriber) Recv(ctx context.Context) ([]byte, bool, error) {
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case msg, open := <-s.ch:
		if !open {
			return nil, false, nil
		}
		return []byte(msg.Payload), true, nil
	}
}

func (s *redisSubscriber) Close() error {
	return s.pubsub.Close()
}
