package comm

import (
	"context"
	"sync"

	"github.com/Euraxluo/dataflow/common/logger"
)

// topicQueueSize is the default buffer depth for an in-memory topic
// channel, matching common/queue's MemoryQueue buffering.
const topicQueueSize = 1000

// MemoryLayer is an in-process CommunicationLayer for local runs and tests
// where no Redis endpoint is configured, adapted from
// common/queue/queue.go's MemoryQueue.
type MemoryLayer struct {
	mu        sync.Mutex
	topics    map[string]*memoryTopic
	namespace string
	log       *logger.Logger
}

type memoryTopic struct {
	mu   sync.Mutex
	subs []chan []byte
}

// NewMemoryLayer creates an empty in-memory communication layer.
func NewMemoryLayer(namespace string, log *logger.Logger) *MemoryLayer {
	return &MemoryLayer{
		topics:    make(map[string]*memoryTopic),
		namespace: namespace,
		log:       log,
	}
}

func (l *MemoryLayer) topic(name string) *memoryTopic {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.topics[name]
	if !ok {
		t = &memoryTopic{}
		l.topics[name] = t
	}
	return t
}

func (l *MemoryLayer) Publisher(ctx context.Context, topic string) (Publisher, error) {
	full := prefixed(l.namespace, topic)
	return &memoryPublisher{topic: l.topic(full)}, nil
}

func (l *MemoryLayer) Subscribe(ctx context.Context, topic string) (Subscriber, error) {
	full := prefixed(l.namespace, topic)
	t := l.topic(full)
	ch := make(chan []byte, topicQueueSize)

	t.mu.Lock()
	t.subs = append(t.subs, ch)
	t.mu.Unlock()

	l.log.WithFields(map[string]any{"topic": full}).Debug("opened memory subscriber")
	return &memorySubscriber{topic: t, ch: ch}, nil
}

func (l *MemoryLayer) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range l.topics {
		t.mu.Lock()
		for _, ch := range t.subs {
			close(ch)
		}
		t.subs = nil
		t.mu.Unlock()
	}
	return nil
}

type memoryPublisher struct {
	topic *memoryTopic
}

func (p *memoryPublisher) Publish(ctx context.Context, data []byte) error {
	p.topic.mu.Lock()
	defer p.topic.mu.Unlock()
	for _, ch := range p.topic.subs {
		select {
		case ch <- data:
		case <-ctx.Done():
			return ctx.Err()
		default:
			// Slow subscriber; drop rather than block the publisher.
		}
	}
	return nil
}

func (p *memoryPublisher) Close() error { return nil }

type memorySubscriber struct {
	topic *memoryTopic
	ch    chan []byte
}

func (s *memorySubscriber) Recv(ctx context.Context) ([]byte, bool, error) {
	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case data, open := <-s.ch:
		if !open {
			return nil, false, nil
		}
		return data, true, nil
	}
}

func (s *memorySubscriber) Close() error {
	s.topic.mu.Lock()
	defer s.topic.mu.Unlock()
	for i, ch := range s.topic.subs {
		if ch == s.ch {
			s.topic.subs = append(s.topic.subs[:i], s.topic.subs[i+1:]...)
			break
		}
	}
	return nil
}
