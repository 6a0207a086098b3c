// Package comm provides the pub/sub communication layer every node uses to
// exchange data, grounded on
// original_source/ch4/dataflow/src/communication/pub_sub.rs's
// PubSubCommunicationLayer abstraction. Two backends are provided: a
// Redis-backed layer for real deployments and an in-memory layer for local
// runs and tests.
package comm

import "context"

// Publisher sends byte payloads to one fixed topic.
type Publisher interface {
	Publish(ctx context.Context, data []byte) error
	Close() error
}

// Subscriber receives byte payloads from one fixed topic. Recv returns
// ok=false once the subscription is closed and no further messages will
// arrive, mirroring the Option-returning recv() in the original
// implementation.
type Subscriber interface {
	Recv(ctx context.Context) (data []byte, ok bool, err error)
	Close() error
}

// Layer opens publishers and subscribers against topics namespaced under a
// single application prefix: "<namespace>/<topic>".
type Layer interface {
	Publisher(ctx context.Context, topic string) (Publisher, error)
	Subscribe(ctx context.Context, topic string) (Subscriber, error)
	Close() error
}

func prefixed(namespace, topic string) string {
	return namespace + "/" + topic
}
