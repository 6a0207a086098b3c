// Package statusserver serves an optional, purely observational view of a
// launch: GET /health, GET /status (current node states as JSON), and a
// GET /ws endpoint that streams node lifecycle events to connected browsers
// as they happen. Grounded on cmd/fanout's hub/client/server split in the
// teacher repo, adapted from per-username workflow broadcast to per-launch
// node-state broadcast.
package statusserver

import (
	"sync"

	"github.com/Euraxluo/dataflow/common/logger"
)

// State is a node's lifecycle stage as observed by the supervisor.
type State string

const (
	StatePending State = "pending"
	StateRunning State = "running"
	StateExited  State = "exited"
	StateFailed  State = "failed"
)

// Event is one node lifecycle transition, broadcast to every connected
// websocket client and folded into the hub's status snapshot.
type Event struct {
	NodeID string `json:"node_id"`
	State  State  `json:"state"`
	Detail string `json:"detail,omitempty"`
}

// Hub tracks the latest state of every node and fans Events out to
// connected clients. The zero value is not usable; use NewHub.
type Hub struct {
	log *logger.Logger

	mu       sync.Mutex
	states   map[string]Event
	clients  map[*client]struct{}
	register chan *client
	unregister chan *client
	broadcast  chan Event
}

// NewHub creates an empty Hub. Call Run in its own goroutine to start
// servicing registrations and broadcasts.
func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		log:        log,
		states:     make(map[string]Event),
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan Event, 64),
	}
}

// Run services registration, unregistration, and broadcast until ctxDone
// is closed. It owns all hub mutable state; callers never touch clients
// or states directly.
func (h *Hub) Run(ctxDone <-chan struct{}) {
	for {
		select {
		case <-ctxDone:
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
			}
			h.mu.Unlock()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			snapshot := make([]Event, 0, len(h.states))
			for _, e := range h.states {
				snapshot = append(snapshot, e)
			}
			h.mu.Unlock()
			for _, e := range snapshot {
				c.trySend(e)
			}

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case e := <-h.broadcast:
			h.mu.Lock()
			h.states[e.NodeID] = e
			for c := range h.clients {
				c.trySend(e)
			}
			h.mu.Unlock()
		}
	}
}

// Publish records a node lifecycle event and broadcasts it to every
// connected client. Safe to call from any goroutine; never blocks the
// caller (the broadcast channel is buffered and Run drains it promptly).
// A nil Hub is valid and Publish is then a no-op, so callers can pass it
// through unconditionally when the status server is disabled.
func (h *Hub) Publish(e Event) {
	if h == nil {
		return
	}
	select {
	case h.broadcast <- e:
	default:
		h.log.Warn("status hub broadcast buffer full, dropping event", "node_id", e.NodeID)
	}
}

// Snapshot returns the current known state of every node, keyed by id.
func (h *Hub) Snapshot() map[string]Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]Event, len(h.states))
	for k, v := range h.states {
		out[k] = v
	}
	return out
}
