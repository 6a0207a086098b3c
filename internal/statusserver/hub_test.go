package statusserver

import (
	"testing"
	"time"

	"github.com/Euraxluo/dataflow/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubSnapshotReflectsPublishedEvents(t *testing.T) {
	hub := NewHub(logger.New("error", "text"))
	done := make(chan struct{})
	go hub.Run(done)
	defer close(done)

	hub.Publish(Event{NodeID: "counter", State: StateRunning})
	require.Eventually(t, func() bool {
		return hub.Snapshot()["counter"].State == StateRunning
	}, time.Second, 10*time.Millisecond)

	hub.Publish(Event{NodeID: "counter", State: StateExited})
	require.Eventually(t, func() bool {
		return hub.Snapshot()["counter"].State == StateExited
	}, time.Second, 10*time.Millisecond)

	assert.Len(t, hub.Snapshot(), 1)
}
