// Package timer drives the dataflow's built-in timer node: one goroutine
// per distinct interval declared across the graph, each publishing an
// empty tick message on its canonical topic. Grounded on
// original_source/ch3/src/runtime/timer.rs.
package timer

import (
	"context"
	"time"

	"github.com/Euraxluo/dataflow/common/logger"
	"github.com/Euraxluo/dataflow/internal/comm"
	"github.com/Euraxluo/dataflow/internal/descriptor"
)

const (
	// NodeID is the reserved node id consumers address via the
	// "dataflow/timer/..." InputMapping form.
	NodeID = "dataflow/timer"
	// NodeName names the timer node for logging and visualization.
	NodeName = "dataflow_timer_node"
	// Description documents the timer node's role, surfaced by `show`.
	Description = "Timer nodes used throughout the entire dataflow network."
)

// Start launches one publishing goroutine per distinct timer interval
// declared across nodes, and blocks until ctx is cancelled.
func Start(ctx context.Context, nodes []descriptor.NormalNode, layer comm.Layer, log *logger.Logger) error {
	timers := descriptor.CollectTimerInputFromNodes(nodes)
	log = log.WithNodeID(NodeID)
	log.Info("starting timer node", "interval_count", len(timers))

	for _, input := range timers {
		topic := input.Mapping.String()
		interval := input.Mapping.Interval
		pub, err := layer.Publisher(ctx, topic)
		if err != nil {
			return err
		}
		log.Debug("timer publishing", "topic", topic, "interval", interval)
		go publishTicks(ctx, pub, topic, interval, log)
	}

	<-ctx.Done()
	return ctx.Err()
}

func publishTicks(ctx context.Context, pub comm.Publisher, topic string, interval time.Duration, log *logger.Logger) {
	defer pub.Close()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := pub.Publish(ctx, nil); err != nil {
				log.Error("timer failed to publish tick", "topic", topic, "error", err)
				continue
			}
			log.Debug("timer tick published", "topic", topic)
		}
	}
}
