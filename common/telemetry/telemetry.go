package telemetry

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"sync"

	"github.com/Euraxluo/dataflow/common/logger"
)

// Telemetry runs the optional debug surface for one launch: a pprof
// endpoint for profiling the supervisor process itself, and a metrics
// endpoint reporting how many times each node has been observed in each
// lifecycle state. A nil *Telemetry is a valid no-op receiver, matching
// statusserver.Hub's nil-safety, so callers never need to branch on
// whether telemetry is enabled.
type Telemetry struct {
	log         *logger.Logger
	pprofAddr   string
	metricsAddr string

	mu     sync.Mutex
	counts map[string]map[string]int
}

// New builds a Telemetry reporting on pprofPort/metricsPort.
func New(pprofPort, metricsPort int, log *logger.Logger) *Telemetry {
	return &Telemetry{
		log:         log,
		pprofAddr:   fmt.Sprintf("localhost:%d", pprofPort),
		metricsAddr: fmt.Sprintf("localhost:%d", metricsPort),
		counts:      make(map[string]map[string]int),
	}
}

// Start launches the pprof profiling endpoint and the node-metrics
// endpoint as background goroutines; it does not block.
func (t *Telemetry) Start(ctx context.Context) error {
	go func() {
		t.log.Info("pprof server starting", "addr", t.pprofAddr)
		if err := http.ListenAndServe(t.pprofAddr, nil); err != nil {
			t.log.Error("pprof server error", "error", err)
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", t.serveMetrics)
	go func() {
		t.log.Info("metrics server starting", "addr", t.metricsAddr)
		if err := http.ListenAndServe(t.metricsAddr, mux); err != nil {
			t.log.Error("metrics server error", "error", err)
		}
	}()

	return nil
}

// RecordNodeState increments the count of times nodeID has been observed
// transitioning into state ("pending", "running", "exited", "failed").
// A nil Telemetry makes this a no-op.
func (t *Telemetry) RecordNodeState(nodeID, state string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.counts[nodeID] == nil {
		t.counts[nodeID] = make(map[string]int)
	}
	t.counts[nodeID][state]++
}

// serveMetrics renders the current counts in the Prometheus exposition
// text format, one dataflow_node_state_total series per node/state pair.
func (t *Telemetry) serveMetrics(w http.ResponseWriter, _ *http.Request) {
	t.mu.Lock()
	defer t.mu.Unlock()
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	for nodeID, states := range t.counts {
		for state, count := range states {
			fmt.Fprintf(w, "dataflow_node_state_total{node=%q,state=%q} %d\n", nodeID, state, count)
		}
	}
}
