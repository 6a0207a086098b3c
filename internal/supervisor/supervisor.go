// Package supervisor implements `launch`: reading, validating, and
// spawning one child process per canonicalized node, and `start --node`:
// the child-side entry point those processes re-exec into. Grounded on
// original_source/ch4/dataflow/src/launch/mod.rs.
package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Euraxluo/dataflow/common/logger"
	"github.com/Euraxluo/dataflow/common/telemetry"
	"github.com/Euraxluo/dataflow/internal/audit"
	"github.com/Euraxluo/dataflow/internal/comm"
	"github.com/Euraxluo/dataflow/internal/descriptor"
	"github.com/Euraxluo/dataflow/internal/errs"
	"github.com/Euraxluo/dataflow/internal/statusserver"
	"github.com/Euraxluo/dataflow/internal/timer"
	"github.com/Euraxluo/dataflow/internal/validate"
)

// DataflowDescriptionEnv is the environment variable the supervisor uses
// to hand each child the serialized descriptor, which the child parses and
// canonicalizes again.
const DataflowDescriptionEnv = "DATAFLOW_DESCRIPTION"

// Options configures optional ambient additions to launch that never
// change its correctness: the live status board, the audit recorder, and
// the pprof debug endpoint. All are off by default.
type Options struct {
	StatusServerEnabled  bool
	StatusServerPort     int
	Audit                *audit.Recorder
	TelemetryEnabled     bool
	TelemetryPprofPort   int
	TelemetryMetricsPort int
}

// Launch reads, canonicalizes, and validates the descriptor at
// dataflowPath, then spawns one child per node and waits for all of them,
// per spec.md §4.7.
func Launch(ctx context.Context, dataflowPath string, build bool, opts Options, log *logger.Logger) error {
	log.Info("launch dataflow", "path", dataflowPath)

	d, err := descriptor.ReadFile(dataflowPath)
	if err != nil {
		return &errs.ParseError{Path: dataflowPath, Err: err}
	}

	absPath, err := filepath.Abs(dataflowPath)
	if err != nil {
		return &errs.IoError{Op: "resolve dataflow path", Err: err}
	}
	workingDir := filepath.Dir(absPath)

	nodes := d.Canonicalize()
	if err := validate.CheckDataflow(nodes, workingDir, build); err != nil {
		return err
	}

	ctx, stop := signalContext(ctx, log)
	defer stop()

	var tel *telemetry.Telemetry
	if opts.TelemetryEnabled {
		tel = telemetry.New(opts.TelemetryPprofPort, opts.TelemetryMetricsPort, log)
		if err := tel.Start(ctx); err != nil {
			log.Warn("failed to start telemetry", "error", err)
		}
	}

	var hub *statusserver.Hub
	if opts.StatusServerEnabled {
		hub = statusserver.NewHub(log)
		hubDone := make(chan struct{})
		go hub.Run(hubDone)
		defer close(hubDone)

		srv := statusserver.New(hub, log)
		go func() {
			if err := srv.Start(ctx, opts.StatusServerPort); err != nil {
				log.Warn("status server stopped", "error", err)
			}
		}()
	}

	timerLayer, err := comm.Open(d.Deploy.Mode, d.Deploy.Endpoints, comm.DefaultNamespace, log)
	if err != nil {
		return &errs.CommunicationError{Op: "open timer layer", Err: err}
	}
	defer timerLayer.Close()

	go func() {
		if err := timer.Start(ctx, nodes, timerLayer, log); err != nil && ctx.Err() == nil {
			log.Error("timer driver exited unexpectedly", "error", err)
		}
	}()

	rendered, err := descriptor.Marshal(d)
	if err != nil {
		return &errs.IoError{Op: "marshal descriptor for children", Err: err}
	}

	type result struct {
		nodeID string
		err    error
	}
	results := make(chan result, len(nodes))

	for _, node := range nodes {
		node := node
		hub.Publish(statusserver.Event{NodeID: string(node.ID), State: statusserver.StatePending})
		tel.RecordNodeState(string(node.ID), "pending")
		go func() {
			err := spawnNode(ctx, node, rendered, workingDir, build, opts.Audit, hub, tel, log)
			results <- result{nodeID: string(node.ID), err: err}
		}()
	}

	var failures []error
	for range nodes {
		r := <-results
		if r.err != nil {
			log.Error("node failed", "node_id", r.nodeID, "error", r.err)
			failures = append(failures, r.err)
		}
	}

	if len(failures) > 0 {
		return failures[0]
	}
	log.Info("launch nodes success")
	return nil
}

// signalContext derives a child context cancelled on the first SIGINT or
// SIGTERM; a second signal terminates the process immediately, per
// spec.md §4.7's at-most-once graceful shutdown rule.
func signalContext(parent context.Context, log *logger.Logger) (context.Context, func()) {
	ctx, cancel := context.WithCancel(parent)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Info("received interrupt, shutting down gracefully")
			cancel()
		case <-ctx.Done():
			signal.Stop(sigCh)
			return
		}

		select {
		case <-sigCh:
			log.Warn("received second interrupt, aborting immediately")
			os.Exit(130)
		case <-parent.Done():
		}
	}()

	return ctx, func() {
		cancel()
		signal.Stop(sigCh)
	}
}

// spawnNode forks the current executable as node's child, wires up its
// stdout/stderr to the node's log file, and waits for both a successful
// exit and confirmation the log was fully flushed.
func spawnNode(ctx context.Context, node descriptor.NormalNode, renderedDescriptor []byte, workingDir string, build bool, rec *audit.Recorder, hub *statusserver.Hub, tel *telemetry.Telemetry, log *logger.Logger) error {
	log = log.WithNodeID(string(node.ID))

	self, err := os.Executable()
	if err != nil {
		return &errs.SpawnError{NodeID: string(node.ID), Err: fmt.Errorf("resolve current executable: %w", err)}
	}

	args := []string{"start", "--node", string(node.ID)}
	if build {
		args = append(args, "--build")
	}

	cmd := exec.CommandContext(ctx, self, args...)
	cmd.Dir = workingDir
	cmd.Env = append(os.Environ(), DataflowDescriptionEnv+"="+string(renderedDescriptor))
	cmd.Stdin = nil

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return &errs.SpawnError{NodeID: string(node.ID), Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return &errs.SpawnError{NodeID: string(node.ID), Err: err}
	}

	if err := cmd.Start(); err != nil {
		return &errs.SpawnError{NodeID: string(node.ID), Err: err}
	}
	log.Info("spawned node")
	rec.RecordLaunch(ctx, string(node.ID))
	hub.Publish(statusserver.Event{NodeID: string(node.ID), State: statusserver.StateRunning})
	tel.RecordNodeState(string(node.ID), "running")

	logCh := make(chan string, logChannelCapacity)
	doneCh := make(chan event, eventChannelCapacity)

	go func() {
		defer close(logCh)
		stdoutDone := make(chan struct{})
		go func() {
			childLogReader(string(node.ID), stdout, logCh, stdoutAdmits, log)
			close(stdoutDone)
		}()
		childLogReader(string(node.ID), stderr, logCh, stderrAdmits, log)
		<-stdoutDone
	}()

	logPath := node.Deploy.Log
	writeErrCh := make(chan error, 1)
	go func() {
		writeErrCh <- writeLogsToFile(ctx, string(node.ID), logPath, logCh, doneCh, log)
	}()

	waitErr := cmd.Wait()
	if writeErr := <-writeErrCh; writeErr != nil {
		log.Error("log writer failed", "error", writeErr)
	}

	exitErr := translateNodeExit(string(node.ID), cmd, waitErr)
	rec.RecordExit(ctx, string(node.ID), exitErr)
	if exitErr != nil {
		hub.Publish(statusserver.Event{NodeID: string(node.ID), State: statusserver.StateFailed, Detail: exitErr.Error()})
		tel.RecordNodeState(string(node.ID), "failed")
		return exitErr
	}

	select {
	case <-doneCh:
	case <-ctx.Done():
		hub.Publish(statusserver.Event{NodeID: string(node.ID), State: statusserver.StateFailed, Detail: "cancelled"})
		tel.RecordNodeState(string(node.ID), "failed")
		return &errs.Cancelled{}
	}

	log.Info("node finished")
	hub.Publish(statusserver.Event{NodeID: string(node.ID), State: statusserver.StateExited})
	tel.RecordNodeState(string(node.ID), "exited")
	return nil
}

func translateNodeExit(nodeID string, cmd *exec.Cmd, waitErr error) error {
	if waitErr == nil {
		return nil
	}
	exitErr, ok := waitErr.(*exec.ExitError)
	if !ok {
		return &errs.SpawnError{NodeID: nodeID, Err: waitErr}
	}
	code := exitErr.ExitCode()
	if code < 0 {
		return &errs.ChildExitError{NodeID: nodeID, Known: false}
	}
	return &errs.ChildExitError{NodeID: nodeID, Code: code, Known: true}
}
