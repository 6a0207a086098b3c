package supervisor

import (
	"context"
	"fmt"

	"github.com/Euraxluo/dataflow/common/logger"
	"github.com/Euraxluo/dataflow/internal/actuator"
	"github.com/Euraxluo/dataflow/internal/comm"
	"github.com/Euraxluo/dataflow/internal/descriptor"
	"github.com/Euraxluo/dataflow/internal/errs"
	"github.com/Euraxluo/dataflow/internal/ids"
	"github.com/Euraxluo/dataflow/internal/noderuntime"
	"github.com/Euraxluo/dataflow/internal/timer"
)

// StartNode reconstructs the running half of a single node: the reserved
// timer node id runs the timer driver directly (used when a deployment
// chooses to externalize it into its own process); any other id is looked
// up in nodes and has each of its operators actuated and bridged, per
// spec.md §4.7.1.
func StartNode(ctx context.Context, nodeID string, nodes []descriptor.NormalNode, globalDeploy descriptor.Deploy, workingDir string, build bool, log *logger.Logger) error {
	if nodeID == timer.NodeID {
		layer, err := comm.Open(globalDeploy.Mode, globalDeploy.Endpoints, comm.DefaultNamespace, log)
		if err != nil {
			return &errs.CommunicationError{Op: "open timer layer", Err: err}
		}
		defer layer.Close()
		return timer.Start(ctx, nodes, layer, log)
	}

	var node *descriptor.NormalNode
	for i := range nodes {
		if string(nodes[i].ID) == nodeID {
			node = &nodes[i]
			break
		}
	}
	if node == nil {
		return fmt.Errorf("node %q not found in descriptor", nodeID)
	}

	layer, err := comm.Open(node.Deploy.Mode, node.Deploy.Endpoints, comm.DefaultNamespace, log)
	if err != nil {
		return &errs.CommunicationError{Op: "open node layer", Err: err}
	}
	defer layer.Close()

	results := make(chan error, len(node.Kind.Operators))
	for _, op := range node.Kind.Operators {
		op := op
		go func() {
			results <- runOperator(ctx, node.ID, op, layer, workingDir, node.Deploy.Log, build, log)
		}()
	}

	var first error
	for range node.Kind.Operators {
		if err := <-results; err != nil && first == nil {
			first = err
		}
	}
	return first
}

// runOperator actuates one operator's backing process and bridges its
// stdio to the pub/sub layer for the lifetime of that process.
func runOperator(ctx context.Context, nodeID ids.NodeId, op descriptor.NormalOperatorDefinition, layer comm.Layer, workingDir, deployLog string, build bool, log *logger.Logger) error {
	act, err := actuator.New(op, deployLog, build)
	if err != nil {
		return err
	}

	stdin, stdout, err := act.Start(ctx, workingDir)
	if err != nil {
		return &errs.SpawnError{NodeID: string(nodeID), Err: err}
	}

	rt := noderuntime.New(nodeID, op, layer, log)
	runErr := rt.Start(ctx, stdin, stdout)
	waitErr := act.Wait()

	if runErr != nil {
		return runErr
	}
	return waitErr
}
