package noderuntime

import (
	"context"
	"io"
	"sync"

	"github.com/Euraxluo/dataflow/common/logger"
	"github.com/Euraxluo/dataflow/internal/comm"
	"github.com/Euraxluo/dataflow/internal/descriptor"
	"github.com/Euraxluo/dataflow/internal/errs"
	"github.com/Euraxluo/dataflow/internal/ids"
)

// Runtime is one operator's view of the dataflow graph: it knows the
// node/operator it belongs to, the inputs and outputs that operator
// declared, and the communication layer those are carried over. Grounded
// on original_source/ch4/dataflow/src/runtime/mod.rs's Runtime type.
type Runtime struct {
	nodeID   ids.NodeId
	operator descriptor.NormalOperatorDefinition
	layer    comm.Layer
	log      *logger.Logger
}

// New builds a Runtime for one operator within node.
func New(nodeID ids.NodeId, operator descriptor.NormalOperatorDefinition, layer comm.Layer, log *logger.Logger) *Runtime {
	return &Runtime{
		nodeID:   nodeID,
		operator: operator,
		layer:    layer,
		log:      log.WithNodeID(string(nodeID)).WithOperatorID(string(operator.ID)),
	}
}

// Sender opens a publisher for one of this operator's declared outputs.
func (r *Runtime) Sender(ctx context.Context, dataID ids.DataId) (comm.Publisher, error) {
	topic := descriptor.OutputTopic(r.nodeID, r.operator.ID, dataID)
	r.log.Debug("opening output sender", "data_id", dataID, "topic", topic)
	pub, err := r.layer.Publisher(ctx, string(topic))
	if err != nil {
		return nil, &errs.CommunicationError{Topic: string(topic), Op: "open-publisher", Err: err}
	}
	return pub, nil
}

// SendOutput publishes data under dataID, rejecting data ids this operator
// did not declare as an output.
func (r *Runtime) SendOutput(ctx context.Context, dataID ids.DataId, data []byte) error {
	if !r.operator.Config.RunConfig.HasOutput(dataID) {
		return &errs.UnknownOutput{NodeID: string(r.nodeID), DataID: string(dataID)}
	}
	pub, err := r.Sender(ctx, dataID)
	if err != nil {
		return err
	}
	defer pub.Close()
	if err := pub.Publish(ctx, data); err != nil {
		return &errs.CommunicationError{Topic: string(descriptor.OutputTopic(r.nodeID, r.operator.ID, dataID)), Op: "publish", Err: err}
	}
	return nil
}

// Start subscribes to every declared input and bridges the operator
// process: subscribed messages are forwarded onto stdin as they arrive,
// and lines the process writes to stdout are published under the output
// they name. It blocks until ctx is cancelled or stdout is closed.
func (r *Runtime) Start(ctx context.Context, stdin io.WriteCloser, stdout io.ReadCloser) error {
	inputCtx, stopInputs := context.WithCancel(ctx)
	defer stopInputs()

	var wg sync.WaitGroup
	for _, entry := range r.operator.Config.RunConfig.Inputs {
		entry := entry
		sub, err := r.layer.Subscribe(inputCtx, entry.Input.Mapping.String())
		if err != nil {
			return &errs.CommunicationError{Topic: entry.Input.Mapping.String(), Op: "subscribe", Err: err}
		}
		wg.Add(1)
		go r.forwardInput(inputCtx, &wg, entry.ID, sub, stdin)
	}

	err := scanFrames(stdout, func(id ids.DataId, data []byte) error {
		return r.SendOutput(ctx, id, data)
	})

	stopInputs()
	stdin.Close()
	wg.Wait()
	return err
}

func (r *Runtime) forwardInput(ctx context.Context, wg *sync.WaitGroup, dataID ids.DataId, sub comm.Subscriber, stdin io.Writer) {
	defer wg.Done()
	defer sub.Close()
	for {
		data, ok, err := sub.Recv(ctx)
		if err != nil || !ok {
			if err != nil && ctx.Err() == nil {
				r.log.Error("input subscription failed", "data_id", dataID, "error", err)
			}
			return
		}
		if err := writeFrame(stdin, dataID, data); err != nil {
			r.log.Error("failed to forward input to operator", "data_id", dataID, "error", err)
			return
		}
	}
}
