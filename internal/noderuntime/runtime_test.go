package noderuntime

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/Euraxluo/dataflow/common/logger"
	"github.com/Euraxluo/dataflow/internal/comm"
	"github.com/Euraxluo/dataflow/internal/descriptor"
	"github.com/Euraxluo/dataflow/internal/ids"
	"github.com/stretchr/testify/require"
)

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func TestSendOutputRejectsUndeclaredOutput(t *testing.T) {
	layer := comm.NewMemoryLayer("app", logger.New("error", "text"))
	defer layer.Close()

	op := descriptor.NormalOperatorDefinition{
		ID: ids.OperatorId("agg"),
		Config: descriptor.OperatorConfig{
			RunConfig: descriptor.NodeRunConfig{Outputs: []ids.DataId{"total"}},
		},
	}
	op.Config.RunConfig.InitIndexes()

	rt := New(ids.NodeId("agg"), op, layer, logger.New("error", "text"))
	err := rt.SendOutput(context.Background(), ids.DataId("bogus"), []byte("x"))
	require.Error(t, err)
}

func TestRuntimeForwardsPublishedOutput(t *testing.T) {
	layer := comm.NewMemoryLayer("app", logger.New("error", "text"))
	defer layer.Close()

	op := descriptor.NormalOperatorDefinition{
		ID: ids.OperatorId("agg"),
		Config: descriptor.OperatorConfig{
			RunConfig: descriptor.NodeRunConfig{Outputs: []ids.DataId{"total"}},
		},
	}
	op.Config.RunConfig.InitIndexes()

	rt := New(ids.NodeId("agg"), op, layer, logger.New("error", "text"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sub, err := layer.Subscribe(ctx, "agg/total")
	require.NoError(t, err)
	defer sub.Close()

	var stdoutBuf bytes.Buffer
	frame, err := encodeFrame("total", []byte("99"))
	require.NoError(t, err)
	stdoutBuf.Write(frame)

	var stdinBuf bytes.Buffer
	done := make(chan error, 1)
	go func() {
		done <- rt.Start(ctx, nopCloser{&stdinBuf}, io.NopCloser(&stdoutBuf))
	}()

	data, ok, err := sub.Recv(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "99", string(data))

	<-done
}
