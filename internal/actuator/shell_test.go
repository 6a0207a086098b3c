package actuator

import (
	"bufio"
	"context"
	"testing"
	"time"

	"github.com/Euraxluo/dataflow/internal/descriptor"
	"github.com/Euraxluo/dataflow/internal/ids"
	"github.com/stretchr/testify/require"
)

func TestShellActuatorRunsAndExitsClean(t *testing.T) {
	op := descriptor.NormalOperatorDefinition{
		ID: ids.OperatorId("echoer"),
		Config: descriptor.OperatorConfig{
			Source: descriptor.OperatorSource{Kind: descriptor.SourceShell, Value: "echo hello"},
		},
	}

	act := newShell(op)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stdin, stdout, err := act.Start(ctx, t.TempDir())
	require.NoError(t, err)
	defer stdin.Close()

	scanner := bufio.NewScanner(stdout)
	require.True(t, scanner.Scan())
	require.Equal(t, "hello", scanner.Text())

	require.NoError(t, act.Wait())
}

func TestShellActuatorReportsNonZeroExit(t *testing.T) {
	op := descriptor.NormalOperatorDefinition{
		ID: ids.OperatorId("failer"),
		Config: descriptor.OperatorConfig{
			Source: descriptor.OperatorSource{Kind: descriptor.SourceShell, Value: "exit 3"},
		},
	}

	act := newShell(op)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, _, err := act.Start(ctx, t.TempDir())
	require.NoError(t, err)

	err = act.Wait()
	require.Error(t, err)
}
