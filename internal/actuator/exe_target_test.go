package actuator

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Euraxluo/dataflow/internal/descriptor"
	"github.com/Euraxluo/dataflow/internal/ids"
	"github.com/stretchr/testify/require"
)

const echoScript = "#!/bin/sh\necho ran\n"

func writeExecutable(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(echoScript), 0o755))
	return path
}

func TestExeTargetRunsLocalExecutable(t *testing.T) {
	dir := t.TempDir()
	writeExecutable(t, dir, "runner")

	op := descriptor.NormalOperatorDefinition{
		ID: ids.OperatorId("runner"),
		Config: descriptor.OperatorConfig{
			Source: descriptor.OperatorSource{Kind: descriptor.SourceExeTarget, Value: "./runner"},
		},
	}

	act := newExeTarget(op, false)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, stdout, err := act.Start(ctx, dir)
	require.NoError(t, err)

	scanner := bufio.NewScanner(stdout)
	require.True(t, scanner.Scan())
	require.Equal(t, "ran", scanner.Text())
	require.NoError(t, act.Wait())
}

func TestExeTargetRunsBuildCommandBeforeStarting(t *testing.T) {
	dir := t.TempDir()

	op := descriptor.NormalOperatorDefinition{
		ID: ids.OperatorId("built"),
		Config: descriptor.OperatorConfig{
			Source: descriptor.OperatorSource{Kind: descriptor.SourceExeTarget, Value: "./built"},
			Build:  "cp source.sh built && chmod +x built",
		},
	}
	writeExecutable(t, dir, "source.sh")

	act := newExeTarget(op, true)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, stdout, err := act.Start(ctx, dir)
	require.NoError(t, err)

	scanner := bufio.NewScanner(stdout)
	require.True(t, scanner.Scan())
	require.Equal(t, "ran", scanner.Text())
	require.NoError(t, act.Wait())
}
