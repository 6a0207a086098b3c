package validate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Euraxluo/dataflow/internal/descriptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckDataflowRejectsMissingSourceNode(t *testing.T) {
	yaml := `
version: "0.1.0"
nodes:
  - id: consumer
    operator:
      shell: "true"
      inputs:
        in: missing-node/out
`
	d, err := descriptor.Parse([]byte(yaml))
	require.NoError(t, err)
	nodes := d.Canonicalize()

	err = CheckDataflow(nodes, t.TempDir(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing-node")
}

func TestCheckDataflowAcceptsValidGraph(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.sh"), []byte("#!/bin/sh\n"), 0o755))

	yaml := `
version: "0.1.0"
nodes:
  - id: producer
    operator:
      shell: "./run.sh"
      outputs:
        - out
  - id: consumer
    operator:
      shell: "./run.sh"
      inputs:
        in: producer/out
`
	d, err := descriptor.Parse([]byte(yaml))
	require.NoError(t, err)
	nodes := d.Canonicalize()

	err = CheckDataflow(nodes, dir, false)
	require.NoError(t, err)
}

func TestCheckDataflowRejectsMissingOutput(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.sh"), []byte("#!/bin/sh\n"), 0o755))

	yaml := `
version: "0.1.0"
nodes:
  - id: producer
    operator:
      shell: "./run.sh"
  - id: consumer
    operator:
      shell: "./run.sh"
      inputs:
        in: producer/missing
`
	d, err := descriptor.Parse([]byte(yaml))
	require.NoError(t, err)
	nodes := d.Canonicalize()

	err = CheckDataflow(nodes, dir, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}
