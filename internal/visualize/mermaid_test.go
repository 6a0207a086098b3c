package visualize

import (
	"testing"

	"github.com/Euraxluo/dataflow/internal/descriptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMermaidRendersSourceAndSink(t *testing.T) {
	yaml := `
version: "0.1.0"
nodes:
  - id: producer
    operator:
      shell: "true"
      outputs:
        - out
  - id: consumer
    operator:
      shell: "true"
      inputs:
        in: producer/out
`
	d, err := descriptor.Parse([]byte(yaml))
	require.NoError(t, err)
	nodes := d.Canonicalize()

	chart := Mermaid(nodes)
	assert.Contains(t, chart, "flowchart TB")
	assert.Contains(t, chart, "producer/producer[\\producer/]")
	assert.Contains(t, chart, "consumer/consumer[/consumer\\]")
	assert.Contains(t, chart, "producer/producer -- out as in --> consumer/consumer")
}

func TestMermaidRendersMissingInput(t *testing.T) {
	yaml := `
version: "0.1.0"
nodes:
  - id: consumer
    operator:
      shell: "true"
      inputs:
        in: ghost/out
`
	d, err := descriptor.Parse([]byte(yaml))
	require.NoError(t, err)
	nodes := d.Canonicalize()

	chart := Mermaid(nodes)
	assert.Contains(t, chart, "missing>missing] -- in --> consumer/consumer")
}
