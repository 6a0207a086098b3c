package descriptor

import (
	"testing"
	"time"

	"github.com/Euraxluo/dataflow/internal/ids"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func yamlScalarNode(t *testing.T, value string) *yaml.Node {
	t.Helper()
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(value), &doc))
	require.Len(t, doc.Content, 1)
	return doc.Content[0]
}

const sampleYAML = `
version: "0.1.0"
deploy:
  endpoints:
    - "127.0.0.1:7447"
  mode: redis
nodes:
  - id: counter-source
    operator:
      shell: "./counter.sh"
      outputs:
        - counter
  - id: aggregator
    operators:
      - id: sum
        exe-target: "./aggregate"
        inputs:
          counter_1: counter-source/counter
          tick:
            source: dataflow/timer/millis/100
            queue_size: 1000
        outputs:
          - total
`

func TestParseAndCanonicalize(t *testing.T) {
	d, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	require.Equal(t, "0.1.0", d.Version)
	require.Len(t, d.Nodes, 2)

	require.True(t, d.Nodes[0].Kind.IsSingle())
	require.Equal(t, OperatorSourceKind(SourceShell), d.Nodes[0].Kind.Single.Config.Source.Kind)

	resolved := d.Canonicalize()
	require.Len(t, resolved, 2)

	source := resolved[0]
	assert.Equal(t, ids.NodeId("counter-source"), source.ID)
	assert.Len(t, source.Kind.Operators, 1)
	assert.Equal(t, ids.OperatorId("counter-source"), source.Kind.Operators[0].ID)
	assert.Equal(t, []string{"127.0.0.1:7447"}, source.Deploy.Endpoints)
	assert.NotEmpty(t, source.Deploy.Log)

	agg := resolved[1]
	inputs := agg.CollectNodeInput()
	require.Contains(t, inputs, ids.DataId("counter_1"))
	assert.Equal(t, ids.DataId("counter-source/counter"), inputs["counter_1"].Mapping.Output)

	timers := agg.CollectNodeTimerInput()
	require.Contains(t, timers, ids.DataId("millis/100"))
	assert.Equal(t, 1000, timers["millis/100"].QueueSize)
}

func TestCanonicalizeIsIdempotentOnFields(t *testing.T) {
	d, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	first := d.Canonicalize()
	second := d.Canonicalize()
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Deploy, second[i].Deploy)
	}
}

func TestSingleOperatorPromotionDefaultsIDToNodeID(t *testing.T) {
	d, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	resolved := d.Canonicalize()
	assert.Equal(t, ids.OperatorId(resolved[0].ID), resolved[0].Kind.Operators[0].ID)
}

func TestFormattedDurationRoundTrip(t *testing.T) {
	cases := []struct {
		dur  time.Duration
		want string
	}{
		{5 * time.Second, "secs/5"},
		{100 * time.Millisecond, "millis/100"},
		{1500 * time.Millisecond, "millis/1500"},
	}
	for _, c := range cases {
		got := FormattedDuration(c.dur).String()
		assert.Equal(t, c.want, got)
		parsed, err := ParseFormattedDuration(got)
		require.NoError(t, err)
		assert.Equal(t, c.dur, parsed)
	}
}

func TestInputMappingRoundTrip(t *testing.T) {
	timer := TimerMapping(250 * time.Millisecond)
	assert.Equal(t, "dataflow/timer/millis/250", timer.String())
	parsed, err := ParseInputMapping(timer.String())
	require.NoError(t, err)
	assert.Equal(t, timer, parsed)

	user := UserMapping(ids.NodeId("n1"), ids.DataId("out1"))
	assert.Equal(t, "n1/out1", user.String())
	parsedUser, err := ParseInputMapping(user.String())
	require.NoError(t, err)
	assert.Equal(t, user, parsedUser)
}

func TestEnvValueExpandsBeforeClassifying(t *testing.T) {
	t.Setenv("DATAFLOW_TEST_FLAG", "true")
	var v EnvValue
	node := yamlScalarNode(t, "${DATAFLOW_TEST_FLAG}")
	require.NoError(t, v.UnmarshalYAML(node))
	assert.Equal(t, EnvBool, v.Kind)
	assert.True(t, v.Bool)
}

func TestDeployDenyUnknownFields(t *testing.T) {
	_, err := Parse([]byte(`
version: "0.1.0"
deploy:
  bogus_field: 1
nodes: []
`))
	require.Error(t, err)
}

func TestNodeRequiresExactlyOneOperatorForm(t *testing.T) {
	_, err := Parse([]byte(`
version: "0.1.0"
nodes:
  - id: broken
`))
	require.Error(t, err)
}
