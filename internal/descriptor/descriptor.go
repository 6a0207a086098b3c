// Package descriptor holds the typed dataflow graph model: the raw,
// user-authored Descriptor and the canonical NormalNode form produced by
// Canonicalize, per spec.md §3 and §4.1.
package descriptor

import (
	"fmt"
	"os"

	"github.com/Euraxluo/dataflow/internal/ids"
	"gopkg.in/yaml.v3"
)

// Descriptor is the top-level, user-authored dataflow document.
type Descriptor struct {
	Version string
	Deploy  Deploy
	Nodes   []Node
}

// Deploy carries deployment settings, either at the descriptor's global
// level or overridden per node. After Canonicalize, every node's Deploy has
// Log populated, and Endpoints populated whenever the node or the global
// block declares any.
type Deploy struct {
	Endpoints []string
	Mode      string
	Log       string
	// MaxWowkers is the original implementation's field name (sic),
	// carried verbatim for compatibility with existing descriptor files;
	// see spec.md §9.
	MaxWowkers int
}

// MaxWorkers is the corrected accessor for the MaxWowkers field.
func (d Deploy) MaxWorkers() int { return d.MaxWowkers }

// hasEndpoints reports whether Endpoints has been set to a non-empty list.
func (d Deploy) hasEndpoints() bool { return len(d.Endpoints) > 0 }

// Node is a declared unit of deployment; it becomes one child process.
type Node struct {
	ID          ids.NodeId
	Name        string
	Description string
	Env         map[string]EnvValue
	Deploy      Deploy
	Kind        NodeKind
}

// NodeKind is either a single inline operator (syntactic sugar) or an
// explicit list of operators. After Canonicalize every node's Kind is
// MultipleOperators.
type NodeKind struct {
	// Single is set when the node was declared with `operator: {...}`.
	Single *SingleOperatorDefinition
	// Multiple is set when the node was declared with `operators: [...]`,
	// and always set after Canonicalize.
	Multiple *MultipleOperatorDefinitions
}

// IsSingle reports whether this is the single-operator sugar form.
func (k NodeKind) IsSingle() bool { return k.Single != nil }

// SingleOperatorDefinition is the `operator:` form: an optional id
// (defaulting to the node id) plus an inline OperatorConfig.
type SingleOperatorDefinition struct {
	ID     *ids.OperatorId
	Config OperatorConfig
}

// NormalOperatorDefinition is one entry of the `operators:` list form: a
// required id plus an inline OperatorConfig.
type NormalOperatorDefinition struct {
	ID     ids.OperatorId
	Config OperatorConfig
}

// MultipleOperatorDefinitions wraps an ordered list of operators.
type MultipleOperatorDefinitions struct {
	Operators []NormalOperatorDefinition
}

// OperatorSourceKind enumerates the five ways an operator's code can be
// obtained, per spec.md §3.
type OperatorSourceKind int

const (
	SourceSharedLibrary OperatorSourceKind = iota
	SourcePythonModule
	SourceWasmModule
	SourceShell
	SourceExeTarget
)

// String returns the kebab-case name of this source kind, e.g. for error
// messages.
func (k OperatorSourceKind) String() string { return k.yamlKey() }

// yamlKey returns the kebab-case YAML field name for this source kind.
func (k OperatorSourceKind) yamlKey() string {
	switch k {
	case SourceSharedLibrary:
		return "shared-library"
	case SourcePythonModule:
		return "python-module"
	case SourceWasmModule:
		return "wasm-module"
	case SourceShell:
		return "shell"
	case SourceExeTarget:
		return "exe-target"
	default:
		return "unknown"
	}
}

// OperatorSource is a tagged value: Kind selects which of the five source
// forms this is, Value holds the path or shell command line.
type OperatorSource struct {
	Kind  OperatorSourceKind
	Value string
}

// String returns the raw source value (e.g. a shell command line), used
// directly by the Shell actuator.
func (s OperatorSource) String() string { return s.Value }

// NodeRunConfig declares an operator's named inputs and outputs.
type NodeRunConfig struct {
	// Inputs preserves descriptor order for deterministic iteration,
	// per spec.md §3.
	Inputs      []InputEntry
	InputsByID  map[ids.DataId]Input
	Outputs     []ids.DataId
	outputIndex map[ids.DataId]bool
}

// InputEntry is one (DataId, Input) pair, kept alongside the insertion
// order of the original mapping.
type InputEntry struct {
	ID    ids.DataId
	Input Input
}

// HasOutput reports whether this run config declares the given output.
func (c NodeRunConfig) HasOutput(id ids.DataId) bool {
	if c.outputIndex != nil {
		return c.outputIndex[id]
	}
	for _, o := range c.Outputs {
		if o == id {
			return true
		}
	}
	return false
}

// InitIndexes rebuilds the lookup indexes HasOutput and InputsByID rely on;
// callers constructing a NodeRunConfig by hand (outside YAML decoding) must
// call it once before use.
func (c *NodeRunConfig) InitIndexes() { c.buildOutputIndex() }

// buildOutputIndex is called after decoding to make HasOutput O(1).
func (c *NodeRunConfig) buildOutputIndex() {
	c.outputIndex = make(map[ids.DataId]bool, len(c.Outputs))
	for _, o := range c.Outputs {
		c.outputIndex[o] = true
	}
	if c.InputsByID == nil {
		c.InputsByID = make(map[ids.DataId]Input, len(c.Inputs))
	}
	for _, e := range c.Inputs {
		c.InputsByID[e.ID] = e.Input
	}
}

// CollectInputTimers returns every timer input entry this run config
// declares, in declaration order; duplicate intervals are not merged.
func (c NodeRunConfig) CollectInputTimers() []InputEntry {
	var out []InputEntry
	for _, e := range c.Inputs {
		if e.Input.Mapping.IsTimer {
			out = append(out, e)
		}
	}
	return out
}

// OperatorConfig is the shared shape of an operator definition, whether
// declared inline (single-operator sugar) or as a list entry.
type OperatorConfig struct {
	Name        string
	Description string
	Args        string
	Envs        map[string]EnvValue
	Source      OperatorSource
	Build       string
	RunConfig   NodeRunConfig
}

// NormalNode is the canonical, post-Canonicalize form of a node: Kind is
// always MultipleOperatorDefinitions.
type NormalNode struct {
	ID          ids.NodeId
	Name        string
	Description string
	Env         map[string]EnvValue
	Deploy      Deploy
	Kind        MultipleOperatorDefinitions
}

// CollectNodeInput gathers every input declared by this node's operators,
// keyed by data id (later operators win on a collision, matching a BTreeMap
// insertion-order merge in the original implementation).
func (n NormalNode) CollectNodeInput() map[ids.DataId]Input {
	out := make(map[ids.DataId]Input)
	for _, op := range n.Kind.Operators {
		for _, e := range op.Config.RunConfig.Inputs {
			out[e.ID] = e.Input
		}
	}
	return out
}

// CollectNodeTimerInput gathers this node's Timer inputs, keyed by the
// timer's canonical topic name (e.g. "millis/100").
func (n NormalNode) CollectNodeTimerInput() map[ids.DataId]Input {
	out := make(map[ids.DataId]Input)
	for _, op := range n.Kind.Operators {
		for _, e := range op.Config.RunConfig.CollectInputTimers() {
			topic := ids.DataId(FormattedDuration(e.Input.Mapping.Interval).String())
			out[topic] = e.Input
		}
	}
	return out
}

// CollectTimerInputFromNodes merges CollectNodeTimerInput across nodes.
func CollectTimerInputFromNodes(nodes []NormalNode) map[ids.DataId]Input {
	out := make(map[ids.DataId]Input)
	for _, n := range nodes {
		for id, in := range n.CollectNodeTimerInput() {
			out[id] = in
		}
	}
	return out
}

// Parse deserializes a Descriptor from YAML bytes.
func Parse(buf []byte) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(buf, &d); err != nil {
		return nil, fmt.Errorf("failed to parse given descriptor: %w", err)
	}
	return &d, nil
}

// ReadFile reads and parses a descriptor from disk.
func ReadFile(path string) (*Descriptor, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open given file: %w", err)
	}
	return Parse(buf)
}

// Marshal serializes a Descriptor back to YAML, e.g. for the
// DATAFLOW_DESCRIPTION environment variable.
func Marshal(d *Descriptor) ([]byte, error) {
	return yaml.Marshal(d)
}
