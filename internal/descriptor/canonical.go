package descriptor

import (
	"os"
	"path/filepath"

	"github.com/Euraxluo/dataflow/internal/ids"
)

// defaultLogFileName is the log file name used when neither a node nor the
// descriptor's global deploy block names one explicitly.
const defaultLogFileName = "log.txt"

// Canonicalize rewrites a raw Descriptor into its canonical NormalNode form:
// every node's single-operator sugar is promoted to the list form, every
// node's deploy block is filled in from the descriptor's global defaults,
// and cross-node input mappings that point at a single-operator node are
// rewritten to address that node's operator directly. This mirrors
// resolve_node_defaults's three-pass structure in the original
// implementation, per spec.md §4.1.
func (d *Descriptor) Canonicalize() []NormalNode {
	nodes := d.resolveOperatorInputsOutput()

	resolved := make([]NormalNode, 0, len(nodes))
	for _, node := range nodes {
		resolved = append(resolved, NormalNode{
			ID:          node.ID,
			Name:        node.Name,
			Description: node.Description,
			Env:         node.Env,
			Deploy:      d.resolveNodeDeployDefaults(node),
			Kind:        resolveNodeToOperators(node),
		})
	}
	return resolved
}

// resolveOperatorInputsOutput rewrites every User input mapping whose
// source addresses a single-operator node so its output reads
// "<node-id>/<output>", matching how that node's operator id defaults to
// the node id once promoted to the list form. It operates on a shallow
// copy of the node list and never mutates the receiver's Nodes.
func (d *Descriptor) resolveOperatorInputsOutput() []Node {
	singleOperatorNodes := make(map[ids.NodeId]bool)
	for _, n := range d.Nodes {
		if n.Kind.IsSingle() {
			singleOperatorNodes[n.ID] = true
		}
	}

	nodes := make([]Node, len(d.Nodes))
	copy(nodes, d.Nodes)

	for i := range nodes {
		node := &nodes[i]
		switch {
		case node.Kind.IsSingle():
			single := *node.Kind.Single
			single.Config.RunConfig.Inputs = append([]InputEntry(nil), single.Config.RunConfig.Inputs...)
			node.Kind.Single = &single
			rewriteInputSources(single.Config.RunConfig.Inputs, singleOperatorNodes)
		case node.Kind.Multiple != nil:
			multi := MultipleOperatorDefinitions{Operators: append([]NormalOperatorDefinition(nil), node.Kind.Multiple.Operators...)}
			for k := range multi.Operators {
				inputs := append([]InputEntry(nil), multi.Operators[k].Config.RunConfig.Inputs...)
				multi.Operators[k].Config.RunConfig.Inputs = inputs
				rewriteInputSources(inputs, singleOperatorNodes)
			}
			node.Kind.Multiple = &multi
		}
	}

	return nodes
}

// rewriteInputSources rewrites, in place, every User input mapping in
// inputs whose source is a single-operator node, so appending to a
// collected-elsewhere slice (as the Multiple case would by ranging over
// operators) never discards the rewrite: callers must pass the operator's
// own Inputs slice directly, not a copy built by append.
func rewriteInputSources(inputs []InputEntry, singleOperatorNodes map[ids.NodeId]bool) {
	for j := range inputs {
		mapping := &inputs[j].Input.Mapping
		if mapping.IsTimer {
			continue
		}
		if singleOperatorNodes[mapping.Source] {
			mapping.Output = ids.DataId(string(mapping.Source) + "/" + string(mapping.Output))
		}
	}
}

// resolveNodeToOperators promotes a node's single-operator sugar form to
// the explicit list form. An unset operator id defaults to the node id.
func resolveNodeToOperators(node Node) MultipleOperatorDefinitions {
	if node.Kind.Multiple != nil {
		return *node.Kind.Multiple
	}

	single := node.Kind.Single
	opID := ids.OperatorId(node.ID)
	if single.ID != nil {
		opID = *single.ID
	}
	return MultipleOperatorDefinitions{
		Operators: []NormalOperatorDefinition{{ID: opID, Config: single.Config}},
	}
}

// resolveNodeDeployDefaults fills in a node's deploy block from the
// descriptor's global deploy block: Endpoints falls back to the global
// value and stays empty when neither block declares any; Log falls back to
// the global value and then to a temp-dir log file, so it is always set;
// Mode and MaxWowkers are carried through from the node as declared.
func (d *Descriptor) resolveNodeDeployDefaults(node Node) Deploy {
	endpoints := node.Deploy.Endpoints
	if len(endpoints) == 0 {
		endpoints = d.Deploy.Endpoints
	}

	log := node.Deploy.Log
	if log == "" {
		log = d.Deploy.Log
	}
	if log == "" {
		log = filepath.Join(os.TempDir(), defaultLogFileName)
	}

	return Deploy{
		Endpoints:  endpoints,
		Mode:       node.Deploy.Mode,
		Log:        log,
		MaxWowkers: node.Deploy.MaxWowkers,
	}
}
