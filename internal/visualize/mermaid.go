// Package visualize renders a canonicalized dataflow graph as a mermaid
// flowchart, grounded on
// original_source/ch3/src/descriptor/mermaid.rs's visualize_nodes.
package visualize

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Euraxluo/dataflow/internal/descriptor"
	"github.com/Euraxluo/dataflow/internal/ids"
)

// Mermaid renders nodes as a "flowchart TB" document: one subgraph per
// node containing its operators, a "dataflow" subgraph for the timer
// intervals the graph uses, and an edge per input mapping.
func Mermaid(nodes []descriptor.NormalNode) string {
	var b strings.Builder
	b.WriteString("flowchart TB\n")

	byID := make(map[ids.NodeId]descriptor.NormalNode, len(nodes))
	for _, n := range nodes {
		visualizeNode(&b, n)
		byID[n.ID] = n
	}

	writeTimerSubgraph(&b, nodes)

	for _, n := range nodes {
		visualizeNodeInputs(&b, n, byID)
	}

	return b.String()
}

func visualizeNode(b *strings.Builder, node descriptor.NormalNode) {
	fmt.Fprintf(b, "subgraph %s\n", node.ID)
	for _, op := range node.Kind.Operators {
		shape := nodeShape(op)
		fmt.Fprintf(b, "  %s/%s%s\n", node.ID, op.ID, shape)
	}
	b.WriteString("end\n")
}

// nodeShape picks mermaid's source/sink/normal node shape based on whether
// the operator has declared inputs and/or outputs.
func nodeShape(op descriptor.NormalOperatorDefinition) string {
	hasInputs := len(op.Config.RunConfig.Inputs) > 0
	hasOutputs := len(op.Config.RunConfig.Outputs) > 0
	switch {
	case !hasInputs:
		return fmt.Sprintf("[\\%s/]", op.ID)
	case !hasOutputs:
		return fmt.Sprintf("[/%s\\]", op.ID)
	default:
		return fmt.Sprintf("[%s]", op.ID)
	}
}

func writeTimerSubgraph(b *strings.Builder, nodes []descriptor.NormalNode) {
	timers := descriptor.CollectTimerInputFromNodes(nodes)
	if len(timers) == 0 {
		return
	}

	intervals := make([]string, 0, len(timers))
	for _, input := range timers {
		intervals = append(intervals, descriptor.FormattedDuration(input.Mapping.Interval).String())
	}
	sort.Strings(intervals)

	b.WriteString("subgraph ___dataflow___ [dataflow]\n")
	b.WriteString("  subgraph ___timer_timer___ [timer]\n")
	for _, duration := range intervals {
		fmt.Fprintf(b, "    dataflow/timer/%s[\\%s/]\n", duration, duration)
	}
	b.WriteString("  end\n")
	b.WriteString("end\n")
}

func visualizeNodeInputs(b *strings.Builder, node descriptor.NormalNode, byID map[ids.NodeId]descriptor.NormalNode) {
	for _, op := range node.Kind.Operators {
		target := fmt.Sprintf("%s/%s", node.ID, op.ID)
		for _, entry := range op.Config.RunConfig.Inputs {
			if entry.Input.Mapping.IsTimer {
				fmt.Fprintf(b, "  %s -- %s --> %s\n", entry.Input.Mapping.String(), entry.ID, target)
				continue
			}
			visualizeUserMapping(b, entry.Input.Mapping, entry.ID, target, byID)
		}
	}
}

func visualizeUserMapping(b *strings.Builder, mapping descriptor.InputMapping, inputID ids.DataId, target string, byID map[ids.NodeId]descriptor.NormalNode) {
	sourceNode, ok := byID[mapping.Source]
	if ok {
		operatorID, output, found := strings.Cut(string(mapping.Output), "/")
		if !found {
			operatorID, output = "", string(mapping.Output)
		}
		for _, op := range sourceNode.Kind.Operators {
			if string(op.ID) != operatorID {
				continue
			}
			if op.Config.RunConfig.HasOutput(ids.DataId(output)) {
				label := output
				if output != string(inputID) {
					label = fmt.Sprintf("%s as %s", output, inputID)
				}
				fmt.Fprintf(b, "  %s/%s -- %s --> %s\n", mapping.Source, operatorID, label, target)
				return
			}
		}
	}
	fmt.Fprintf(b, "  missing>missing] -- %s --> %s\n", inputID, target)
}
