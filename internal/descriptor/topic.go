package descriptor

import "github.com/Euraxluo/dataflow/internal/ids"

// OutputTopic computes the canonical publish topic for one operator's
// output: "<node>/<output>" when the operator id defaults to the node id
// (the single-operator sugar form), or "<node>/<operator>/<output>"
// otherwise. Consumers address the same value through an InputMapping's
// User form, so the two sides always agree without further negotiation.
func OutputTopic(node ids.NodeId, operator ids.OperatorId, output ids.DataId) ids.DataId {
	if string(operator) == string(node) {
		return ids.DataId(string(node) + "/" + string(output))
	}
	return ids.DataId(string(node) + "/" + string(operator) + "/" + string(output))
}
