package comm

import (
	"fmt"

	"github.com/Euraxluo/dataflow/common/logger"
)

// DefaultNamespace is the topic prefix every node in a single launch
// shares, so the supervisor's timer and every spawned child agree on the
// same wire-level topic space without further configuration.
const DefaultNamespace = "dataflow"

// Open builds the CommunicationLayer named by mode ("redis" or "local"),
// per spec.md's Deploy.Mode field.
func Open(mode string, endpoints []string, namespace string, log *logger.Logger) (Layer, error) {
	switch mode {
	case "redis":
		return NewRedisLayer(endpoints, namespace, log)
	case "local", "":
		return NewMemoryLayer(namespace, log), nil
	default:
		return nil, fmt.Errorf("unknown communication mode %q", mode)
	}
}
