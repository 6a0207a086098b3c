package descriptor

import (
	"fmt"
	"strings"
	"time"

	"github.com/Euraxluo/dataflow/internal/ids"
	"gopkg.in/yaml.v3"
)

// dataflowNodeID is the reserved source name that addresses the built-in
// timer node, per spec.md §3.
const dataflowNodeID = ids.NodeId("dataflow")

// InputMapping is either a Timer mapping (source is the reserved timer
// node, addressed by interval) or a User mapping (source is another node's
// id, output is one of that node's exported data ids).
type InputMapping struct {
	// IsTimer distinguishes the two variants; the zero value is a User
	// mapping with empty fields, which is never valid on its own.
	IsTimer  bool
	Interval time.Duration
	Source   ids.NodeId
	Output   ids.DataId
}

// TimerMapping builds a Timer input mapping for the given interval.
func TimerMapping(interval time.Duration) InputMapping {
	return InputMapping{IsTimer: true, Interval: interval}
}

// UserMapping builds a User input mapping referencing another node's
// output.
func UserMapping(source ids.NodeId, output ids.DataId) InputMapping {
	return InputMapping{Source: source, Output: output}
}

// SourceNode returns the node id this mapping addresses: the reserved
// "dataflow" id for a Timer mapping, or the User mapping's Source.
func (m InputMapping) SourceNode() ids.NodeId {
	if m.IsTimer {
		return dataflowNodeID
	}
	return m.Source
}

// String renders the mapping's canonical display form: "dataflow/timer/<unit>/<value>"
// for a Timer mapping, "<source>/<output>" for a User mapping. After
// canonicalization, Output from a single-operator-promoted source already
// reads "<source>/<data-id>" (its operator id defaults to the node id), so
// that prefix is not repeated here; this mirrors OutputTopic's collapse
// rule so a publisher's topic and a subscriber's topic always agree.
func (m InputMapping) String() string {
	if m.IsTimer {
		return fmt.Sprintf("dataflow/timer/%s", FormattedDuration(m.Interval))
	}
	output := string(m.Output)
	if prefix := string(m.Source) + "/"; strings.HasPrefix(output, prefix) {
		return output
	}
	return fmt.Sprintf("%s/%s", m.Source, m.Output)
}

// ParseInputMapping parses the serialized "<source>/<output>" form,
// recognizing the reserved "dataflow/timer/<unit>/<value>" spelling.
func ParseInputMapping(s string) (InputMapping, error) {
	source, output, ok := strings.Cut(s, "/")
	if !ok {
		return InputMapping{}, fmt.Errorf("input must start with `<source>/`")
	}

	if source != "dataflow" {
		return UserMapping(ids.NodeId(source), ids.DataId(output)), nil
	}

	kind, rest, ok := strings.Cut(output, "/")
	if !ok {
		return InputMapping{}, fmt.Errorf("dataflow input has invalid format")
	}
	if kind != "timer" {
		return InputMapping{}, fmt.Errorf("unknown dataflow input `%s`", kind)
	}
	interval, err := ParseFormattedDuration(rest)
	if err != nil {
		return InputMapping{}, err
	}
	return TimerMapping(interval), nil
}

// MarshalYAML renders the mapping as its display string.
func (m InputMapping) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// UnmarshalYAML parses the mapping from its display string.
func (m *InputMapping) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseInputMapping(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// defaultQueueSize is the default Input.QueueSize, per spec.md §3.
const defaultQueueSize = 10

// Input pairs an InputMapping with the subscriber's queue size.
type Input struct {
	Mapping   InputMapping
	QueueSize int
}

// inputWithOptions is the expanded YAML mapping form:
//
//	tick:
//	  source: dataflow/timer/millis/100
//	  queue_size: 1000
type inputWithOptions struct {
	Source    InputMapping `yaml:"source"`
	QueueSize *int         `yaml:"queue_size"`
}

// MarshalYAML emits the compact scalar form when queue_size is the
// default, and the expanded mapping form otherwise.
func (i Input) MarshalYAML() (interface{}, error) {
	if i.QueueSize == defaultQueueSize {
		return i.Mapping.String(), nil
	}
	qs := i.QueueSize
	return inputWithOptions{Source: i.Mapping, QueueSize: &qs}, nil
}

// UnmarshalYAML accepts both the bare-string form ("counter_1: node/output")
// and the expanded mapping form with an explicit queue_size.
func (i *Input) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var m InputMapping
		if err := value.Decode(&m); err != nil {
			return err
		}
		*i = Input{Mapping: m, QueueSize: defaultQueueSize}
		return nil
	}

	var opts inputWithOptions
	if err := value.Decode(&opts); err != nil {
		return err
	}
	queueSize := defaultQueueSize
	if opts.QueueSize != nil {
		queueSize = *opts.QueueSize
	}
	*i = Input{Mapping: opts.Source, QueueSize: queueSize}
	return nil
}
