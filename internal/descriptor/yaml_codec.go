package descriptor

import (
	"fmt"

	"github.com/Euraxluo/dataflow/internal/ids"
	"gopkg.in/yaml.v3"
)

// kv is one (key, value-node) pair from a YAML mapping node, in document
// order — used wherever field order is semantically meaningful (operator
// input declarations).
type kv struct {
	key  string
	node *yaml.Node
}

// mappingPairs returns a mapping node's (key, value) pairs in document
// order.
func mappingPairs(node *yaml.Node) ([]kv, error) {
	resolved := resolveAlias(node)
	if resolved.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("expected a YAML mapping, got %v", resolved.Kind)
	}
	pairs := make([]kv, 0, len(resolved.Content)/2)
	for i := 0; i+1 < len(resolved.Content); i += 2 {
		var key string
		if err := resolved.Content[i].Decode(&key); err != nil {
			return nil, fmt.Errorf("failed to decode mapping key: %w", err)
		}
		pairs = append(pairs, kv{key: key, node: resolved.Content[i+1]})
	}
	return pairs, nil
}

func resolveAlias(node *yaml.Node) *yaml.Node {
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		return node.Alias
	}
	return node
}

// newMapNode builds a YAML mapping node preserving the given key order.
func newMapNode(pairs ...mapEntry) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, p := range pairs {
		if p.omitEmpty && p.isEmpty {
			continue
		}
		keyNode := &yaml.Node{}
		if err := keyNode.Encode(p.key); err != nil {
			return nil, err
		}
		valNode := &yaml.Node{}
		if err := valNode.Encode(p.value); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, keyNode, valNode)
	}
	return node, nil
}

type mapEntry struct {
	key       string
	value     interface{}
	omitEmpty bool
	isEmpty   bool
}

func entry(key string, value interface{}) mapEntry {
	return mapEntry{key: key, value: value}
}

func optionalEntry(key string, value interface{}, empty bool) mapEntry {
	return mapEntry{key: key, value: value, omitEmpty: true, isEmpty: empty}
}

// --- Deploy -----------------------------------------------------------

var deployFields = map[string]bool{"endpoints": true, "mode": true, "log": true, "max_wowkers": true}

func (d *Deploy) UnmarshalYAML(value *yaml.Node) error {
	pairs, err := mappingPairs(value)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		if !deployFields[p.key] {
			return fmt.Errorf("unknown field `%s` in deploy", p.key)
		}
		switch p.key {
		case "endpoints":
			if err := p.node.Decode(&d.Endpoints); err != nil {
				return err
			}
		case "mode":
			if err := p.node.Decode(&d.Mode); err != nil {
				return err
			}
		case "log":
			if err := p.node.Decode(&d.Log); err != nil {
				return err
			}
		case "max_wowkers":
			if err := p.node.Decode(&d.MaxWowkers); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d Deploy) MarshalYAML() (interface{}, error) {
	return newMapNode(
		optionalEntry("endpoints", d.Endpoints, len(d.Endpoints) == 0),
		optionalEntry("mode", d.Mode, d.Mode == ""),
		optionalEntry("log", d.Log, d.Log == ""),
		optionalEntry("max_wowkers", d.MaxWowkers, d.MaxWowkers == 0),
	)
}

// --- Descriptor ---------------------------------------------------------

var descriptorFields = map[string]bool{"version": true, "deploy": true, "nodes": true}

func (d *Descriptor) UnmarshalYAML(value *yaml.Node) error {
	pairs, err := mappingPairs(value)
	if err != nil {
		return err
	}
	for _, p := range pairs {
		if !descriptorFields[p.key] {
			return fmt.Errorf("unknown field `%s` in descriptor", p.key)
		}
		switch p.key {
		case "version":
			if err := p.node.Decode(&d.Version); err != nil {
				return err
			}
		case "deploy":
			if err := p.node.Decode(&d.Deploy); err != nil {
				return err
			}
		case "nodes":
			if err := p.node.Decode(&d.Nodes); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d Descriptor) MarshalYAML() (interface{}, error) {
	return newMapNode(
		entry("version", d.Version),
		entry("deploy", d.Deploy),
		entry("nodes", d.Nodes),
	)
}

// --- Node -----------------------------------------------------------

func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	pairs, err := mappingPairs(value)
	if err != nil {
		return err
	}

	var operatorPairs, operatorsPairs []kv
	haveOperator, haveOperators := false, false

	for _, p := range pairs {
		switch p.key {
		case "id":
			var id string
			if err := p.node.Decode(&id); err != nil {
				return err
			}
			n.ID = ids.NodeId(id)
		case "name":
			if err := p.node.Decode(&n.Name); err != nil {
				return err
			}
		case "description":
			if err := p.node.Decode(&n.Description); err != nil {
				return err
			}
		case "env":
			n.Env = map[string]EnvValue{}
			if err := p.node.Decode(&n.Env); err != nil {
				return err
			}
		case "deploy":
			if err := p.node.Decode(&n.Deploy); err != nil {
				return err
			}
		case "operator":
			haveOperator = true
			operatorPairs, err = mappingPairs(p.node)
			if err != nil {
				return err
			}
		case "operators":
			haveOperators = true
			operatorsPairs = []kv{{key: "operators", node: p.node}}
		default:
			return fmt.Errorf("unknown field `%s` in node `%s`", p.key, n.ID)
		}
	}

	switch {
	case haveOperator && haveOperators:
		return fmt.Errorf("node `%s` must declare exactly one of `operator` or `operators`", n.ID)
	case haveOperator:
		var idPtr *ids.OperatorId
		var idPairs []kv
		for _, p := range operatorPairs {
			if p.key == "id" {
				var raw string
				if err := p.node.Decode(&raw); err != nil {
					return err
				}
				v := ids.OperatorId(raw)
				idPtr = &v
				continue
			}
			idPairs = append(idPairs, p)
		}
		cfg, err := decodeOperatorFields(idPairs)
		if err != nil {
			return fmt.Errorf("node `%s`: %w", n.ID, err)
		}
		n.Kind = NodeKind{Single: &SingleOperatorDefinition{ID: idPtr, Config: cfg}}
	case haveOperators:
		var multi MultipleOperatorDefinitions
		if err := operatorsPairs[0].node.Decode(&multi.Operators); err != nil {
			return fmt.Errorf("node `%s`: %w", n.ID, err)
		}
		n.Kind = NodeKind{Multiple: &multi}
	default:
		return fmt.Errorf("node `%s` must declare `operator` or `operators`", n.ID)
	}

	return nil
}

func (n Node) MarshalYAML() (interface{}, error) {
	base := []mapEntry{
		entry("id", n.ID),
		optionalEntry("name", n.Name, n.Name == ""),
		optionalEntry("description", n.Description, n.Description == ""),
		optionalEntry("env", n.Env, len(n.Env) == 0),
		entry("deploy", n.Deploy),
	}
	if n.Kind.IsSingle() {
		opNode, err := n.Kind.Single.Config.toMapEntries()
		if err != nil {
			return nil, err
		}
		if n.Kind.Single.ID != nil {
			opNode = append([]mapEntry{entry("id", *n.Kind.Single.ID)}, opNode...)
		}
		inner, err := newMapNode(opNode...)
		if err != nil {
			return nil, err
		}
		base = append(base, entry("operator", inner))
	} else if n.Kind.Multiple != nil {
		base = append(base, entry("operators", n.Kind.Multiple.Operators))
	}
	return newMapNode(base...)
}

// --- NormalOperatorDefinition --------------------------------------------

func (o *NormalOperatorDefinition) UnmarshalYAML(value *yaml.Node) error {
	pairs, err := mappingPairs(value)
	if err != nil {
		return err
	}
	var rest []kv
	found := false
	for _, p := range pairs {
		if p.key == "id" {
			var id string
			if err := p.node.Decode(&id); err != nil {
				return err
			}
			o.ID = ids.OperatorId(id)
			found = true
			continue
		}
		rest = append(rest, p)
	}
	if !found {
		return fmt.Errorf("operator list entry is missing `id`")
	}
	cfg, err := decodeOperatorFields(rest)
	if err != nil {
		return fmt.Errorf("operator `%s`: %w", o.ID, err)
	}
	o.Config = cfg
	return nil
}

func (o NormalOperatorDefinition) MarshalYAML() (interface{}, error) {
	entries := append([]mapEntry{entry("id", o.ID)}, mustEntries(o.Config.toMapEntries())...)
	return newMapNode(entries...)
}

func mustEntries(entries []mapEntry, err error) []mapEntry {
	if err != nil {
		// toMapEntries never actually fails for a well-formed OperatorConfig;
		// a failure here is a programmer error rather than a data error, so
		// it panics instead of threading the error through the call sites.
		panic(err)
	}
	return entries
}

// --- OperatorConfig -------------------------------------------------------

func sourceKindForKey(key string) (OperatorSourceKind, bool) {
	switch key {
	case "shared-library":
		return SourceSharedLibrary, true
	case "python-module":
		return SourcePythonModule, true
	case "wasm-module":
		return SourceWasmModule, true
	case "shell":
		return SourceShell, true
	case "exe-target":
		return SourceExeTarget, true
	default:
		return 0, false
	}
}

func decodeOperatorFields(pairs []kv) (OperatorConfig, error) {
	var cfg OperatorConfig
	foundSource := false
	var inputEntries []InputEntry

	for _, p := range pairs {
		if kind, ok := sourceKindForKey(p.key); ok {
			if foundSource {
				return cfg, fmt.Errorf("operator declares more than one source")
			}
			foundSource = true
			var v string
			if err := p.node.Decode(&v); err != nil {
				return cfg, err
			}
			cfg.Source = OperatorSource{Kind: kind, Value: v}
			continue
		}
		switch p.key {
		case "name":
			if err := p.node.Decode(&cfg.Name); err != nil {
				return cfg, err
			}
		case "description":
			if err := p.node.Decode(&cfg.Description); err != nil {
				return cfg, err
			}
		case "args":
			if err := p.node.Decode(&cfg.Args); err != nil {
				return cfg, err
			}
		case "build":
			if err := p.node.Decode(&cfg.Build); err != nil {
				return cfg, err
			}
		case "envs":
			cfg.Envs = map[string]EnvValue{}
			if err := p.node.Decode(&cfg.Envs); err != nil {
				return cfg, err
			}
		case "inputs":
			entries, err := decodeOrderedInputs(p.node)
			if err != nil {
				return cfg, err
			}
			inputEntries = entries
		case "outputs":
			if err := p.node.Decode(&cfg.RunConfig.Outputs); err != nil {
				return cfg, err
			}
		default:
			return cfg, fmt.Errorf("unknown operator field `%s`", p.key)
		}
	}

	if !foundSource {
		return cfg, fmt.Errorf("operator must declare exactly one source " +
			"(shared-library, python-module, wasm-module, shell, or exe-target)")
	}

	cfg.RunConfig.Inputs = inputEntries
	cfg.RunConfig.buildOutputIndex()
	return cfg, nil
}

func decodeOrderedInputs(node *yaml.Node) ([]InputEntry, error) {
	pairs, err := mappingPairs(node)
	if err != nil {
		return nil, err
	}
	entries := make([]InputEntry, 0, len(pairs))
	for _, p := range pairs {
		var input Input
		if err := p.node.Decode(&input); err != nil {
			return nil, fmt.Errorf("input `%s`: %w", p.key, err)
		}
		entries = append(entries, InputEntry{ID: ids.DataId(p.key), Input: input})
	}
	return entries, nil
}

// toMapEntries renders an OperatorConfig's fields as ordered map entries,
// for embedding into an `operator:`/`operators:` YAML node.
func (c OperatorConfig) toMapEntries() ([]mapEntry, error) {
	inputsNode, err := encodeOrderedInputs(c.RunConfig.Inputs)
	if err != nil {
		return nil, err
	}
	return []mapEntry{
		optionalEntry("name", c.Name, c.Name == ""),
		optionalEntry("description", c.Description, c.Description == ""),
		optionalEntry("args", c.Args, c.Args == ""),
		optionalEntry("envs", c.Envs, len(c.Envs) == 0),
		entry(c.Source.Kind.yamlKey(), c.Source.Value),
		optionalEntry("build", c.Build, c.Build == ""),
		optionalEntry("inputs", inputsNode, len(c.RunConfig.Inputs) == 0),
		optionalEntry("outputs", c.RunConfig.Outputs, len(c.RunConfig.Outputs) == 0),
	}, nil
}

func encodeOrderedInputs(entries []InputEntry) (*yaml.Node, error) {
	pairs := make([]mapEntry, 0, len(entries))
	for _, e := range entries {
		pairs = append(pairs, entry(string(e.ID), e.Input))
	}
	return newMapNode(pairs...)
}
