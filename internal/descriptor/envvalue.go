package descriptor

import (
	"os"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// EnvValueKind distinguishes EnvValue's three variants.
type EnvValueKind int

const (
	EnvBool EnvValueKind = iota
	EnvInteger
	EnvString
)

// EnvValue holds a node or operator environment variable value. Values are
// expanded against the process environment (`${NAME}` references) at parse
// time, then classified as Bool, Integer, or String — in that order of
// preference, per spec.md §3.
type EnvValue struct {
	Kind    EnvValueKind
	Bool    bool
	Integer uint64
	Str     string
}

// String renders the value the way it would appear on a spawned operator's
// environment.
func (v EnvValue) String() string {
	switch v.Kind {
	case EnvBool:
		return strconv.FormatBool(v.Bool)
	case EnvInteger:
		return strconv.FormatUint(v.Integer, 10)
	default:
		return v.Str
	}
}

var envRefPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvRefs expands every `${NAME}` reference against the process
// environment; an unset variable expands to the empty string, matching the
// original implementation's serde_with_expand_env behavior.
func expandEnvRefs(s string) string {
	return envRefPattern.ReplaceAllStringFunc(s, func(ref string) string {
		name := envRefPattern.FindStringSubmatch(ref)[1]
		return os.Getenv(name)
	})
}

// MarshalYAML renders the classified value back to YAML using its native
// type, so Bool/Integer/String values round-trip without re-quoting.
func (v EnvValue) MarshalYAML() (interface{}, error) {
	switch v.Kind {
	case EnvBool:
		return v.Bool, nil
	case EnvInteger:
		return v.Integer, nil
	default:
		return v.Str, nil
	}
}

// UnmarshalYAML expands ${NAME} references in the raw scalar text, then
// classifies the expanded text as Bool, Integer, or String.
func (v *EnvValue) UnmarshalYAML(value *yaml.Node) error {
	raw := value.Value
	expanded := expandEnvRefs(raw)

	if b, err := strconv.ParseBool(expanded); err == nil {
		*v = EnvValue{Kind: EnvBool, Bool: b}
		return nil
	}
	if n, err := strconv.ParseUint(expanded, 10, 64); err == nil {
		*v = EnvValue{Kind: EnvInteger, Integer: n}
		return nil
	}
	*v = EnvValue{Kind: EnvString, Str: expanded}
	return nil
}
