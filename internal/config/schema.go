package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML structure.
type Config struct {
	Engine        EngineConf `yaml:"engine" json:"engine"`
	DropUnmatched bool       `yaml:"drop_unmatched" json:"drop_unmatched"`
	Definitions   []EventDef `yaml:"definitions" json:"definitions"`
}

// EngineConf holds tunable concurrency settings for the conversion workers.
type EngineConf struct {
	Workers          int `yaml:"workers" json:"workers"`
	QueueDepth       int `yaml:"queue_depth" json:"queue_depth"`
	ConvertTimeoutMs int `yaml:"convert_timeout_ms" json:"convert_timeout_ms"`
}

// EventDef is one declarative event definition. Order in the definitions list
// is significant: a notification is converted by the FIRST definition whose
// event_type patterns match.
type EventDef struct {
	// EventType holds shell-glob patterns; a '!' prefix marks an exclusion.
	EventType StringList `yaml:"event_type" json:"event_type"`
	// Traits maps trait names to their extractors, merged over the defaults.
	// A nil map means the key was absent, which is a definition error.
	Traits map[string]TraitDef `yaml:"traits" json:"traits"`
}

// TraitDef declares one trait extractor.
type TraitDef struct {
	// Type is one of "text", "int", "float", "datetime"; empty means "text".
	Type string `yaml:"type" json:"type,omitempty"`
	// Fields is one or more path expressions tried in order; the trait value
	// comes from the first that resolves to a non-null field.
	Fields StringList `yaml:"fields" json:"fields"`
}

// StringList accepts either a single YAML scalar or a sequence of scalars,
// so `event_type: compute.instance.*` and `event_type: ["*.start", "*.end"]`
// are both valid.
type StringList []string

func (s *StringList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var one string
		if err := value.Decode(&one); err != nil {
			return err
		}
		*s = StringList{one}
	case yaml.SequenceNode:
		var many []string
		if err := value.Decode(&many); err != nil {
			return err
		}
		*s = many
	default:
		return fmt.Errorf("line %d: expected a string or a list of strings", value.Line)
	}
	return nil
}
