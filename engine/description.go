package engine

import (
	yaml "go.yaml.in/yaml/v3"
)

// Description is the logical workflow description: a named set of
// nodes and the connections wiring their ports together. It is YAML-tagged
// so callers can load it with ParseDescription, or build one
// programmatically and hand it straight to Load.
type Description struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Version     string             `yaml:"version"`
	Config      RunConfig          `yaml:"config"`
	Nodes       []NodeDescription  `yaml:"nodes"`
	Connections []ConnectionDesc   `yaml:"connections"`
}

// RunConfig holds the engine-level knobs a workflow description may set.
//
// StreamTimeoutSeconds is a pointer so an explicit "stream_timeout: 0" in
// YAML (meaning: time out immediately once every outstanding streaming
// task is cancelled) survives applyDefaults distinct from the field being
// absent altogether (meaning: use the 300s default).
type RunConfig struct {
	StreamTimeoutSeconds *float64 `yaml:"stream_timeout"`
	ContinueOnError      bool     `yaml:"continue_on_error"`
}

func (c *RunConfig) applyDefaults() {
	if c.StreamTimeoutSeconds == nil {
		def := defaultStreamTimeoutSeconds
		c.StreamTimeoutSeconds = &def
	}
}

const defaultStreamTimeoutSeconds = 300.0

// NodeDescription declares one node instance.
type NodeDescription struct {
	ID     string         `yaml:"id"`
	Type   string         `yaml:"type"`
	Name   string         `yaml:"name"`
	Config map[string]any `yaml:"config"`
}

// ConnectionDesc declares one edge as "<node_id>.<port_name>" on each side.
type ConnectionDesc struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// ParseDescription decodes a workflow description from YAML and applies
// RunConfig defaults, so Load never has to special-case a zero-value
// stream_timeout.
func ParseDescription(data []byte) (Description, error) {
	var desc Description
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return Description{}, err
	}
	desc.Config.applyDefaults()
	return desc, nil
}
