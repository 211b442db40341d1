package nodes

import (
	"context"

	"github.com/alt-coder/dataflow-engine/core"
)

// StartNode seeds a run's data flow from static config, optionally
// overridden by an initial_data value input and merged with a named
// global variable.
type StartNode struct {
	*core.BaseNode
}

func newStartNode(id string, rawConfig map[string]any) (core.Node, error) {
	inputs := map[string]*core.Port{
		"initial_data": core.NewPort("initial_data", core.DirIn, core.Struct(core.KindValue, map[string]core.Tag{
			"data":       core.TagAny,
			"global_var": core.TagString,
		})),
	}
	outputs := map[string]*core.Port{
		"output": core.NewPort("output", core.DirOut, core.Struct(core.KindValue, map[string]core.Tag{
			"data":       core.TagAny,
			"source":     core.TagString,
			"global_var": core.TagAny,
		})),
	}
	return &StartNode{BaseNode: core.NewBaseNode(id, "start_node", core.ModeSequential, rawConfig, inputs, outputs)}, nil
}

func (n *StartNode) Run(ctx context.Context, x *core.Context) (any, error) {
	data := n.GetConfig("data", nil)
	globalVarKey := asString(n.GetConfig("global_var", ""), "")
	source := "config"

	if n.Inputs()["initial_data"].HasValue() {
		if v, err := n.GetValue("initial_data"); err == nil {
			in := asMap(v)
			if d, ok := in["data"]; ok {
				data = d
			}
			if gv, ok := in["global_var"].(string); ok && gv != "" {
				globalVarKey = gv
			}
			source = "initial_data"
		}
	}

	if globalVarKey != "" {
		merged := asMap(data)
		globalVal := asMap(x.GetGlobalVar(globalVarKey, map[string]any{}))
		for k, v := range globalVal {
			merged[k] = v
		}
		data = merged
		source = "global_var"
	}

	out := map[string]any{"data": data, "source": source, "global_var": globalVarKey}
	if err := n.SetValue("output", out); err != nil {
		return nil, err
	}
	x.LogEvent("INFO", n.ID(), "start node produced initial data")
	return out, nil
}

func init() {
	core.RegisterType("start_node", newStartNode)
}
