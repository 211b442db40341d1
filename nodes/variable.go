package nodes

import (
	"context"

	"github.com/alt-coder/dataflow-engine/core"
)

// VariableNode seeds context globals from its config: Run copies every
// top-level key of the resolved config into the globals and returns an
// empty map, since the whole point is the side effect available to every
// node scheduled after it.
type VariableNode struct {
	*core.BaseNode
}

func newVariableNode(id string, rawConfig map[string]any) (core.Node, error) {
	return &VariableNode{
		BaseNode: core.NewBaseNode(id, "variable_node", core.ModeSequential, rawConfig, nil, nil),
	}, nil
}

func (n *VariableNode) Run(ctx context.Context, x *core.Context) (any, error) {
	for k, v := range n.ResolvedConfig() {
		x.SetGlobalVar(k, v)
		x.LogEvent("INFO", n.ID(), "set global variable "+k)
	}
	return map[string]any{}, nil
}

func init() {
	core.RegisterType("variable_node", newVariableNode)
}
