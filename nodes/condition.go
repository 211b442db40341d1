package nodes

import (
	"context"

	"github.com/alt-coder/dataflow-engine/core"
)

// ConditionEvaluator resolves one branch expression against merged input
// data. The condition language itself is deliberately not fixed: a
// dynamic-eval expression language has no safe equivalent in Go, so the
// expression grammar is left to the caller wiring the workflow.
type ConditionEvaluator interface {
	Evaluate(expression string, data map[string]any) (bool, error)
}

// conditionCase mirrors one {branch, expression} entry of the config.
type conditionCase struct {
	Branch     string
	Expression string
}

// ConditionNode evaluates an ordered list of branch conditions against its
// input data and value-selects the first match, falling back to a default
// branch.
type ConditionNode struct {
	*core.BaseNode
	evaluator ConditionEvaluator
}

// NewConditionNode allows wiring a caller-supplied evaluator; the registry
// factory below installs it with a nil evaluator, in which case Run
// evaluates no case and selects the default branch with matched=false.
func NewConditionNode(id string, rawConfig map[string]any, evaluator ConditionEvaluator) *ConditionNode {
	inputs := map[string]*core.Port{
		"input_data": core.NewPort("input_data", core.DirIn, core.Struct(core.KindValue, map[string]core.Tag{
			"data":            core.TagAny,
			"conditions":      core.TagList,
			"default_branch":  core.TagString,
		})),
	}
	outputs := map[string]*core.Port{
		"output": core.NewPort("output", core.DirOut, core.Struct(core.KindValue, map[string]core.Tag{
			"branch":    core.TagString,
			"data":      core.TagAny,
			"condition": core.TagAny,
			"matched":   core.TagBoolean,
		})),
	}
	return &ConditionNode{
		BaseNode:  core.NewBaseNode(id, "condition_node", core.ModeSequential, rawConfig, inputs, outputs),
		evaluator: evaluator,
	}
}

func newConditionNode(id string, rawConfig map[string]any) (core.Node, error) {
	return NewConditionNode(id, rawConfig, nil), nil
}

func (n *ConditionNode) cases() []conditionCase {
	raw, _ := n.GetConfig("conditions", []any{}).([]any)
	out := make([]conditionCase, 0, len(raw))
	for _, item := range raw {
		m := asMap(item)
		out = append(out, conditionCase{
			Branch:     asString(m["branch"], ""),
			Expression: asString(m["expression"], ""),
		})
	}
	return out
}

func (n *ConditionNode) Run(ctx context.Context, x *core.Context) (any, error) {
	data := asMap(n.GetConfig("data", map[string]any{}))
	cases := n.cases()
	defaultBranch := asString(n.GetConfig("default_branch", ""), "")

	if n.Inputs()["input_data"].HasValue() {
		if v, err := n.GetValue("input_data"); err == nil {
			in := asMap(v)
			if d, ok := in["data"]; ok {
				data = asMap(d)
			}
			if raw, ok := in["conditions"].([]any); ok {
				cases = cases[:0]
				for _, item := range raw {
					m := asMap(item)
					cases = append(cases, conditionCase{Branch: asString(m["branch"], ""), Expression: asString(m["expression"], "")})
				}
			}
			if db, ok := in["default_branch"].(string); ok && db != "" {
				defaultBranch = db
			}
		}
	}

	branch := defaultBranch
	var matchedExpr any
	matched := false

	if n.evaluator != nil {
		for _, c := range cases {
			ok, err := n.evaluator.Evaluate(c.Expression, data)
			if err != nil {
				return nil, &core.NodeExecutionError{NodeID: n.ID(), Message: "condition evaluation failed", Cause: err}
			}
			if ok {
				branch = c.Branch
				matchedExpr = c.Expression
				matched = true
				break
			}
		}
	}

	out := map[string]any{"branch": branch, "data": data, "condition": matchedExpr, "matched": matched}
	if err := n.SetValue("output", out); err != nil {
		return nil, err
	}
	return out, nil
}

func init() {
	core.RegisterType("condition_node", newConditionNode)
}
