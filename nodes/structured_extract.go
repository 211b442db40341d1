package nodes

import (
	"context"

	"github.com/alt-coder/dataflow-engine/core"
	"github.com/alt-coder/dataflow-engine/llm"
	"github.com/alt-coder/dataflow-engine/structured"
)

// StructuredExtractNode turns free text into a validated dict-shaped value
// output by calling structured.ParseWithStructuredPrompt[map[string]any]
// through a structured.Parser bound to the LLM provider. It is fixed to map[string]any because the registry's Factory
// type has no way to carry a type parameter through a config-driven build.
type StructuredExtractNode struct {
	*core.BaseNode
	parser *structured.Parser
}

func NewStructuredExtractNode(id string, rawConfig map[string]any, provider llm.LLMProvider) (*StructuredExtractNode, error) {
	parser, err := structured.NewParser(provider, structured.DefaultConfig())
	if err != nil {
		return nil, err
	}
	inputs := map[string]*core.Port{
		"text": core.NewPort("text", core.DirIn, core.Atom(core.KindValue, core.TagString)),
	}
	outputs := map[string]*core.Port{
		"data": core.NewPort("data", core.DirOut, core.Atom(core.KindValue, core.TagDict)),
	}
	return &StructuredExtractNode{
		BaseNode: core.NewBaseNode(id, "structured_extract_node", core.ModeSequential, rawConfig, inputs, outputs),
		parser:   parser,
	}, nil
}

func newStructuredExtractNode(id string, rawConfig map[string]any) (core.Node, error) {
	return NewStructuredExtractNode(id, rawConfig, llm.NewMockProvider(id))
}

func (n *StructuredExtractNode) Run(ctx context.Context, x *core.Context) (any, error) {
	text := asString(n.GetConfig("text", ""), "")
	if n.Inputs()["text"].HasValue() {
		if v, err := n.GetValue("text"); err == nil {
			text, _ = v.(string)
		}
	}
	if text == "" {
		return nil, &core.NodeExecutionError{NodeID: n.ID(), Message: "structured_extract_node requires text"}
	}

	result, err := structured.ParseWithStructuredPrompt[map[string]any](n.parser, ctx, text)
	if err != nil {
		return nil, &core.NodeExecutionError{NodeID: n.ID(), Message: "structured extraction failed", Cause: err}
	}
	data := map[string]any{}
	if result.Data != nil {
		data = *result.Data
	}
	if err := n.SetValue("data", data); err != nil {
		return nil, err
	}
	x.LogEvent("INFO", n.ID(), "structured extraction complete")
	return data, nil
}

func init() {
	core.RegisterType("structured_extract_node", newStructuredExtractNode)
}
