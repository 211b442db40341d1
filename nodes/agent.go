package nodes

import (
	"context"

	"github.com/alt-coder/dataflow-engine/core"
	"github.com/alt-coder/dataflow-engine/llm"
)

// AgentNode is a hybrid node: it answers streaming user_text chunks with
// streaming reply chunks, calling an llm.LLMProvider once per chunk, and it
// accepts a streaming status input so a paired tts node (see tts.go) can
// feed its own status back into the loop. That pairing is the standard
// agent/tts wiring: agent.reply -> tts.text, tts.status -> agent.status,
// driven from outside by feeding and eventually closing agent.user_text.
type AgentNode struct {
	*core.BaseNode
	provider llm.LLMProvider
}

// NewAgentNode lets callers inject the concrete provider (openai, gemini,
// or a mock) rather than threading API keys through the registry.
func NewAgentNode(id string, rawConfig map[string]any, provider llm.LLMProvider) *AgentNode {
	inputs := map[string]*core.Port{
		"user_text": core.NewPort("user_text", core.DirIn, core.Atom(core.KindStreaming, core.TagString)),
		"status":    core.NewPort("status", core.DirIn, core.Atom(core.KindStreaming, core.TagString)),
	}
	outputs := map[string]*core.Port{
		"reply": core.NewPort("reply", core.DirOut, core.Atom(core.KindStreaming, core.TagString)),
	}
	return &AgentNode{
		BaseNode: core.NewBaseNode(id, "agent_node", core.ModeHybrid, rawConfig, inputs, outputs),
		provider: provider,
	}
}

// OnChunk answers each inbound user_text chunk with one LLM call, emitting
// the reply as a single reply chunk. status chunks looped back from a
// paired tts node are accepted but otherwise ignored; there is nothing for
// an agent turn to act on besides the peer still being alive.
func (n *AgentNode) OnChunk(ctx context.Context, portName string, chunk *core.Chunk) error {
	if portName != "user_text" {
		return nil
	}

	text, _ := chunk.Payload.(string)
	systemPrompt := asString(n.GetConfig("system_prompt", ""), "")

	messages := []llm.Message{}
	if systemPrompt != "" {
		messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: text})

	reply, err := n.provider.CallLLM(ctx, messages)
	if err != nil {
		return &core.NodeExecutionError{NodeID: n.ID(), Message: "llm call failed", Cause: err}
	}
	return n.Emit(ctx, "reply", reply.Content)
}

// Run has no value output to compute; it stays alive for the life of the
// run, closing reply once cancelled.
func (n *AgentNode) Run(ctx context.Context, x *core.Context) (any, error) {
	<-ctx.Done()
	n.CloseOutput(ctx, "reply")
	return nil, nil
}

func newAgentNode(id string, rawConfig map[string]any) (core.Node, error) {
	return NewAgentNode(id, rawConfig, llm.NewMockProvider(id)), nil
}

func init() {
	core.RegisterType("agent_node", newAgentNode)
}
