package nodes

import (
	"context"

	"github.com/alt-coder/dataflow-engine/core"
	"github.com/alt-coder/dataflow-engine/llm"
	"github.com/alt-coder/dataflow-engine/tools"
)

// ToolExecutionNode dispatches a stream of tool calls to a ToolManager
// (local handlers and, transitively, any MCP servers it was configured
// with) and streams back one result per call.
type ToolExecutionNode struct {
	*core.BaseNode
	manager *tools.ToolManager
}

// NewToolExecutionNode lets a workflow builder hand in a fully configured
// ToolManager (local tools registered, MCP manager initialized).
func NewToolExecutionNode(id string, rawConfig map[string]any, manager *tools.ToolManager) *ToolExecutionNode {
	inputs := map[string]*core.Port{
		"calls": core.NewPort("calls", core.DirIn, core.Struct(core.KindStreaming, map[string]core.Tag{
			"id":        core.TagString,
			"tool_name": core.TagString,
			"tool_args": core.TagDict,
		})),
	}
	outputs := map[string]*core.Port{
		"results": core.NewPort("results", core.DirOut, core.Struct(core.KindStreaming, map[string]core.Tag{
			"id":       core.TagString,
			"content":  core.TagString,
			"is_error": core.TagBoolean,
			"error":    core.TagString,
		})),
	}
	return &ToolExecutionNode{
		BaseNode: core.NewBaseNode(id, "tool_execution_node", core.ModeHybrid, rawConfig, inputs, outputs),
		manager:  manager,
	}
}

func newToolExecutionNode(id string, rawConfig map[string]any) (core.Node, error) {
	return NewToolExecutionNode(id, rawConfig, tools.NewToolManager()), nil
}

// OnChunk executes one tool call as it arrives, preserving per-chunk
// isolation: a failing call becomes an is_error result, not a node
// failure.
func (n *ToolExecutionNode) OnChunk(ctx context.Context, portName string, chunk *core.Chunk) error {
	if portName != "calls" {
		return nil
	}
	m := asMap(chunk.Payload)
	call := llm.ToolCalls{
		Id:       asString(m["id"], ""),
		ToolName: asString(m["tool_name"], ""),
		ToolArgs: asMap(m["tool_args"]),
	}
	result, err := n.manager.ExecuteTool(ctx, call)
	if err != nil {
		result = llm.ToolResults{Id: call.Id, IsError: true, Error: err.Error()}
	}
	return n.Emit(ctx, "results", map[string]any{
		"id":       result.Id,
		"content":  result.Content,
		"is_error": result.IsError,
		"error":    result.Error,
	})
}

// Run has no value outputs to produce; it becomes ready immediately and
// then blocks for the lifetime of the run so its OnChunk keeps servicing
// incoming calls.
func (n *ToolExecutionNode) Run(ctx context.Context, x *core.Context) (any, error) {
	<-ctx.Done()
	n.CloseOutput(ctx, "results")
	return nil, nil
}

func init() {
	core.RegisterType("tool_execution_node", newToolExecutionNode)
}
