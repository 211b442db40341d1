package engine

import (
	"fmt"
	"strings"

	"github.com/alt-coder/dataflow-engine/core"
)

// Engine owns a loaded graph: the instantiated nodes, their connections,
// and the registry used to build them. It is built once by Load and then
// driven to completion once by Start.
type Engine struct {
	registry *core.Registry

	nodes   map[string]core.Node
	order   []string // topological order of the task-driven nodes, set by Load
	conns   *core.ConnectionManager
	runCfg  RunConfig

	nodeReturns *nodeReturnStore
}

// New constructs an Engine bound to the given registry. Pass nil to use
// the process-wide default registry populated by node packages' init
// functions.
func New(registry *core.Registry) *Engine {
	if registry == nil {
		registry = core.DefaultRegistry()
	}
	return &Engine{registry: registry}
}

func parseEndpoint(s string) (nodeID, port string, err error) {
	i := strings.LastIndex(s, ".")
	if i <= 0 || i == len(s)-1 {
		return "", "", fmt.Errorf("malformed endpoint %q, expected <node_id>.<port_name>", s)
	}
	return s[:i], s[i+1:], nil
}

// Load parses a Description, instantiates every node through the
// registry, builds the connection graph, and validates endpoints, port
// kinds, and schema compatibility before computing a topological order.
// It is safe to call once per Engine.
func (e *Engine) Load(desc Description) error {
	desc.Config.applyDefaults()
	e.runCfg = desc.Config

	if desc.Name == "" {
		return &core.ConfigurationError{Kind: core.ErrMissingField, Message: "workflow.name is required"}
	}

	nodes := make(map[string]core.Node, len(desc.Nodes))
	order := make([]string, 0, len(desc.Nodes))
	for _, nd := range desc.Nodes {
		if nd.ID == "" {
			return &core.ConfigurationError{Kind: core.ErrMissingField, Message: "node.id is required"}
		}
		if nd.Type == "" {
			return &core.ConfigurationError{Kind: core.ErrMissingField, NodeID: nd.ID, Message: "node.type is required"}
		}
		if _, dup := nodes[nd.ID]; dup {
			return &core.ConfigurationError{Kind: core.ErrDuplicateID, NodeID: nd.ID, Message: fmt.Sprintf("duplicate node id %q", nd.ID)}
		}
		n, err := e.registry.Build(nd.Type, nd.ID, nd.Config)
		if err != nil {
			return err
		}
		nodes[nd.ID] = n
		order = append(order, nd.ID)
	}

	conns := make([]core.Connection, 0, len(desc.Connections))
	for _, cd := range desc.Connections {
		srcNode, srcPort, err := parseEndpoint(cd.From)
		if err != nil {
			return &core.ConfigurationError{Kind: core.ErrUnknownEndpoint, Message: err.Error()}
		}
		dstNode, dstPort, err := parseEndpoint(cd.To)
		if err != nil {
			return &core.ConfigurationError{Kind: core.ErrUnknownEndpoint, Message: err.Error()}
		}

		srcN, ok := nodes[srcNode]
		if !ok {
			return &core.ConfigurationError{Kind: core.ErrUnknownEndpoint, NodeID: srcNode, Message: fmt.Sprintf("connection references unknown node %q", srcNode)}
		}
		dstN, ok := nodes[dstNode]
		if !ok {
			return &core.ConfigurationError{Kind: core.ErrUnknownEndpoint, NodeID: dstNode, Message: fmt.Sprintf("connection references unknown node %q", dstNode)}
		}

		srcPortObj, ok := srcN.Outputs()[srcPort]
		if !ok {
			return &core.ConfigurationError{Kind: core.ErrUnknownEndpoint, NodeID: srcNode, Port: srcPort, Message: fmt.Sprintf("node %q has no output port %q", srcNode, srcPort)}
		}
		dstPortObj, ok := dstN.Inputs()[dstPort]
		if !ok {
			return &core.ConfigurationError{Kind: core.ErrUnknownEndpoint, NodeID: dstNode, Port: dstPort, Message: fmt.Sprintf("node %q has no input port %q", dstNode, dstPort)}
		}

		if srcPortObj.Schema.Kind != dstPortObj.Schema.Kind {
			return &core.ConfigurationError{
				Kind: core.ErrKindMismatch, NodeID: srcNode, Port: srcPort,
				Message: fmt.Sprintf("%s.%s (%s) connects to %s.%s (%s): kind mismatch", srcNode, srcPort, srcPortObj.Schema.Kind, dstNode, dstPort, dstPortObj.Schema.Kind),
			}
		}
		if !srcPortObj.Schema.Equals(dstPortObj.Schema) {
			return &core.ConfigurationError{
				Kind: core.ErrSchemaMismatch, NodeID: srcNode, Port: srcPort,
				Message: fmt.Sprintf("%s.%s (%s) does not structurally match %s.%s (%s)", srcNode, srcPort, srcPortObj.Schema, dstNode, dstPort, dstPortObj.Schema),
			}
		}

		kind := core.EdgeValue
		if srcPortObj.Schema.Kind == core.KindStreaming {
			kind = core.EdgeStreaming
		}
		conns = append(conns, core.Connection{
			Src:  core.Endpoint{NodeID: srcNode, Port: srcPort},
			Dst:  core.Endpoint{NodeID: dstNode, Port: dstPort},
			Kind: kind,
		})
	}

	cm := core.NewConnectionManager(conns)

	// Only task-driven (non-streaming-mode) nodes participate in the
	// topological walk; streaming-mode nodes run for the life of the graph
	// and are excluded from both the cycle check and the resulting order.
	var taskDriven []string
	for _, id := range order {
		if nodes[id].Mode() != core.ModeStreaming {
			taskDriven = append(taskDriven, id)
		}
	}
	topoOrder, err := core.DetectValueCycle(taskDriven, cm.ValueEdges())
	if err != nil {
		return err
	}

	e.nodes = nodes
	e.order = topoOrder
	e.conns = cm
	return nil
}
