package core

import (
	"context"
	"sync"
)

// Mode is a node's declared execution posture.
type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeStreaming  Mode = "streaming"
	ModeHybrid     Mode = "hybrid"
)

// State is a node's lifecycle state. Transitions are monotonic:
// pending -> running -> (succeeded | failed | cancelled).
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Router is the scheduler-side capability a node needs to fan out
// streaming chunks and end-of-stream markers to every connected downstream
// port. The engine implements this; core never imports engine, avoiding an
// import cycle between the kernel and its driver.
type Router interface {
	RouteChunk(ctx context.Context, srcNodeID, srcPort string, chunk *Chunk) error
	RouteClose(ctx context.Context, srcNodeID, srcPort string) error
}

// Node is the capability set the scheduler drives. It never downcasts to a
// concrete node type — it only consults Mode and the port declarations.
type Node interface {
	ID() string
	TypeName() string
	Mode() Mode
	Inputs() map[string]*Port
	Outputs() map[string]*Port

	State() State
	SetState(State)

	RawConfig() map[string]any
	SetResolvedConfig(map[string]any)

	// Initialize is called by the scheduler once, after the graph is
	// wired, and before any consumer task or run invocation; streaming
	// ports allocate their FIFOs here.
	Initialize(ctx context.Context, router Router) error

	// Run is the sole task-driven entry point. A sequential node returns
	// once and its return value is recorded; a streaming node runs for the
	// life of the graph and its return value is ignored; a hybrid node
	// does both, and the walk only waits on its Ready() signal rather than
	// its full lifetime.
	Run(ctx context.Context, x *Context) (any, error)

	// OnChunk is invoked by the consumer task for every chunk arriving on
	// a streaming input port.
	OnChunk(ctx context.Context, portName string, chunk *Chunk) error

	// Ready signals once every declared value output has been written, or
	// immediately if the node declares none; Run's eventual return also
	// marks the node ready. Used by the scheduler to unblock the
	// task-driven walk on a hybrid node without waiting for it to finish.
	Ready() <-chan struct{}
}

// BaseNode implements the mechanical parts of Node (port bookkeeping,
// emit/feed/value helpers, readiness signalling) so that concrete node
// types embed it and only implement Run (and, where needed, OnChunk and a
// non-default Initialize).
type BaseNode struct {
	id       string
	typeName string
	mode     Mode
	rawCfg   map[string]any

	inputs  map[string]*Port
	outputs map[string]*Port

	mu    sync.Mutex
	state State

	resolvedCfg map[string]any

	router Router

	readyOnce    sync.Once
	readyCh      chan struct{}
	valueOutputs map[string]bool // declared value-output port names, pending
}

// NewBaseNode constructs the shared node scaffolding. inputs/outputs name
// every declared port (including streaming ones, whose FIFOs are not yet
// allocated — that happens in Initialize).
func NewBaseNode(id, typeName string, mode Mode, rawCfg map[string]any, inputs, outputs map[string]*Port) *BaseNode {
	n := &BaseNode{
		id:           id,
		typeName:     typeName,
		mode:         mode,
		rawCfg:       rawCfg,
		inputs:       inputs,
		outputs:      outputs,
		state:        StatePending,
		resolvedCfg:  map[string]any{},
		readyCh:      make(chan struct{}),
		valueOutputs: map[string]bool{},
	}
	for name, p := range outputs {
		if p.Schema.Kind == KindValue {
			n.valueOutputs[name] = false
		}
	}
	if len(n.valueOutputs) == 0 {
		close(n.readyCh)
	}
	return n
}

func (n *BaseNode) ID() string       { return n.id }
func (n *BaseNode) TypeName() string { return n.typeName }
func (n *BaseNode) Mode() Mode       { return n.mode }

func (n *BaseNode) Inputs() map[string]*Port  { return n.inputs }
func (n *BaseNode) Outputs() map[string]*Port { return n.outputs }

func (n *BaseNode) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

func (n *BaseNode) SetState(s State) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state = s
}

func (n *BaseNode) RawConfig() map[string]any { return n.rawCfg }

func (n *BaseNode) SetResolvedConfig(cfg map[string]any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resolvedCfg = cfg
}

// ResolvedConfig returns the whole rendered config map, for node types
// that need to iterate every key rather than read one dotted path.
func (n *BaseNode) ResolvedConfig() map[string]any {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.resolvedCfg
}

// GetConfig reads a dotted key from the node's resolved config, not the
// raw one, falling back to def on any missing or non-dict intermediate.
func (n *BaseNode) GetConfig(dottedKey string, def any) any {
	n.mu.Lock()
	cfg := n.resolvedCfg
	n.mu.Unlock()
	v, ok := getDotted(cfg, dottedKey)
	if !ok {
		return def
	}
	return v
}

// Initialize allocates FIFOs for every streaming port (input and output)
// and records the router used by Emit/CloseOutput. Concrete node types
// that need extra setup call BaseNode.Initialize from their own override.
func (n *BaseNode) Initialize(ctx context.Context, router Router) error {
	n.router = router
	for _, p := range n.inputs {
		p.EnsureQueue(0)
	}
	for _, p := range n.outputs {
		p.EnsureQueue(0)
	}
	return nil
}

// OnChunk is the default no-op consumer callback.
func (n *BaseNode) OnChunk(ctx context.Context, portName string, chunk *Chunk) error {
	return nil
}

func (n *BaseNode) Ready() <-chan struct{} { return n.readyCh }

// MarkDone closes the readiness channel if it has not already closed,
// used by the scheduler when a hybrid node's Run returns.
func (n *BaseNode) MarkDone() {
	n.readyOnce.Do(func() { close(n.readyCh) })
}

func (n *BaseNode) checkReady() {
	n.mu.Lock()
	allSet := true
	for _, set := range n.valueOutputs {
		if !set {
			allSet = false
			break
		}
	}
	n.mu.Unlock()
	if allSet {
		n.MarkDone()
	}
}

// Emit enqueues a chunk on a streaming output port: it validates payload
// against the port's schema, constructs the chunk, and fans it out to
// every connected destination via the router.
func (n *BaseNode) Emit(ctx context.Context, portName string, payload any) error {
	p, ok := n.outputs[portName]
	if !ok || p.Schema.Kind != KindStreaming {
		return &ValidationError{NodeID: n.id, Port: portName, Message: "emit on an undeclared or non-streaming output"}
	}
	chunk, err := NewChunk(payload, p.Schema)
	if err != nil {
		return err
	}
	if n.router == nil {
		return nil
	}
	return n.router.RouteChunk(ctx, n.id, portName, chunk)
}

// CloseOutput enqueues EOS on a streaming output and every downstream FIFO
// bound to it.
func (n *BaseNode) CloseOutput(ctx context.Context, portName string) error {
	if n.router == nil {
		return nil
	}
	return n.router.RouteClose(ctx, n.id, portName)
}

// Feed drives a streaming input port from outside the node (external
// producers and, internally, source nodes routing to it).
func (n *BaseNode) Feed(ctx context.Context, portName string, payload any) error {
	p, ok := n.inputs[portName]
	if !ok || p.Schema.Kind != KindStreaming {
		return &ValidationError{NodeID: n.id, Port: portName, Message: "feed on an undeclared or non-streaming input"}
	}
	chunk, err := NewChunk(payload, p.Schema)
	if err != nil {
		return err
	}
	return p.Push(ctx, chunk)
}

// CloseInput enqueues EOS on a streaming input port.
func (n *BaseNode) CloseInput(ctx context.Context, portName string) error {
	p, ok := n.inputs[portName]
	if !ok {
		return &ValidationError{NodeID: n.id, Port: portName, Message: "close_input on an undeclared input"}
	}
	return p.PushEOS(ctx)
}

// SetValue writes a value output (or, rarely, input) port's cell and
// checks whether the node has thereby become ready.
func (n *BaseNode) SetValue(portName string, v any) error {
	p, ok := n.outputs[portName]
	if !ok {
		p, ok = n.inputs[portName]
	}
	if !ok {
		return &ValidationError{NodeID: n.id, Port: portName, Message: "set_value on an undeclared port"}
	}
	if err := p.SetValue(v); err != nil {
		return err
	}
	n.mu.Lock()
	if _, declared := n.valueOutputs[portName]; declared {
		n.valueOutputs[portName] = true
	}
	n.mu.Unlock()
	n.checkReady()
	return nil
}

// GetValue reads a value port's cell, checking outputs then inputs.
func (n *BaseNode) GetValue(portName string) (any, error) {
	if p, ok := n.outputs[portName]; ok {
		return p.GetValue()
	}
	if p, ok := n.inputs[portName]; ok {
		return p.GetValue()
	}
	return nil, &ValidationError{NodeID: n.id, Port: portName, Message: "get_value on an undeclared port"}
}
