package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alt-coder/dataflow-engine/core"
	"github.com/alt-coder/dataflow-engine/template"
)

// logFailure records a node failure at ERROR when it aborts the run
// (continueOnError is false) and at WARNING when the scheduler logs it and
// proceeds instead.
func logFailure(x *core.Context, nodeID, message string, continueOnError bool) {
	level := "ERROR"
	if continueOnError {
		level = "WARNING"
	}
	x.LogEvent(level, nodeID, message)
}

// Start runs the loaded graph once to completion: it classifies nodes,
// launches streaming consumer tasks and pure-streaming node runners, walks
// task-driven nodes in topological order, and then waits for every
// outstanding task subject to the configured stream timeout.
func (e *Engine) Start(ctx context.Context, initialGlobals map[string]any) (*core.Context, error) {
	x := core.NewContext()
	for k, v := range initialGlobals {
		x.SetGlobalVar(k, v)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for id, n := range e.nodes {
		if err := n.Initialize(runCtx, e); err != nil {
			return x, &core.ConfigurationError{NodeID: id, Message: fmt.Sprintf("initialize failed: %v", err), Cause: err}
		}
	}

	var wg sync.WaitGroup
	var failMu sync.Mutex
	var firstErr error
	failFast := func(err error) {
		failMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		failMu.Unlock()
		if !e.runCfg.ContinueOnError {
			cancel()
		}
	}

	// One consumer task per (node, streaming input port), for every node
	// regardless of mode.
	for _, n := range e.nodes {
		n := n
		for portName, p := range n.Inputs() {
			if p.Schema.Kind != core.KindStreaming {
				continue
			}
			portName := portName
			wg.Add(1)
			go func() {
				defer wg.Done()
				runConsumer(runCtx, n, portName, x, e.runCfg.ContinueOnError, failFast)
			}()
		}
	}

	// Pure-streaming node runners (U): launched immediately, run for the
	// lifetime of the invocation.
	for _, n := range e.nodes {
		if n.Mode() != core.ModeStreaming {
			continue
		}
		n := n
		wg.Add(1)
		go func() {
			defer wg.Done()
			n.SetState(core.StateRunning)
			if _, err := n.Run(runCtx, x); err != nil {
				n.SetState(core.StateFailed)
				logFailure(x, n.ID(), err.Error(), e.runCfg.ContinueOnError)
				failFast(&core.NodeExecutionError{NodeID: n.ID(), Message: "streaming node failed", Cause: err})
				return
			}
			n.SetState(core.StateSucceeded)
		}()
	}

	nodeReturns := newNodeReturnStore()
	e.nodeReturns = nodeReturns
	lookup := &contextLookup{x: x, nodeReturns: nodeReturns}
	resolver := template.New(lookup)

	// Task-driven walk (T), in topological order.
walk:
	for _, id := range e.order {
		select {
		case <-runCtx.Done():
			break walk
		default:
		}

		n := e.nodes[id]
		rendered, err := resolver.Render(n.RawConfig())
		if err != nil {
			failFast(&core.NodeExecutionError{NodeID: id, Message: "config render failed", Cause: err})
			break walk
		}
		if m, ok := rendered.(map[string]any); ok {
			n.SetResolvedConfig(m)
		}

		n.SetState(core.StateRunning)

		switch n.Mode() {
		case core.ModeHybrid:
			wg.Add(1)
			go func(n core.Node) {
				defer wg.Done()
				ret, err := n.Run(runCtx, x)
				if err != nil {
					n.SetState(core.StateFailed)
					logFailure(x, n.ID(), err.Error(), e.runCfg.ContinueOnError)
					failFast(&core.NodeExecutionError{NodeID: n.ID(), Message: "hybrid node failed", Cause: err})
					n.(interface{ MarkDone() }).MarkDone()
					return
				}
				n.SetState(core.StateSucceeded)
				nodeReturns.set(n.ID(), ret)
				x.SetOutput(n.ID(), "$return", ret)
				n.(interface{ MarkDone() }).MarkDone()
			}(n)

			select {
			case <-n.Ready():
			case <-runCtx.Done():
				break walk
			}
		default: // sequential
			ret, err := n.Run(runCtx, x)
			if err != nil {
				n.SetState(core.StateFailed)
				logFailure(x, id, err.Error(), e.runCfg.ContinueOnError)
				failFast(&core.NodeExecutionError{NodeID: id, Message: "node failed", Cause: err})
				if !e.runCfg.ContinueOnError {
					break walk
				}
				continue
			}
			n.SetState(core.StateSucceeded)
			nodeReturns.set(id, ret)
			x.SetOutput(id, "$return", ret)
		}

		propagateValueOutputs(e, n)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	timeout := time.Duration(*e.runCfg.StreamTimeoutSeconds * float64(time.Second))
	select {
	case <-done:
	case <-time.After(timeout):
		cancel()
		<-done
		failFast(&core.TimeoutError{Timeout: timeout.String()})
	}

	return x, firstErr
}

// runConsumer drains one streaming input port's FIFO for the life of the run.
func runConsumer(ctx context.Context, n core.Node, portName string, x *core.Context, continueOnError bool, failFast func(error)) {
	p := n.Inputs()[portName]
	for {
		chunk, ok, err := p.Pop(ctx)
		if err != nil {
			return // cancelled
		}
		if !ok {
			return // EOS
		}
		if err := n.OnChunk(ctx, portName, chunk); err != nil {
			logFailure(x, n.ID(), fmt.Sprintf("on_chunk(%s): %v", portName, err), continueOnError)
			if !continueOnError {
				failFast(&core.NodeExecutionError{NodeID: n.ID(), Message: "on_chunk failed", Cause: err})
				return
			}
			// per-chunk isolation: log and continue
		}
	}
}

// propagateValueOutputs pushes every set value output, by reference, to
// every connected destination cell.
func propagateValueOutputs(e *Engine, n core.Node) {
	for portName, p := range n.Outputs() {
		if p.Schema.Kind != core.KindValue || !p.HasValue() {
			continue
		}
		v, err := p.GetValue()
		if err != nil {
			continue
		}
		for _, c := range e.conns.From(core.Endpoint{NodeID: n.ID(), Port: portName}) {
			if c.Kind != core.EdgeValue {
				continue
			}
			dst, ok := e.nodes[c.Dst.NodeID]
			if !ok {
				continue
			}
			if dp, ok := dst.Inputs()[c.Dst.Port]; ok {
				_ = dp.SetValue(v)
			}
		}
	}
}

// Feed drives a streaming input port from outside the graph.
func (e *Engine) Feed(ctx context.Context, nodeID, portName string, payload any) error {
	n, ok := e.nodes[nodeID]
	if !ok {
		return &core.ConfigurationError{Kind: core.ErrUnknownEndpoint, NodeID: nodeID, Message: "feed on an unknown node"}
	}
	p, ok := n.Inputs()[portName]
	if !ok {
		return &core.ConfigurationError{Kind: core.ErrUnknownEndpoint, NodeID: nodeID, Port: portName, Message: "feed on an unknown input port"}
	}
	chunk, err := core.NewChunk(payload, p.Schema)
	if err != nil {
		return err
	}
	return p.Push(ctx, chunk)
}

// Render exposes the template resolver to external callers against a
// context produced by a prior Start.
func (e *Engine) Render(x *core.Context, templateString string) (any, error) {
	returns := e.nodeReturns
	if returns == nil {
		returns = newNodeReturnStore()
	}
	resolver := template.New(&contextLookup{x: x, nodeReturns: returns})
	return resolver.RenderString(templateString)
}

// CloseInput enqueues EOS on an externally-driven streaming input.
func (e *Engine) CloseInput(ctx context.Context, nodeID, portName string) error {
	n, ok := e.nodes[nodeID]
	if !ok {
		return &core.ConfigurationError{Kind: core.ErrUnknownEndpoint, NodeID: nodeID, Message: "close_input on an unknown node"}
	}
	p, ok := n.Inputs()[portName]
	if !ok {
		return &core.ConfigurationError{Kind: core.ErrUnknownEndpoint, NodeID: nodeID, Port: portName, Message: "close_input on an unknown input port"}
	}
	return p.PushEOS(ctx)
}
