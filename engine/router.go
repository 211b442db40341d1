package engine

import (
	"context"

	"github.com/alt-coder/dataflow-engine/core"
)

// RouteChunk implements core.Router: it fans a chunk emitted on
// (srcNodeID, srcPort) out to every connected destination FIFO, one
// enqueue per sink.
func (e *Engine) RouteChunk(ctx context.Context, srcNodeID, srcPort string, chunk *core.Chunk) error {
	for _, c := range e.conns.From(core.Endpoint{NodeID: srcNodeID, Port: srcPort}) {
		if c.Kind != core.EdgeStreaming {
			continue
		}
		dst, ok := e.nodes[c.Dst.NodeID]
		if !ok {
			continue
		}
		p, ok := dst.Inputs()[c.Dst.Port]
		if !ok {
			continue
		}
		if err := p.Push(ctx, chunk); err != nil {
			return err
		}
	}
	return nil
}

// RouteClose implements core.Router: it enqueues EOS on every destination
// FIFO bound to (srcNodeID, srcPort).
func (e *Engine) RouteClose(ctx context.Context, srcNodeID, srcPort string) error {
	for _, c := range e.conns.From(core.Endpoint{NodeID: srcNodeID, Port: srcPort}) {
		if c.Kind != core.EdgeStreaming {
			continue
		}
		dst, ok := e.nodes[c.Dst.NodeID]
		if !ok {
			continue
		}
		if err := dst.Inputs()[c.Dst.Port].PushEOS(ctx); err != nil {
			return err
		}
	}
	return nil
}

var _ core.Router = (*Engine)(nil)
