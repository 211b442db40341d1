package nodes

import (
	"context"
	"time"

	"github.com/alt-coder/dataflow-engine/core"
)

// Synthesizer turns one text chunk into synthesized audio bytes. Left
// pluggable since no speech backend lives anywhere in the reference stack.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

type silentSynthesizer struct{}

func (silentSynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return []byte(text), nil
}

// TTSNode consumes streaming text and emits streaming audio, periodically
// reporting status back so a paired agent node can close its own streaming
// loop on the reply.
type TTSNode struct {
	*core.BaseNode
	synth Synthesizer
}

func NewTTSNode(id string, rawConfig map[string]any, synth Synthesizer) *TTSNode {
	inputs := map[string]*core.Port{
		"text": core.NewPort("text", core.DirIn, core.Atom(core.KindStreaming, core.TagString)),
	}
	outputs := map[string]*core.Port{
		"audio":  core.NewPort("audio", core.DirOut, core.Atom(core.KindStreaming, core.TagBytes)),
		"status": core.NewPort("status", core.DirOut, core.Atom(core.KindStreaming, core.TagString)),
	}
	return &TTSNode{
		BaseNode: core.NewBaseNode(id, "tts_node", core.ModeStreaming, rawConfig, inputs, outputs),
		synth:    synth,
	}
}

func newTTSNode(id string, rawConfig map[string]any) (core.Node, error) {
	return NewTTSNode(id, rawConfig, silentSynthesizer{}), nil
}

func (n *TTSNode) OnChunk(ctx context.Context, portName string, chunk *core.Chunk) error {
	if portName != "text" {
		return nil
	}
	text, _ := chunk.Payload.(string)
	audio, err := n.synth.Synthesize(ctx, text)
	if err != nil {
		n.Emit(ctx, "status", "synthesis_failed")
		return &core.NodeExecutionError{NodeID: n.ID(), Message: "speech synthesis failed", Cause: err}
	}
	if err := n.Emit(ctx, "audio", audio); err != nil {
		return err
	}
	return n.Emit(ctx, "status", "synthesizing")
}

func (n *TTSNode) Run(ctx context.Context, x *core.Context) (any, error) {
	statusTicker := time.NewTicker(5 * time.Second)
	defer statusTicker.Stop()
	for {
		select {
		case <-ctx.Done():
			n.CloseOutput(ctx, "audio")
			n.CloseOutput(ctx, "status")
			return nil, nil
		case <-statusTicker.C:
			n.Emit(ctx, "status", "idle")
		}
	}
}

func init() {
	core.RegisterType("tts_node", newTTSNode)
}
