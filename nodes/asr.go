package nodes

import (
	"context"

	"github.com/alt-coder/dataflow-engine/core"
)

// Recognizer turns one audio chunk into recognized text. Left pluggable for
// the same reason as Synthesizer: no speech backend lives anywhere in the
// reference stack.
type Recognizer interface {
	Recognize(ctx context.Context, audio []byte) (string, error)
}

type echoRecognizer struct{}

func (echoRecognizer) Recognize(ctx context.Context, audio []byte) (string, error) {
	return string(audio), nil
}

// ASRNode consumes streaming audio and emits streaming text.
type ASRNode struct {
	*core.BaseNode
	recognizer Recognizer
}

func NewASRNode(id string, rawConfig map[string]any, recognizer Recognizer) *ASRNode {
	inputs := map[string]*core.Port{
		"audio": core.NewPort("audio", core.DirIn, core.Atom(core.KindStreaming, core.TagBytes)),
	}
	outputs := map[string]*core.Port{
		"text": core.NewPort("text", core.DirOut, core.Atom(core.KindStreaming, core.TagString)),
	}
	return &ASRNode{
		BaseNode:   core.NewBaseNode(id, "asr_node", core.ModeStreaming, rawConfig, inputs, outputs),
		recognizer: recognizer,
	}
}

func newASRNode(id string, rawConfig map[string]any) (core.Node, error) {
	return NewASRNode(id, rawConfig, echoRecognizer{}), nil
}

func (n *ASRNode) OnChunk(ctx context.Context, portName string, chunk *core.Chunk) error {
	if portName != "audio" {
		return nil
	}
	audio, _ := chunk.Payload.([]byte)
	text, err := n.recognizer.Recognize(ctx, audio)
	if err != nil {
		return &core.NodeExecutionError{NodeID: n.ID(), Message: "speech recognition failed", Cause: err}
	}
	return n.Emit(ctx, "text", text)
}

func (n *ASRNode) Run(ctx context.Context, x *core.Context) (any, error) {
	<-ctx.Done()
	n.CloseOutput(ctx, "text")
	return nil, nil
}

func init() {
	core.RegisterType("asr_node", newASRNode)
}
