package core

import (
	"context"
	"testing"
	"time"
)

type recordingRouter struct {
	chunks []*Chunk
	closed []string
}

func (r *recordingRouter) RouteChunk(ctx context.Context, srcNodeID, srcPort string, chunk *Chunk) error {
	r.chunks = append(r.chunks, chunk)
	return nil
}

func (r *recordingRouter) RouteClose(ctx context.Context, srcNodeID, srcPort string) error {
	r.closed = append(r.closed, srcNodeID+"."+srcPort)
	return nil
}

func newTestNode(outputs map[string]*Port) *BaseNode {
	return NewBaseNode("n1", "test", ModeSequential, map[string]any{}, map[string]*Port{}, outputs)
}

func TestBaseNode_Ready_ClosedImmediatelyWithNoValueOutputs(t *testing.T) {
	n := newTestNode(map[string]*Port{
		"stream_out": NewPort("stream_out", DirOut, Atom(KindStreaming, TagString)),
	})
	select {
	case <-n.Ready():
	default:
		t.Fatal("expected Ready() to be closed when no value outputs are declared")
	}
}

func TestBaseNode_Ready_WaitsForAllValueOutputs(t *testing.T) {
	n := newTestNode(map[string]*Port{
		"a": NewPort("a", DirOut, Atom(KindValue, TagInteger)),
		"b": NewPort("b", DirOut, Atom(KindValue, TagInteger)),
	})

	select {
	case <-n.Ready():
		t.Fatal("expected Ready() to block before any value output is set")
	case <-time.After(10 * time.Millisecond):
	}

	if err := n.SetValue("a", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case <-n.Ready():
		t.Fatal("expected Ready() to still block with one of two value outputs set")
	case <-time.After(10 * time.Millisecond):
	}

	if err := n.SetValue("b", 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	select {
	case <-n.Ready():
	case <-time.After(10 * time.Millisecond):
		t.Fatal("expected Ready() to be closed once every value output is set")
	}
}

func TestBaseNode_MarkDone_IdempotentClose(t *testing.T) {
	n := newTestNode(map[string]*Port{
		"a": NewPort("a", DirOut, Atom(KindValue, TagInteger)),
	})
	n.MarkDone()
	n.MarkDone() // must not panic on double close
	select {
	case <-n.Ready():
	default:
		t.Fatal("expected Ready() closed after MarkDone")
	}
}

func TestBaseNode_Emit_RoutesThroughRouter(t *testing.T) {
	n := newTestNode(map[string]*Port{
		"out": NewPort("out", DirOut, Atom(KindStreaming, TagString)),
	})
	router := &recordingRouter{}
	if err := n.Initialize(context.Background(), router); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := n.Emit(context.Background(), "out", "hello"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(router.chunks) != 1 || router.chunks[0].Payload != "hello" {
		t.Fatalf("router.chunks = %+v, expected one chunk carrying \"hello\"", router.chunks)
	}

	if err := n.CloseOutput(context.Background(), "out"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(router.closed) != 1 || router.closed[0] != "n1.out" {
		t.Fatalf("router.closed = %v, expected [n1.out]", router.closed)
	}
}

func TestBaseNode_Emit_RejectsUndeclaredPort(t *testing.T) {
	n := newTestNode(map[string]*Port{})
	if err := n.Emit(context.Background(), "missing", "x"); err == nil {
		t.Fatal("expected Emit on an undeclared port to fail")
	}
}

func TestBaseNode_FeedAndCloseInput(t *testing.T) {
	n := NewBaseNode("n1", "test", ModeStreaming, map[string]any{},
		map[string]*Port{"in": NewPort("in", DirIn, Atom(KindStreaming, TagInteger))},
		map[string]*Port{})
	if err := n.Initialize(context.Background(), &recordingRouter{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx := context.Background()
	if err := n.Feed(ctx, "in", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := n.CloseInput(ctx, "in"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := n.Inputs()["in"]
	c, ok, err := p.Pop(ctx)
	if err != nil || !ok || c.Payload != 1 {
		t.Fatalf("Pop() = (%v, %v, %v), expected (1, true, nil)", c, ok, err)
	}
	_, ok, err = p.Pop(ctx)
	if err != nil || ok {
		t.Fatalf("expected EOS after the fed chunk, got (%v, %v)", ok, err)
	}
}

func TestBaseNode_SetValueGetValue(t *testing.T) {
	n := newTestNode(map[string]*Port{
		"out": NewPort("out", DirOut, Atom(KindValue, TagInteger)),
	})
	if _, err := n.GetValue("out"); err == nil {
		t.Fatal("expected GetValue before SetValue to fail")
	}
	if err := n.SetValue("out", 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, err := n.GetValue("out")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 7 {
		t.Errorf("GetValue() = %v, expected 7", v)
	}
}
