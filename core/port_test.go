package core

import (
	"context"
	"testing"
	"time"
)

func TestPort_ValueCell(t *testing.T) {
	p := NewPort("x", DirOut, Atom(KindValue, TagInteger))

	if p.HasValue() {
		t.Fatal("expected empty cell before any SetValue")
	}
	if _, err := p.GetValue(); err == nil {
		t.Fatal("expected GetValue on empty cell to fail")
	}

	if err := p.SetValue(42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.HasValue() {
		t.Fatal("expected HasValue to be true after SetValue")
	}
	v, err := p.GetValue()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Errorf("GetValue() = %v, expected 42", v)
	}

	if err := p.SetValue("wrong type"); err == nil {
		t.Fatal("expected SetValue to reject a payload that fails schema validation")
	}
}

func TestPort_SetValue_RejectsStreamingPort(t *testing.T) {
	p := NewPort("s", DirOut, Atom(KindStreaming, TagString))
	if err := p.SetValue("x"); err == nil {
		t.Fatal("expected SetValue on a streaming port to fail")
	}
}

func TestPort_StreamingFIFO_PushPopInOrder(t *testing.T) {
	p := NewPort("s", DirOut, Atom(KindStreaming, TagInteger))
	p.EnsureQueue(0)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		c, err := NewChunk(i, p.Schema)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := p.Push(ctx, c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := p.PushEOS(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 3; i++ {
		c, ok, err := p.Pop(ctx)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !ok {
			t.Fatalf("expected chunk %d, got EOS", i)
		}
		if c.Payload != i {
			t.Errorf("Pop() payload = %v, expected %d", c.Payload, i)
		}
	}

	_, ok, err := p.Pop(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected EOS after the last pushed chunk")
	}
}

func TestPort_PushAfterEOS_Rejected(t *testing.T) {
	p := NewPort("s", DirOut, Atom(KindStreaming, TagString))
	p.EnsureQueue(0)
	ctx := context.Background()

	if err := p.PushEOS(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A second PushEOS is a documented no-op.
	if err := p.PushEOS(ctx); err != nil {
		t.Fatalf("expected repeated PushEOS to be a no-op, got %v", err)
	}

	c, err := NewChunk("late", p.Schema)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.Push(ctx, c); err == nil {
		t.Fatal("expected Push after EOS to be rejected")
	}
}

func TestPort_Pop_CancelledContext(t *testing.T) {
	p := NewPort("s", DirOut, Atom(KindStreaming, TagString))
	p.EnsureQueue(0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, _, err := p.Pop(ctx); err == nil {
		t.Fatal("expected Pop to fail once the context is cancelled with nothing enqueued")
	}
}
