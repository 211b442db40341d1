package core

import (
	"context"
	"sync"
)

// Direction distinguishes a node's input ports from its output ports.
type Direction string

const (
	DirIn  Direction = "in"
	DirOut Direction = "out"
)

// defaultFIFOCapacity bounds the channel backing a streaming port's FIFO.
// It is a high-water mark: sends block once it is reached, which is not
// observable by nodes beyond ordinary suspension.
const defaultFIFOCapacity = 256

type fifoEntry struct {
	chunk *Chunk
	eos   bool
}

// fifo is the unbounded-in-spirit, bounded-in-practice queue backing a
// streaming port instance's Q, implemented as a buffered channel so that
// push/pop are natural goroutine suspension points.
type fifo struct {
	ch        chan fifoEntry
	mu        sync.Mutex
	closed    bool
	closeOnce sync.Once
}

func newFIFO(capacity int) *fifo {
	if capacity <= 0 {
		capacity = defaultFIFOCapacity
	}
	return &fifo{ch: make(chan fifoEntry, capacity)}
}

func (f *fifo) push(ctx context.Context, e fifoEntry) error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return &ValidationError{Message: "enqueue after end-of-stream"}
	}
	if e.eos {
		f.closed = true
	}
	f.mu.Unlock()

	select {
	case f.ch <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fifo) pop(ctx context.Context) (fifoEntry, error) {
	select {
	case e := <-f.ch:
		return e, nil
	case <-ctx.Done():
		return fifoEntry{}, ctx.Err()
	}
}

// Port is the runtime state of a single input or output on a node.
type Port struct {
	Name      string
	Direction Direction
	Schema    Schema

	mu    sync.Mutex
	q     *fifo // lazily allocated, streaming ports only
	value any
	has   bool
}

// NewPort declares a port instance; its FIFO (if streaming) is allocated
// lazily by EnsureQueue, which must run before the scheduler launches
// consumer tasks (I2/I4).
func NewPort(name string, dir Direction, schema Schema) *Port {
	return &Port{Name: name, Direction: dir, Schema: schema}
}

// EnsureQueue lazily allocates the port's FIFO. Idempotent.
func (p *Port) EnsureQueue(highWaterMark int) {
	if p.Schema.Kind != KindStreaming {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.q == nil {
		p.q = newFIFO(highWaterMark)
	}
}

func (p *Port) queue() *fifo {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.q
}

// Push enqueues a chunk. It is a suspension point when the FIFO's
// high-water mark is engaged.
func (p *Port) Push(ctx context.Context, chunk *Chunk) error {
	q := p.queue()
	if q == nil {
		return &ValidationError{Port: p.Name, Message: "streaming port not initialized"}
	}
	return q.push(ctx, fifoEntry{chunk: chunk})
}

// PushEOS enqueues the end-of-stream sentinel. Safe to call more than
// once; subsequent enqueues (of any kind) after the first are rejected by
// the FIFO itself, honoring I2.
func (p *Port) PushEOS(ctx context.Context) error {
	q := p.queue()
	if q == nil {
		return nil
	}
	err := q.push(ctx, fifoEntry{eos: true})
	if ve, ok := err.(*ValidationError); ok && ve.Message == "enqueue after end-of-stream" {
		return nil
	}
	return err
}

// Pop removes the next entry, blocking until one is available or ctx is
// cancelled. ok is false and chunk is nil on EOS.
func (p *Port) Pop(ctx context.Context) (chunk *Chunk, ok bool, err error) {
	q := p.queue()
	if q == nil {
		return nil, false, &ValidationError{Port: p.Name, Message: "streaming port not initialized"}
	}
	e, err := q.pop(ctx)
	if err != nil {
		return nil, false, err
	}
	if e.eos {
		return nil, false, nil
	}
	return e.chunk, true, nil
}

// SetValue writes a value port's latched cell.
func (p *Port) SetValue(v any) error {
	if p.Schema.Kind != KindValue {
		return &ValidationError{Port: p.Name, Message: "set_value on a streaming port"}
	}
	if err := p.Schema.Validate(v); err != nil {
		return &ValidationError{Port: p.Name, Message: err.Error(), Cause: err}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = v
	p.has = true
	return nil
}

// GetValue reads a value port's cell; it fails if the cell is empty (I3).
func (p *Port) GetValue() (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.has {
		return nil, &ValidationError{Port: p.Name, Message: "get_value on an empty cell"}
	}
	return p.value, nil
}

// HasValue reports whether the cell has been written at least once.
func (p *Port) HasValue() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.has
}
