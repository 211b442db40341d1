package core

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// LogEvent is one append-only entry in a Context's internal event log.
// NodeID is empty for engine-level events.
type LogEvent struct {
	ID        string
	Timestamp time.Time
	Level     string
	NodeID    string
	Message   string
}

// Context is the execution-scoped state shared by every node in a single
// run: a set of named value outputs (for cross-node value reads that
// bypass ports, e.g. template rendering), a dotted-path global-variable
// store, and an append-only log.
type Context struct {
	StartTime time.Time

	outputs cmap.ConcurrentMap[string, any]

	globalsMu sync.RWMutex
	globals   map[string]any

	logMu sync.Mutex
	log   []LogEvent
}

// NewContext constructs an empty Context, stamped with the current time as
// its run start.
func NewContext() *Context {
	return &Context{
		StartTime: time.Now(),
		outputs:   cmap.New[any](),
		globals:   map[string]any{},
	}
}

// SetOutput records node-qualified output, keyed "<nodeID>.<port>", used by
// the template resolver's nodes['id'].field accessor.
func (x *Context) SetOutput(nodeID, port string, value any) {
	x.outputs.Set(nodeID+"."+port, value)
}

// GetOutput looks up a previously recorded node-qualified output.
func (x *Context) GetOutput(nodeID, port string) (any, bool) {
	return x.outputs.Get(nodeID + "." + port)
}

// SetGlobalVar writes a value at a dotted path in the global-variable
// namespace, creating intermediate maps as needed.
func (x *Context) SetGlobalVar(dottedKey string, value any) {
	x.globalsMu.Lock()
	defer x.globalsMu.Unlock()
	setDotted(x.globals, dottedKey, value)
}

// GetGlobalVar reads a dotted path from the global-variable namespace,
// returning def if any segment is missing or not a map.
func (x *Context) GetGlobalVar(dottedKey string, def any) any {
	x.globalsMu.RLock()
	defer x.globalsMu.RUnlock()
	v, ok := getDotted(x.globals, dottedKey)
	if !ok {
		return def
	}
	return v
}

// Globals returns a snapshot copy of the global-variable namespace, used
// by the template resolver to build its lookup document.
func (x *Context) Globals() map[string]any {
	x.globalsMu.RLock()
	defer x.globalsMu.RUnlock()
	return deepCopyMap(x.globals)
}

// LogEvent appends a structured event to the run's internal log.
func (x *Context) LogEvent(level, nodeID, message string) {
	x.logMu.Lock()
	defer x.logMu.Unlock()
	x.log = append(x.log, LogEvent{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Level:     level,
		NodeID:    nodeID,
		Message:   message,
	})
}

// Events returns a copy of the accumulated log.
func (x *Context) Events() []LogEvent {
	x.logMu.Lock()
	defer x.logMu.Unlock()
	out := make([]LogEvent, len(x.log))
	copy(out, x.log)
	return out
}

// getDotted walks a nested map[string]any by a dot-separated key path.
func getDotted(m map[string]any, dottedKey string) (any, bool) {
	if m == nil {
		return nil, false
	}
	parts := strings.Split(dottedKey, ".")
	var cur any = m
	for _, p := range parts {
		cm, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		v, present := cm[p]
		if !present {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// setDotted writes a value at a dot-separated key path, creating
// intermediate map[string]any levels as needed. A non-map intermediate is
// overwritten.
func setDotted(m map[string]any, dottedKey string, value any) {
	parts := strings.Split(dottedKey, ".")
	cur := m
	for i, p := range parts {
		if i == len(parts)-1 {
			cur[p] = value
			return
		}
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[p] = next
		}
		cur = next
	}
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if nested, ok := v.(map[string]any); ok {
			out[k] = deepCopyMap(nested)
		} else {
			out[k] = v
		}
	}
	return out
}
