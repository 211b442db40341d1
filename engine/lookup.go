package engine

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/alt-coder/dataflow-engine/core"
)

// nodeReturnStore is the scheduler's record of each task-driven node's run
// return value, guarded for concurrent writes from hybrid-node goroutines
// against concurrent reads from the template resolver.
type nodeReturnStore struct {
	mu sync.RWMutex
	m  map[string]any
}

func newNodeReturnStore() *nodeReturnStore {
	return &nodeReturnStore{m: map[string]any{}}
}

func (s *nodeReturnStore) set(nodeID string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[nodeID] = v
}

func (s *nodeReturnStore) get(nodeID string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[nodeID]
	return v, ok
}

// contextLookup adapts a running Context (plus the node-return map the
// scheduler maintains) to template.Lookup.
type contextLookup struct {
	x           *core.Context
	nodeReturns *nodeReturnStore
}

func (l *contextLookup) GlobalsJSON() ([]byte, error) {
	return json.Marshal(l.x.Globals())
}

func (l *contextLookup) NodeOutputJSON(nodeID string) ([]byte, error) {
	v, ok := l.nodeReturns.get(nodeID)
	if !ok {
		return nil, fmt.Errorf("no recorded output for node %q", nodeID)
	}
	return json.Marshal(v)
}
