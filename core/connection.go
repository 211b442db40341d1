package core

import "fmt"

// EdgeKind classifies a connection by the schema kind of the ports it
// joins. Streaming edges may form cycles; value edges may not.
type EdgeKind string

const (
	EdgeStreaming EdgeKind = "streaming"
	EdgeValue     EdgeKind = "value"
)

// Endpoint names one side of a connection.
type Endpoint struct {
	NodeID string
	Port   string
}

func (e Endpoint) String() string { return e.NodeID + "." + e.Port }

// Connection is a single directed wire between two port instances.
type Connection struct {
	Src  Endpoint
	Dst  Endpoint
	Kind EdgeKind
}

// ConnectionManager owns the full set of connections in a loaded graph and
// the indices the scheduler and router use to resolve fan-out at runtime.
type ConnectionManager struct {
	all []Connection

	bySrc map[Endpoint][]Connection
	byDst map[Endpoint][]Connection
}

// NewConnectionManager builds indices over a fixed connection set.
func NewConnectionManager(conns []Connection) *ConnectionManager {
	cm := &ConnectionManager{
		all:   conns,
		bySrc: map[Endpoint][]Connection{},
		byDst: map[Endpoint][]Connection{},
	}
	for _, c := range conns {
		cm.bySrc[c.Src] = append(cm.bySrc[c.Src], c)
		cm.byDst[c.Dst] = append(cm.byDst[c.Dst], c)
	}
	return cm
}

// All returns every connection in declaration order.
func (cm *ConnectionManager) All() []Connection { return cm.all }

// From returns every connection whose source is the given endpoint, in
// declaration order (used for fan-out).
func (cm *ConnectionManager) From(ep Endpoint) []Connection { return cm.bySrc[ep] }

// To returns every connection whose destination is the given endpoint
// (used to detect multiple writers to a value port).
func (cm *ConnectionManager) To(ep Endpoint) []Connection { return cm.byDst[ep] }

// ValueEdges returns only the value-kind connections, the subgraph the
// topological sort and cycle check operate over.
func (cm *ConnectionManager) ValueEdges() []Connection {
	var out []Connection
	for _, c := range cm.all {
		if c.Kind == EdgeValue {
			out = append(out, c)
		}
	}
	return out
}

// DetectValueCycle runs a Kahn topological sort restricted to nodeIDs and
// the value-edge subgraph between them, returning a Cycle configuration
// error naming one offending node if the graph is not a DAG. nodeIDs fixes
// iteration and tie-break order for determinism.
func DetectValueCycle(nodeIDs []string, edges []Connection) ([]string, error) {
	indegree := map[string]int{}
	adj := map[string][]string{}
	known := map[string]bool{}
	for _, id := range nodeIDs {
		indegree[id] = 0
		known[id] = true
	}
	for _, e := range edges {
		if !known[e.Src.NodeID] || !known[e.Dst.NodeID] {
			continue
		}
		adj[e.Src.NodeID] = append(adj[e.Src.NodeID], e.Dst.NodeID)
		indegree[e.Dst.NodeID]++
	}

	var queue []string
	for _, id := range nodeIDs {
		if indegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	var order []string
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		order = append(order, id)
		for _, next := range adj[id] {
			indegree[next]--
			if indegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) != len(nodeIDs) {
		for _, id := range nodeIDs {
			if indegree[id] > 0 {
				return nil, &ConfigurationError{Kind: ErrCycle, NodeID: id, Message: fmt.Sprintf("node %q participates in a value-edge cycle", id)}
			}
		}
	}
	return order, nil
}
