package nodes

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alt-coder/dataflow-engine/core"
)

// WebsocketNode bridges a remote websocket connection into the graph: it
// streams every inbound text frame out on "inbound", and forwards every
// chunk arriving on "outbound" as a text frame to the peer. It is hybrid so
// that it runs in the task-driven walk with a rendered config; since it
// declares no value outputs, the walk does not wait for the dial to finish.
// Outbound delivery happens through OnChunk, the scheduler's regular
// per-port consumer task, rather than a second reader of the same FIFO.
type WebsocketNode struct {
	*core.BaseNode
	dial func(url string) (*websocket.Conn, error)

	mu   sync.Mutex
	conn *websocket.Conn
}

func defaultDialer(url string) (*websocket.Conn, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	return conn, err
}

func newWebsocketNode(id string, rawConfig map[string]any) (core.Node, error) {
	inputs := map[string]*core.Port{
		"outbound": core.NewPort("outbound", core.DirIn, core.Atom(core.KindStreaming, core.TagString)),
	}
	outputs := map[string]*core.Port{
		"inbound": core.NewPort("inbound", core.DirOut, core.Atom(core.KindStreaming, core.TagString)),
	}
	return &WebsocketNode{
		BaseNode: core.NewBaseNode(id, "websocket_node", core.ModeHybrid, rawConfig, inputs, outputs),
		dial:     defaultDialer,
	}, nil
}

func (n *WebsocketNode) Run(ctx context.Context, x *core.Context) (any, error) {
	url := asString(n.GetConfig("url", ""), "")
	if url == "" {
		n.MarkDone()
		return nil, &core.NodeExecutionError{NodeID: n.ID(), Message: "websocket_node requires a url"}
	}

	conn, err := n.dial(url)
	if err != nil {
		n.MarkDone()
		return nil, &core.NodeExecutionError{NodeID: n.ID(), Message: "websocket dial failed", Cause: err}
	}
	defer conn.Close()

	n.mu.Lock()
	n.conn = conn
	n.mu.Unlock()
	n.MarkDone()

	for {
		select {
		case <-ctx.Done():
			conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			n.CloseOutput(ctx, "inbound")
			return nil, nil
		default:
		}
		_, msg, err := conn.ReadMessage()
		if err != nil {
			n.CloseOutput(ctx, "inbound")
			return nil, nil
		}
		if err := n.Emit(ctx, "inbound", string(msg)); err != nil {
			x.LogEvent("ERROR", n.ID(), "emit inbound failed: "+err.Error())
		}
	}
}

// OnChunk forwards an outbound text chunk to the peer once the connection
// has been established; chunks arriving before that (racing the consumer
// task against Run's dial) are rejected with a NodeExecutionError, since
// there is nothing to write to yet; the scheduler handles it like any
// other OnChunk failure.
func (n *WebsocketNode) OnChunk(ctx context.Context, portName string, chunk *core.Chunk) error {
	if portName != "outbound" {
		return nil
	}
	n.mu.Lock()
	conn := n.conn
	n.mu.Unlock()
	if conn == nil {
		return &core.NodeExecutionError{NodeID: n.ID(), Message: "outbound chunk arrived before the connection was established"}
	}
	text, _ := chunk.Payload.(string)
	return conn.WriteMessage(websocket.TextMessage, []byte(text))
}

func init() {
	core.RegisterType("websocket_node", newWebsocketNode)
}
