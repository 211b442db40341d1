package nodes

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/alt-coder/dataflow-engine/core"
)

// HTTPNode issues one request per run. net/http is the only reasonable
// choice: no HTTP client library appears anywhere in the reference stack.
type HTTPNode struct {
	*core.BaseNode
	client *http.Client
}

func newHTTPNode(id string, rawConfig map[string]any) (core.Node, error) {
	inputs := map[string]*core.Port{
		"request": core.NewPort("request", core.DirIn, core.Struct(core.KindValue, map[string]core.Tag{
			"method":  core.TagString,
			"url":     core.TagString,
			"headers": core.TagDict,
			"body":    core.TagString,
		})),
	}
	outputs := map[string]*core.Port{
		"response": core.NewPort("response", core.DirOut, core.Struct(core.KindValue, map[string]core.Tag{
			"status":  core.TagInteger,
			"headers": core.TagDict,
			"body":    core.TagString,
		})),
	}
	return &HTTPNode{
		BaseNode: core.NewBaseNode(id, "http_node", core.ModeSequential, rawConfig, inputs, outputs),
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (n *HTTPNode) Run(ctx context.Context, x *core.Context) (any, error) {
	method := asString(n.GetConfig("method", "GET"), "GET")
	url := asString(n.GetConfig("url", ""), "")
	headers := asMap(n.GetConfig("headers", map[string]any{}))
	body := asString(n.GetConfig("body", ""), "")

	if n.Inputs()["request"].HasValue() {
		if v, err := n.GetValue("request"); err == nil {
			in := asMap(v)
			method = asString(in["method"], method)
			url = asString(in["url"], url)
			if h, ok := in["headers"]; ok {
				headers = asMap(h)
			}
			body = asString(in["body"], body)
		}
	}
	if url == "" {
		return nil, &core.NodeExecutionError{NodeID: n.ID(), Message: "http_node requires a url"}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader([]byte(body)))
	if err != nil {
		return nil, &core.NodeExecutionError{NodeID: n.ID(), Message: "building request failed", Cause: err}
	}
	for k, v := range headers {
		req.Header.Set(k, asString(v, ""))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, &core.NodeExecutionError{NodeID: n.ID(), Message: "http request failed", Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &core.NodeExecutionError{NodeID: n.ID(), Message: "reading response body failed", Cause: err}
	}

	respHeaders := map[string]any{}
	for k := range resp.Header {
		respHeaders[k] = resp.Header.Get(k)
	}

	out := map[string]any{
		"status":  resp.StatusCode,
		"headers": respHeaders,
		"body":    string(respBody),
	}
	if err := n.SetValue("response", out); err != nil {
		return nil, err
	}
	x.LogEvent("INFO", n.ID(), "http request complete")
	return out, nil
}

func init() {
	core.RegisterType("http_node", newHTTPNode)
}
