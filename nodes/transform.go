package nodes

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alt-coder/dataflow-engine/core"
	"github.com/tidwall/gjson"
)

// Transformer resolves the "extract" operation's field list against input
// data. Left pluggable so a caller can swap in a different query language
// than the default dotted-path/gjson one, the same way ConditionEvaluator
// leaves the condition expression language open.
type Transformer interface {
	Extract(data map[string]any, fields []string) (map[string]any, error)
}

// gjsonTransformer extracts fields by dotted path via gjson, the same
// library the template resolver uses for node-output and global-variable
// lookups.
type gjsonTransformer struct{}

func (gjsonTransformer) Extract(data map[string]any, fields []string) (map[string]any, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	result := make(map[string]any, len(fields))
	for _, field := range fields {
		res := gjson.GetBytes(raw, field)
		if res.Exists() {
			result[field] = res.Value()
		}
	}
	return result, nil
}

// TransformNode applies one of a small set of structural operations to its
// input data. An arbitrary-expression "custom" operation is deliberately
// not implemented: there is no safe way to evaluate an untrusted
// expression against a data dict in Go without embedding a scripting
// engine, which is out of scope here.
type TransformNode struct {
	*core.BaseNode
	transformer Transformer
}

// NewTransformNode lets callers inject their own Transformer; the registry
// factory below installs the default gjson-backed one.
func NewTransformNode(id string, rawConfig map[string]any, transformer Transformer) *TransformNode {
	inputs := map[string]*core.Port{
		"input_data": core.NewPort("input_data", core.DirIn, core.Struct(core.KindValue, map[string]core.Tag{
			"data":      core.TagAny,
			"operation": core.TagString,
			"config":    core.TagDict,
		})),
	}
	outputs := map[string]*core.Port{
		"output": core.NewPort("output", core.DirOut, core.Struct(core.KindValue, map[string]core.Tag{
			"result":    core.TagAny,
			"operation": core.TagString,
			"success":   core.TagBoolean,
		})),
	}
	return &TransformNode{
		BaseNode:    core.NewBaseNode(id, "transform_node", core.ModeSequential, rawConfig, inputs, outputs),
		transformer: transformer,
	}
}

func newTransformNode(id string, rawConfig map[string]any) (core.Node, error) {
	return NewTransformNode(id, rawConfig, gjsonTransformer{}), nil
}

func (n *TransformNode) Run(ctx context.Context, x *core.Context) (any, error) {
	operation := asString(n.GetConfig("operation", ""), "")
	opConfig := asMap(n.GetConfig("config", map[string]any{}))
	data := asMap(n.GetConfig("data", map[string]any{}))

	if n.Inputs()["input_data"].HasValue() {
		if v, err := n.GetValue("input_data"); err == nil {
			in := asMap(v)
			if d, ok := in["data"]; ok {
				data = asMap(d)
			}
			if op, ok := in["operation"].(string); ok && op != "" {
				operation = op
			}
			if c, ok := in["config"]; ok {
				opConfig = asMap(c)
			}
		}
	}

	if operation == "" {
		return nil, &core.NodeExecutionError{NodeID: n.ID(), Message: "transform_node requires an operation"}
	}

	var result any
	var err error
	switch operation {
	case "extract":
		result, err = n.extract(data, opConfig)
	case "map":
		result = mapFields(data, opConfig)
	case "filter":
		result = filterFields(data, opConfig)
	case "aggregate":
		result = aggregate(data, opConfig)
	default:
		err = fmt.Errorf("unsupported transform operation %q", operation)
	}

	if err != nil {
		n.SetValue("output", map[string]any{"result": nil, "operation": operation, "success": false})
		return nil, &core.NodeExecutionError{NodeID: n.ID(), Message: "transform failed", Cause: err}
	}

	out := map[string]any{"result": result, "operation": operation, "success": true}
	if serr := n.SetValue("output", out); serr != nil {
		return nil, serr
	}
	x.LogEvent("INFO", n.ID(), "transform complete: "+operation)
	return out, nil
}

func (n *TransformNode) extract(data map[string]any, cfg map[string]any) (map[string]any, error) {
	if n.transformer == nil {
		return nil, fmt.Errorf("transform_node has no transformer configured for extract")
	}
	rawFields, _ := cfg["fields"].([]any)
	fields := make([]string, 0, len(rawFields))
	for _, f := range rawFields {
		if s, ok := f.(string); ok {
			fields = append(fields, s)
		}
	}
	return n.transformer.Extract(data, fields)
}

func mapFields(data map[string]any, cfg map[string]any) map[string]any {
	result := map[string]any{}
	mapping := asMap(cfg["mapping"])
	for oldKey, newKeyRaw := range mapping {
		newKey, ok := newKeyRaw.(string)
		if !ok {
			continue
		}
		if v, ok := data[oldKey]; ok {
			result[newKey] = v
		}
	}
	if asBool(cfg["keep_unmapped"], false) {
		for k, v := range data {
			if _, mapped := mapping[k]; !mapped {
				result[k] = v
			}
		}
	}
	return result
}

func filterFields(data map[string]any, cfg map[string]any) map[string]any {
	result := make(map[string]any, len(data))
	for k, v := range data {
		result[k] = v
	}
	conditions, _ := cfg["conditions"].([]any)
	for _, c := range conditions {
		cond := asMap(c)
		key, _ := cond["key"].(string)
		operator := asString(cond["operator"], "==")
		value := cond["value"]
		cur, present := result[key]
		if !present {
			continue
		}
		switch operator {
		case "==":
			if cur != value {
				delete(result, key)
			}
		case "!=":
			if cur == value {
				delete(result, key)
			}
		}
	}
	return result
}

func aggregate(data map[string]any, cfg map[string]any) any {
	operation := asString(cfg["operation"], "sum")
	field, _ := cfg["field"].(string)
	if field == "" {
		return data
	}
	values, ok := data[field].([]any)
	if !ok {
		return data
	}
	nums := make([]float64, 0, len(values))
	for _, v := range values {
		nums = append(nums, asFloat(v, 0))
	}
	switch operation {
	case "sum":
		var s float64
		for _, v := range nums {
			s += v
		}
		return s
	case "avg":
		if len(nums) == 0 {
			return 0
		}
		var s float64
		for _, v := range nums {
			s += v
		}
		return s / float64(len(nums))
	case "count":
		return len(nums)
	case "max":
		if len(nums) == 0 {
			return nil
		}
		m := nums[0]
		for _, v := range nums {
			if v > m {
				m = v
			}
		}
		return m
	case "min":
		if len(nums) == 0 {
			return nil
		}
		m := nums[0]
		for _, v := range nums {
			if v < m {
				m = v
			}
		}
		return m
	}
	return data
}

func init() {
	core.RegisterType("transform_node", newTransformNode)
}
