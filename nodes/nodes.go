// Package nodes is a reference node library: a handful of self-registering
// node types covering the streaming and value shapes a workflow
// description commonly needs. Each type registers itself with the default
// registry from an init function, mirroring a decorator-style
// self-registration side effect.
package nodes

// asMap coerces a raw config value read via GetConfig to a plain map,
// returning an empty map for anything else so callers can range safely.
func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func asString(v any, def string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

func asBool(v any, def bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return def
}

func asFloat(v any, def float64) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	}
	return def
}
