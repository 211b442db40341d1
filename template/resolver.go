// Package template renders {{ expr }} markers embedded in node config
// against a run's global variables and recorded node outputs.
package template

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/tidwall/gjson"
)

// maxPasses bounds recursive re-rendering; exceeding it without converging
// is non-fatal, per the resolver's own contract.
const maxPasses = 10

var marker = regexp.MustCompile(`\{\{\s*(.*?)\s*\}\}`)

// Lookup answers the two bindings a template expression may reference:
// dotted global-variable paths, and nodes['<id>'].<dotted field path>.
type Lookup interface {
	GlobalsJSON() ([]byte, error)
	NodeOutputJSON(nodeID string) ([]byte, error)
}

// Resolver renders template markers found in arbitrary config values
// (strings, and recursively, maps and slices of them) against a Lookup.
type Resolver struct {
	lookup Lookup
}

// New constructs a Resolver bound to the given lookup source.
func New(lookup Lookup) *Resolver {
	return &Resolver{lookup: lookup}
}

var nodesAccess = regexp.MustCompile(`^nodes\[(?:'([^']*)'|"([^"]*)")\]\.(.+)$`)

// evalExpr resolves a single {{ ... }} expression body to a string,
// leaving markers it cannot resolve untouched so a later pass (or a
// deliberately unresolvable expression) is visible in the output.
func (r *Resolver) evalExpr(expr string) (string, bool) {
	if m := nodesAccess.FindStringSubmatch(expr); m != nil {
		nodeID := m[1]
		if nodeID == "" {
			nodeID = m[2]
		}
		path := m[3]
		data, err := r.lookup.NodeOutputJSON(nodeID)
		if err != nil {
			return "", false
		}
		res := gjson.GetBytes(data, path)
		if !res.Exists() {
			return "", false
		}
		return res.String(), true
	}

	data, err := r.lookup.GlobalsJSON()
	if err != nil {
		return "", false
	}
	res := gjson.GetBytes(data, expr)
	if !res.Exists() {
		return "", false
	}
	return res.String(), true
}

// RenderString renders every {{ expr }} marker in s. When s is, in its
// entirety, a single marker, the raw resolved value is returned coerced to
// bool/int/float where the resolved text unambiguously parses as one;
// otherwise resolved values are substituted as text within the string.
func (r *Resolver) RenderString(s string) (any, error) {
	current := s
	for pass := 0; pass < maxPasses; pass++ {
		if !marker.MatchString(current) {
			return current, nil
		}

		if loc := marker.FindStringSubmatchIndex(current); loc != nil && loc[0] == 0 && loc[1] == len(current) {
			expr := current[loc[2]:loc[3]]
			if v, ok := r.evalExpr(expr); ok {
				if coerced, isWhole := coerce(v); isWhole {
					return coerced, nil
				}
				current = v
				continue
			}
			break
		}

		next := marker.ReplaceAllStringFunc(current, func(m string) string {
			sub := marker.FindStringSubmatch(m)
			if sub == nil {
				return m
			}
			v, ok := r.evalExpr(sub[1])
			if !ok {
				return m
			}
			return v
		})
		if next == current {
			return current, nil
		}
		current = next
	}
	return current, nil
}

// coerce attempts to parse a whole-string resolved value as bool or
// numeric text, per the resolver's pass-through rule for purely numeric or
// boolean substitutions.
func coerce(s string) (any, bool) {
	if s == "true" || s == "false" {
		return s == "true", true
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	return s, false
}

// Render recursively walks an arbitrary config value (maps, slices,
// strings, and passthrough scalars) rendering every string leaf.
func (r *Resolver) Render(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return r.RenderString(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			rv, err := r.Render(val)
			if err != nil {
				return nil, err
			}
			out[k] = rv
		}
		return out, nil
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			rv, err := r.Render(val)
			if err != nil {
				return nil, err
			}
			out[i] = rv
		}
		return out, nil
	default:
		return v, nil
	}
}

// MapLookup is the straightforward Lookup backed by plain in-memory maps,
// used both by production callers and by tests.
type MapLookup struct {
	Globals     map[string]any
	NodeOutputs map[string]map[string]any
}

func (m *MapLookup) GlobalsJSON() ([]byte, error) {
	return json.Marshal(m.Globals)
}

func (m *MapLookup) NodeOutputJSON(nodeID string) ([]byte, error) {
	out, ok := m.NodeOutputs[nodeID]
	if !ok {
		return nil, fmt.Errorf("no recorded output for node %q", nodeID)
	}
	return json.Marshal(out)
}
