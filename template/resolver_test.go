package template

import "testing"

func TestResolver_RenderString_WholeMarkerCoercion(t *testing.T) {
	tests := []struct {
		name    string
		globals map[string]any
		input   string
		want    any
	}{
		{"integer", map[string]any{"count": 3}, "{{ count }}", int64(3)},
		{"boolean", map[string]any{"flag": true}, "{{ flag }}", true},
		{"string", map[string]any{"name": "ada"}, "{{ name }}", "ada"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(&MapLookup{Globals: tt.globals})
			got, err := r.RenderString(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("RenderString(%q) = %#v, expected %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestResolver_RenderString_MixedTextStaysString(t *testing.T) {
	r := New(&MapLookup{Globals: map[string]any{"name": "ada"}})
	got, err := r.RenderString("hello {{ name }}!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "hello ada!" {
		t.Errorf("RenderString() = %v, expected %q", got, "hello ada!")
	}
}

func TestResolver_RenderString_DottedGlobalPath(t *testing.T) {
	r := New(&MapLookup{Globals: map[string]any{"user": map[string]any{"name": "ada"}}})
	got, err := r.RenderString("{{ user.name }}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ada" {
		t.Errorf("RenderString() = %v, expected ada", got)
	}
}

func TestResolver_RenderString_NodesAccessor(t *testing.T) {
	r := New(&MapLookup{
		NodeOutputs: map[string]map[string]any{
			"fetch": {"result": map[string]any{"status": "ok"}},
		},
	})
	got, err := r.RenderString("{{ nodes['fetch'].result.status }}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" {
		t.Errorf("RenderString() = %v, expected ok", got)
	}
}

func TestResolver_RenderString_NoMarkers_IsIdempotent(t *testing.T) {
	r := New(&MapLookup{})
	got, err := r.RenderString("plain text")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "plain text" {
		t.Errorf("RenderString() = %v, expected unchanged text", got)
	}
}

func TestResolver_RenderString_UnresolvableMarkerLeftIntact(t *testing.T) {
	r := New(&MapLookup{Globals: map[string]any{}})
	got, err := r.RenderString("{{ missing.path }}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "{{ missing.path }}" {
		t.Errorf("RenderString() = %v, expected the marker to be left intact", got)
	}
}

func TestResolver_Render_RecursesThroughMapsAndSlices(t *testing.T) {
	r := New(&MapLookup{Globals: map[string]any{"x": 1}})
	input := map[string]any{
		"a": "{{ x }}",
		"b": []any{"{{ x }}", "literal"},
	}
	got, err := r.Render(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := got.(map[string]any)
	if m["a"] != int64(1) {
		t.Errorf("m[a] = %#v, expected int64(1)", m["a"])
	}
	list := m["b"].([]any)
	if list[0] != int64(1) || list[1] != "literal" {
		t.Errorf("m[b] = %#v, expected [1 literal]", list)
	}
}
