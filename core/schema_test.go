package core

import "testing"

func TestSchema_Equals(t *testing.T) {
	tests := []struct {
		name     string
		a        Schema
		b        Schema
		expected bool
	}{
		{
			name:     "identical atomic",
			a:        Atom(KindValue, TagString),
			b:        Atom(KindValue, TagString),
			expected: true,
		},
		{
			name:     "different kind",
			a:        Atom(KindValue, TagString),
			b:        Atom(KindStreaming, TagString),
			expected: false,
		},
		{
			name:     "any matches string",
			a:        Atom(KindValue, TagAny),
			b:        Atom(KindValue, TagString),
			expected: true,
		},
		{
			name:     "atomic vs structured never match",
			a:        Atom(KindValue, TagString),
			b:        Struct(KindValue, map[string]Tag{"x": TagString}),
			expected: false,
		},
		{
			name:     "structured field set mismatch",
			a:        Struct(KindValue, map[string]Tag{"x": TagString}),
			b:        Struct(KindValue, map[string]Tag{"x": TagString, "y": TagInteger}),
			expected: false,
		},
		{
			name:     "structured with any field",
			a:        Struct(KindValue, map[string]Tag{"x": TagAny}),
			b:        Struct(KindValue, map[string]Tag{"x": TagInteger}),
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equals(tt.b); got != tt.expected {
				t.Errorf("Equals() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestSchema_Validate(t *testing.T) {
	tests := []struct {
		name    string
		schema  Schema
		payload any
		wantErr bool
	}{
		{"string ok", Atom(KindValue, TagString), "hi", false},
		{"string wrong type", Atom(KindValue, TagString), 42, true},
		{"integer ok", Atom(KindValue, TagInteger), 42, false},
		{"float ok", Atom(KindValue, TagFloat), 3.14, false},
		{"boolean ok", Atom(KindValue, TagBoolean), true, false},
		{"any accepts anything", Atom(KindValue, TagAny), []int{1, 2}, false},
		{"list via []any", Atom(KindValue, TagList), []any{1, 2}, false},
		{"list via typed slice", Atom(KindValue, TagList), []int{1, 2}, false},
		{
			"struct ok",
			Struct(KindValue, map[string]Tag{"name": TagString, "age": TagInteger}),
			map[string]any{"name": "a", "age": 1},
			false,
		},
		{
			"struct missing field",
			Struct(KindValue, map[string]Tag{"name": TagString, "age": TagInteger}),
			map[string]any{"name": "a"},
			true,
		},
		{
			"struct extra field rejected",
			Struct(KindValue, map[string]Tag{"name": TagString}),
			map[string]any{"name": "a", "extra": 1},
			true,
		},
		{
			"struct wrong payload type",
			Struct(KindValue, map[string]Tag{"name": TagString}),
			"not a dict",
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schema.Validate(tt.payload)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSchema_String_IncludesShape(t *testing.T) {
	s := Atom(KindValue, TagString)
	if got := s.String(); got != "value(string)" {
		t.Errorf("String() = %q, expected %q", got, "value(string)")
	}
}
