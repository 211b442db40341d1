package core

import "fmt"

// Kind classifies a port or schema as carrying a single latched value or an
// unbounded sequence of streaming chunks.
type Kind string

const (
	KindValue     Kind = "value"
	KindStreaming Kind = "streaming"
)

// Tag names an atomic payload shape.
type Tag string

const (
	TagString  Tag = "string"
	TagInteger Tag = "integer"
	TagFloat   Tag = "float"
	TagBoolean Tag = "boolean"
	TagBytes   Tag = "bytes"
	TagDict    Tag = "dict"
	TagList    Tag = "list"
	TagAny     Tag = "any"
)

// Schema declares the kind and shape a port instance or chunk must conform
// to. Shape is either atomic (Fields is nil, Atomic names the tag) or
// structured (Fields maps field name to its atomic tag).
type Schema struct {
	Kind   Kind
	Atomic Tag
	Fields map[string]Tag
}

// Atom builds an atomic schema of the given kind.
func Atom(kind Kind, tag Tag) Schema {
	return Schema{Kind: kind, Atomic: tag}
}

// Struct builds a structured schema over the given fields.
func Struct(kind Kind, fields map[string]Tag) Schema {
	return Schema{Kind: kind, Fields: fields}
}

func tagMatches(a, b Tag) bool {
	return a == TagAny || b == TagAny || a == b
}

// Equals implements the structural schema-equality predicate: kinds must
// match, and shapes must match structurally with `any` acting as a
// wildcard against any atomic tag on the other side.
func (s Schema) Equals(other Schema) bool {
	if s.Kind != other.Kind {
		return false
	}
	structured := s.Fields != nil
	otherStructured := other.Fields != nil
	if structured != otherStructured {
		return false
	}
	if !structured {
		return tagMatches(s.Atomic, other.Atomic)
	}
	if len(s.Fields) != len(other.Fields) {
		return false
	}
	for name, tag := range s.Fields {
		otherTag, ok := other.Fields[name]
		if !ok || !tagMatches(tag, otherTag) {
			return false
		}
	}
	return true
}

func (s Schema) String() string {
	if s.Fields == nil {
		return fmt.Sprintf("%s(%s)", s.Kind, s.Atomic)
	}
	return fmt.Sprintf("%s(%v)", s.Kind, s.Fields)
}

// Validate checks payload against the schema's shape, per the fixed
// tag-to-predicate table (atomic case) or field-by-field (structured
// case); extra fields in a structured payload are rejected.
func (s Schema) Validate(payload any) error {
	if s.Fields == nil {
		return validateAtomic(payload, s.Atomic)
	}
	m, ok := payload.(map[string]any)
	if !ok {
		return fmt.Errorf("expected a dict payload, got %T", payload)
	}
	for name := range m {
		if _, declared := s.Fields[name]; !declared {
			return fmt.Errorf("unexpected field %q", name)
		}
	}
	for name, tag := range s.Fields {
		v, present := m[name]
		if !present {
			return fmt.Errorf("missing required field %q", name)
		}
		if err := validateAtomic(v, tag); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
	}
	return nil
}

func validateAtomic(payload any, tag Tag) error {
	if tag == TagAny {
		return nil
	}
	switch tag {
	case TagString:
		if _, ok := payload.(string); !ok {
			return fmt.Errorf("expected string, got %T", payload)
		}
	case TagInteger:
		switch payload.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		default:
			return fmt.Errorf("expected integer, got %T", payload)
		}
	case TagFloat:
		switch payload.(type) {
		case float32, float64:
		default:
			return fmt.Errorf("expected float, got %T", payload)
		}
	case TagBoolean:
		if _, ok := payload.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", payload)
		}
	case TagBytes:
		if _, ok := payload.([]byte); !ok {
			return fmt.Errorf("expected bytes, got %T", payload)
		}
	case TagDict:
		if _, ok := payload.(map[string]any); !ok {
			return fmt.Errorf("expected dict, got %T", payload)
		}
	case TagList:
		switch payload.(type) {
		case []any:
		default:
			if !isSlice(payload) {
				return fmt.Errorf("expected list, got %T", payload)
			}
		}
	default:
		return fmt.Errorf("unknown schema tag %q", tag)
	}
	return nil
}
