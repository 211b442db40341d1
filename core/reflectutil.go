package core

import "reflect"

// isSlice reports whether v is a slice or array of any element type, used
// to accept list-tagged payloads that are not the canonical []any.
func isSlice(v any) bool {
	if v == nil {
		return false
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}
