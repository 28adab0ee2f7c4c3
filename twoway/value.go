package twoway

// Bindings maps a parameter name to its bound value.
type Bindings map[string]any

// IsNegative reports whether a value is negative per spec §3: absent (the
// caller passes nil for a missing key), nil, boolean false, an empty slice,
// or a slice whose every element is itself negative.
func IsNegative(v any) bool {
	if v == nil {
		return true
	}
	if b, ok := v.(bool); ok && !b {
		return true
	}
	if s, ok := asSlice(v); ok {
		if len(s) == 0 {
			return true
		}
		for _, item := range s {
			if !IsNegative(item) {
				return false
			}
		}
		return true
	}
	return false
}

// asSlice normalizes the handful of slice-ish shapes bindings arrive as.
func asSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i, x := range s {
			out[i] = x
		}
		return out, true
	case []int:
		out := make([]any, len(s))
		for i, x := range s {
			out[i] = x
		}
		return out, true
	case []int64:
		out := make([]any, len(s))
		for i, x := range s {
			out[i] = x
		}
		return out, true
	case []float64:
		out := make([]any, len(s))
		for i, x := range s {
			out[i] = x
		}
		return out, true
	default:
		return nil, false
	}
}

// toValueSlice returns v as []any if it is list-shaped, and ok=false otherwise.
func toValueSlice(v any) ([]any, bool) {
	return asSlice(v)
}

func (b Bindings) get(name string) any {
	v, ok := b[name]
	if !ok {
		return nil
	}
	return v
}
