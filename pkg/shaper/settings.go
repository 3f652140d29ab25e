package shaper

import (
	"fmt"
	"math"
	"sort"
)

// Settings is a read-only, nested string-keyed mapping. The zero value is an
// empty bundle. Every accessor hands out copies, so a Settings value cannot be
// changed once constructed.
type Settings struct {
	m map[string]any
}

// NewSettings deep-copies m. Nested maps keyed by any (as some YAML decoders
// produce) are normalized to string keys.
func NewSettings(m map[string]any) Settings {
	if len(m) == 0 {
		return Settings{}
	}
	return Settings{m: copyValue(m).(map[string]any)}
}

func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[k] = copyValue(x)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, x := range t {
			out[fmt.Sprint(k)] = copyValue(x)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = copyValue(x)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = x
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = copyValue(x)
		}
		return out
	default:
		return v
	}
}

func (s Settings) Len() int { return len(s.m) }

// Keys returns the top-level keys, sorted.
func (s Settings) Keys() []string {
	keys := make([]string, 0, len(s.m))
	for k := range s.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s Settings) Has(key string) bool {
	v, ok := s.m[key]
	return ok && v != nil
}

// Get returns a copy of the raw value stored under key.
func (s Settings) Get(key string) (any, bool) {
	v, ok := s.m[key]
	if !ok || v == nil {
		return nil, false
	}
	return copyValue(v), true
}

// Lookup walks nested maps along path.
func (s Settings) Lookup(path ...string) (any, bool) {
	var cur any = s.m
	for _, p := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[p]; !ok || cur == nil {
			return nil, false
		}
	}
	return copyValue(cur), true
}

// Map returns a deep copy of the whole bundle.
func (s Settings) Map() map[string]any {
	if s.m == nil {
		return map[string]any{}
	}
	return copyValue(s.m).(map[string]any)
}

// Sub returns the nested bundle under key; a missing key yields an empty bundle.
func (s Settings) Sub(key string) (Settings, error) {
	v, ok := s.m[key]
	if !ok || v == nil {
		return Settings{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return Settings{}, typeErr(key, "mapping", v)
	}
	return NewSettings(m), nil
}

func (s Settings) String(key string) (string, error) {
	if !s.Has(key) {
		return "", &ConfigurationError{Key: key, Reason: "required key is missing"}
	}
	return s.StringOr(key, "")
}

func (s Settings) StringOr(key, def string) (string, error) {
	v, ok := s.m[key]
	if !ok || v == nil {
		return def, nil
	}
	str, ok := v.(string)
	if !ok {
		return "", typeErr(key, "string", v)
	}
	return str, nil
}

func (s Settings) Float(key string) (float64, error) {
	if !s.Has(key) {
		return 0, &ConfigurationError{Key: key, Reason: "required key is missing"}
	}
	return s.FloatOr(key, 0)
}

func (s Settings) FloatOr(key string, def float64) (float64, error) {
	v, ok := s.m[key]
	if !ok || v == nil {
		return def, nil
	}
	f, ok := AsFloat(v)
	if !ok {
		return 0, typeErr(key, "number", v)
	}
	return f, nil
}

func (s Settings) IntOr(key string, def int) (int, error) {
	f, err := s.FloatOr(key, float64(def))
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, typeErr(key, "integer", s.m[key])
	}
	return int(f), nil
}

func (s Settings) BoolOr(key string, def bool) (bool, error) {
	v, ok := s.m[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, typeErr(key, "bool", v)
	}
	return b, nil
}

// StringsOr reads a list of strings. A single string is accepted as a one-element list.
func (s Settings) StringsOr(key string, def []string) ([]string, error) {
	v, ok := s.m[key]
	if !ok || v == nil {
		return def, nil
	}
	switch t := v.(type) {
	case string:
		return []string{t}, nil
	case []any:
		out := make([]string, len(t))
		for i, x := range t {
			str, ok := x.(string)
			if !ok {
				return nil, typeErr(fmt.Sprintf("%s[%d]", key, i), "string", x)
			}
			out[i] = str
		}
		return out, nil
	}
	return nil, typeErr(key, "list of strings", v)
}

// StringMapOr reads a mapping of strings to strings.
func (s Settings) StringMapOr(key string, def map[string]string) (map[string]string, error) {
	v, ok := s.m[key]
	if !ok || v == nil {
		return def, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, typeErr(key, "mapping", v)
	}
	out := make(map[string]string, len(m))
	for k, x := range m {
		str, ok := x.(string)
		if !ok {
			return nil, typeErr(key+"."+k, "string", x)
		}
		out[k] = str
	}
	return out, nil
}

// List reads a list value; each element is returned as a copy.
func (s Settings) List(key string) ([]any, error) {
	v, ok := s.m[key]
	if !ok || v == nil {
		return nil, nil
	}
	l, ok := v.([]any)
	if !ok {
		return nil, typeErr(key, "list", v)
	}
	return copyValue(l).([]any), nil
}

func typeErr(key, want string, got any) error {
	return &ConfigurationError{Key: key, Reason: fmt.Sprintf("expected %s, got %T", want, got)}
}
