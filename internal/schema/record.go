// Package schema validates decoded alert records and binds them onto typed models.
//
// Records come from two decoders: Avro (hamba/avro into map[string]any) and
// JSON (encoding/json with UseNumber). Both are normalized here, so numeric
// values may be any Go integer or float type, json.Number, or an Avro union
// wrapper such as {"double": 1.5}.
package schema

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/boom-astro/babamul/internal/domain"
)

// Record is one decoded key-value record.
type Record = map[string]any

// unionBranches are the Avro type names that can wrap a union value.
var unionBranches = map[string]struct{}{
	"null": {}, "boolean": {}, "int": {}, "long": {}, "float": {},
	"double": {}, "bytes": {}, "string": {}, "array": {}, "map": {},
}

// Unwrap strips Avro union wrappers: single-key maps keyed by a primitive
// type name or by a namespaced record name.
func Unwrap(v any) any {
	return unwrap(v, true)
}

func unwrap(v any, allowNamed bool) any {
	for {
		m, ok := v.(map[string]any)
		if !ok || len(m) != 1 {
			return v
		}
		var key string
		var inner any
		for k, val := range m {
			key, inner = k, val
		}
		if _, ok := unionBranches[key]; !ok && !(allowNamed && strings.Contains(key, ".")) {
			return v
		}
		v = inner
	}
}

// Lookup returns the first of names present in rec, unwrapped.
// A key holding null counts as present with a nil value.
func Lookup(rec Record, names ...string) (v any, present bool) {
	for _, n := range names {
		if raw, ok := rec[n]; ok {
			return Unwrap(raw), true
		}
	}
	return nil, false
}

// AsRecord asserts v is a nested record.
func AsRecord(path string, v any) (Record, error) {
	m, ok := Unwrap(v).(map[string]any)
	if !ok {
		return nil, mismatch(path, "record", v)
	}
	return m, nil
}

// AsList asserts v is a list.
func AsList(path string, v any) ([]any, error) {
	switch l := Unwrap(v).(type) {
	case []any:
		return l, nil
	case []map[string]any:
		out := make([]any, len(l))
		for i := range l {
			out[i] = l[i]
		}
		return out, nil
	}
	return nil, mismatch(path, "list", v)
}

// RequiredRecord returns the nested record under the first present name.
func RequiredRecord(rec Record, path string, names ...string) (Record, error) {
	v, ok := Lookup(rec, names...)
	if !ok || v == nil {
		return nil, Missing(path)
	}
	return AsRecord(path, v)
}

// OptionalRecord is RequiredRecord for nullable records. It returns nil when absent or null.
func OptionalRecord(rec Record, path string, names ...string) (Record, error) {
	v, ok := Lookup(rec, names...)
	if !ok || v == nil {
		return nil, nil
	}
	return AsRecord(path, v)
}

// OptionalList returns the list under the first present name.
// present is false when every name is absent or null.
func OptionalList(rec Record, path string, names ...string) (list []any, present bool, err error) {
	v, ok := Lookup(rec, names...)
	if !ok || v == nil {
		return nil, false, nil
	}
	list, err = AsList(path, v)
	if err != nil {
		return nil, false, err
	}
	return list, true, nil
}

// Float converts a numeric value.
func Float(path string, v any) (float64, error) {
	switch n := Unwrap(v).(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, invalid(path, "invalid number %q", n.String())
		}
		return f, nil
	}
	return 0, mismatch(path, "number", v)
}

// Int converts an integral value. Floats must have no fractional part.
func Int(path string, v any) (int64, error) {
	switch n := Unwrap(v).(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return integral(path, n)
	case float32:
		return integral(path, float64(n))
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return 0, invalid(path, "invalid integer %q", n.String())
		}
		return integral(path, f)
	}
	return 0, mismatch(path, "integer", v)
}

func integral(path string, f float64) (int64, error) {
	// float64(math.MaxInt64) rounds up to 2^63, so compare against the exact bounds.
	if f != math.Trunc(f) || f >= 0x1p63 || f < -0x1p63 {
		return 0, invalid(path, "expected integer, got %v", f)
	}
	return int64(f), nil
}

// Int32 converts an integral value that must fit in 32 bits.
func Int32(path string, v any) (int32, error) {
	i, err := Int(path, v)
	if err != nil {
		return 0, err
	}
	if i < math.MinInt32 || i > math.MaxInt32 {
		return 0, invalid(path, "value %d out of int32 range", i)
	}
	return int32(i), nil
}

// String asserts v is a string.
func String(path string, v any) (string, error) {
	s, ok := Unwrap(v).(string)
	if !ok {
		return "", mismatch(path, "string", v)
	}
	return s, nil
}

// Identifier accepts a string, an integer or a boolean and returns its text form.
func Identifier(path string, v any) (domain.Identifier, error) {
	switch x := Unwrap(v).(type) {
	case string:
		return domain.Identifier(x), nil
	case bool:
		return domain.Identifier(strconv.FormatBool(x)), nil
	case json.Number:
		return domain.Identifier(x.String()), nil
	}
	i, err := Int(path, v)
	if err != nil {
		return "", mismatch(path, "identifier", v)
	}
	return domain.Identifier(strconv.FormatInt(i, 10)), nil
}

// Bool asserts v is a boolean.
func Bool(path string, v any) (bool, error) {
	b, ok := Unwrap(v).(bool)
	if !ok {
		return false, mismatch(path, "boolean", v)
	}
	return b, nil
}

// Bytes accepts raw bytes or a standard base64 string.
func Bytes(path string, v any) ([]byte, error) {
	switch b := Unwrap(v).(type) {
	case []byte:
		return b, nil
	case string:
		out, err := base64.StdEncoding.DecodeString(b)
		if err != nil {
			return nil, invalid(path, "invalid base64: %v", err)
		}
		return out, nil
	}
	return nil, mismatch(path, "bytes", v)
}

// Band validates a filter name.
func Band(path string, v any) (domain.Band, error) {
	s, err := String(path, v)
	if err != nil {
		return "", err
	}
	b, err := domain.ParseBand(s)
	if err != nil {
		return "", invalid(path, "%v", err)
	}
	return b, nil
}

// Join builds a child path.
func Join(parent, child string) string {
	if parent == "" {
		return child
	}
	return parent + "." + child
}

// Index builds a list element path.
func Index(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}

// Missing reports an absent or null required field.
func Missing(path string) error {
	return &domain.DeserializationError{Path: path, Reason: "required field is missing"}
}

func invalid(path, format string, args ...any) error {
	return &domain.DeserializationError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

func mismatch(path, want string, got any) error {
	return &domain.DeserializationError{Path: path, Reason: fmt.Sprintf("expected %s, got %T", want, got)}
}
