package api

import (
	"github.com/boom-astro/babamul/internal/schema"
)

// Response is an undecoded JSON object returned by the service.
type Response = map[string]any

// payload returns the "data" member of an envelope, or v itself.
func payload(v any) any {
	if m, ok := v.(map[string]any); ok {
		if d, ok := m["data"]; ok {
			return d
		}
	}
	return v
}

// payloadRecord returns the envelope payload as a record.
func payloadRecord(path string, v any) (schema.Record, error) {
	return schema.AsRecord(path, payload(v))
}

// payloadList returns the envelope payload as a list. A null payload is empty.
func payloadList(path string, v any) ([]any, error) {
	p := payload(v)
	if p == nil {
		return nil, nil
	}
	return schema.AsList(path, p)
}

// keyed asserts v is an object keyed by caller-supplied names. Unlike
// schema.AsRecord it never treats a single key as a union wrapper.
func keyed(path string, v any) (map[string]any, error) {
	if v == nil {
		return map[string]any{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, schema.Missing(path)
	}
	return m, nil
}
