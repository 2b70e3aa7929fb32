package stream

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/hamba/avro/v2"
	"github.com/hamba/avro/v2/ocf"

	"github.com/boom-astro/babamul/internal/domain"
	"github.com/boom-astro/babamul/internal/schema"
)

// Decoder turns a message payload into a record.
type Decoder interface {
	Decode(data []byte) (schema.Record, error)
}

// OCFDecoder decodes payloads framed as Avro object containers, each
// carrying its writer schema. The first record of a container is the alert.
type OCFDecoder struct {
	mu      sync.Mutex
	schemas map[string]avro.Schema
}

// NewOCFDecoder creates an OCFDecoder.
func NewOCFDecoder() *OCFDecoder {
	return &OCFDecoder{schemas: make(map[string]avro.Schema)}
}

var _ Decoder = (*OCFDecoder)(nil)

// Decode implements Decoder.
func (d *OCFDecoder) Decode(data []byte) (schema.Record, error) {
	dec, err := ocf.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, avroError("read container header", err)
	}
	if !dec.HasNext() {
		if err := dec.Error(); err != nil {
			return nil, avroError("read container block", err)
		}
		return nil, &domain.DeserializationError{Reason: "avro container holds no records"}
	}

	var rec map[string]any
	if err := dec.Decode(&rec); err != nil {
		return nil, avroError("decode record", err)
	}

	s, err := d.writerSchema(dec.Metadata()["avro.schema"])
	if err != nil {
		return nil, err
	}
	return flattenRecord(s, rec), nil
}

func (d *OCFDecoder) writerSchema(raw []byte) (avro.Schema, error) {
	key := string(raw)
	d.mu.Lock()
	defer d.mu.Unlock()
	if s, ok := d.schemas[key]; ok {
		return s, nil
	}
	s, err := avro.Parse(key)
	if err != nil {
		return nil, avroError("parse writer schema", err)
	}
	d.schemas[key] = s
	return s, nil
}

// SchemaDecoder decodes bare Avro binary written with a known schema.
type SchemaDecoder struct {
	schema avro.Schema
}

var _ Decoder = (*SchemaDecoder)(nil)

// NewSchemaDecoder parses schemaJSON. Errors wrap domain.ErrConfiguration.
func NewSchemaDecoder(schemaJSON string) (*SchemaDecoder, error) {
	s, err := avro.Parse(schemaJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: parse avro schema: %v", domain.ErrConfiguration, err)
	}
	return &SchemaDecoder{schema: s}, nil
}

// Decode implements Decoder.
func (d *SchemaDecoder) Decode(data []byte) (schema.Record, error) {
	var rec map[string]any
	if err := avro.Unmarshal(d.schema, data, &rec); err != nil {
		return nil, avroError("decode record", err)
	}
	return flattenRecord(d.schema, rec), nil
}

func avroError(step string, err error) error {
	return &domain.DeserializationError{Reason: fmt.Sprintf("avro: %s: %v", step, err)}
}

func flattenRecord(s avro.Schema, rec map[string]any) schema.Record {
	if m, ok := flatten(s, rec).(map[string]any); ok {
		return m
	}
	return rec
}

// flatten walks v alongside its schema and strips union wrappers, so that a
// nullable field holds its value or nil.
func flatten(s avro.Schema, v any) any {
	if v == nil {
		return nil
	}
	switch s := s.(type) {
	case *avro.RefSchema:
		return flatten(s.Schema(), v)
	case *avro.UnionSchema:
		return flattenUnion(s, v)
	case *avro.RecordSchema:
		m, ok := v.(map[string]any)
		if !ok {
			return v
		}
		for _, f := range s.Fields() {
			if raw, ok := m[f.Name()]; ok {
				m[f.Name()] = flatten(f.Type(), raw)
			}
		}
		return m
	case *avro.ArraySchema:
		list, ok := v.([]any)
		if !ok {
			return v
		}
		for i := range list {
			list[i] = flatten(s.Items(), list[i])
		}
		return list
	case *avro.MapSchema:
		m, ok := v.(map[string]any)
		if !ok {
			return v
		}
		for k := range m {
			m[k] = flatten(s.Values(), m[k])
		}
		return m
	}
	return v
}

func flattenUnion(s *avro.UnionSchema, v any) any {
	if m, ok := v.(map[string]any); ok && len(m) == 1 {
		for key, inner := range m {
			for _, branch := range s.Types() {
				if branchName(branch) == key {
					return flatten(branch, inner)
				}
			}
		}
	}

	// Nullable unions decode to the bare value.
	var only avro.Schema
	for _, branch := range s.Types() {
		if branch.Type() == avro.Null {
			continue
		}
		if only != nil {
			return v
		}
		only = branch
	}
	if only == nil {
		return v
	}
	return flatten(only, v)
}

func branchName(s avro.Schema) string {
	switch s := s.(type) {
	case *avro.RefSchema:
		return s.Schema().FullName()
	case avro.NamedSchema:
		return s.FullName()
	}
	return string(s.Type())
}
