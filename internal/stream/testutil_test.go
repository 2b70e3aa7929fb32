package stream

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/hamba/avro/v2/ocf"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

// fakeReader serves queued messages, then blocks until the context ends.
type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []kafka.Message
	closed    bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	f.mu.Lock()
	if len(f.queue) > 0 {
		msg := f.queue[0]
		f.queue = f.queue[1:]
		f.mu.Unlock()
		return msg, nil
	}
	f.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.committed = append(f.committed, msgs...)
	return nil
}

func (f *fakeReader) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeReader) push(topic string, offset int64, value []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, kafka.Message{Topic: topic, Offset: offset, Value: value})
}

// ztfAlertSchema is a reduced ZTF alert schema with every field the model requires.
const ztfAlertSchema = `{
  "type": "record",
  "name": "Alert",
  "namespace": "babamul.ztf",
  "fields": [
    {"name": "candid", "type": "long"},
    {"name": "objectId", "type": "string"},
    {"name": "candidate", "type": {
      "type": "record",
      "name": "Candidate",
      "fields": [
        {"name": "jd", "type": "double"},
        {"name": "fid", "type": "int"},
        {"name": "pid", "type": "long"},
        {"name": "diffmaglim", "type": "double"},
        {"name": "programid", "type": "int"},
        {"name": "candid", "type": "long"},
        {"name": "isdiffpos", "type": "boolean"},
        {"name": "ra", "type": "double"},
        {"name": "dec", "type": "double"},
        {"name": "magpsf", "type": "double"},
        {"name": "sigmapsf", "type": "double"},
        {"name": "ranr", "type": "double"},
        {"name": "decnr", "type": "double"},
        {"name": "ndethist", "type": "int"},
        {"name": "ncovhist", "type": "int"},
        {"name": "nmtchps", "type": "int"},
        {"name": "drb", "type": "double"},
        {"name": "psfFlux", "type": "double"},
        {"name": "psfFluxErr", "type": "double"},
        {"name": "snr", "type": "double"},
        {"name": "band", "type": "string"}
      ]
    }},
    {"name": "prv_candidates", "type": {"type": "array", "items": {
      "type": "record",
      "name": "Detection",
      "fields": [
        {"name": "jd", "type": "double"},
        {"name": "psfFlux", "type": "double"},
        {"name": "psfFluxErr", "type": "double"},
        {"name": "band", "type": "string"},
        {"name": "ra", "type": "double"},
        {"name": "dec", "type": "double"}
      ]
    }}},
    {"name": "properties", "type": {
      "type": "record",
      "name": "Properties",
      "fields": [
        {"name": "rock", "type": "boolean"},
        {"name": "star", "type": "boolean"},
        {"name": "near_brightstar", "type": "boolean"},
        {"name": "stationary", "type": "boolean"},
        {"name": "photstats", "type": {"type": "map", "values": "double"}}
      ]
    }},
    {"name": "cutoutScience", "type": "bytes"},
    {"name": "cutoutTemplate", "type": "bytes"},
    {"name": "cutoutDifference", "type": "bytes"}
  ]
}`

func ztfAvroRecord(objectID string, candid int64) map[string]any {
	return map[string]any{
		"candid":   candid,
		"objectId": objectID,
		"candidate": map[string]any{
			"jd":         2460000.5,
			"fid":        1,
			"pid":        int64(12345),
			"diffmaglim": 20.5,
			"programid":  1,
			"candid":     candid,
			"isdiffpos":  true,
			"ra":         150.1,
			"dec":        2.2,
			"magpsf":     18.5,
			"sigmapsf":   0.05,
			"ranr":       150.1,
			"decnr":      2.2,
			"ndethist":   3,
			"ncovhist":   10,
			"nmtchps":    2,
			"drb":        0.97,
			"psfFlux":    100.0,
			"psfFluxErr": 5.0,
			"snr":        20.0,
			"band":       "g",
		},
		"prv_candidates": []any{
			map[string]any{"jd": 2459999.5, "psfFlux": 80.0, "psfFluxErr": 5.0, "band": "r", "ra": 150.1, "dec": 2.2},
		},
		"properties": map[string]any{
			"rock":            false,
			"star":            false,
			"near_brightstar": false,
			"stationary":      true,
			"photstats":       map[string]any{},
		},
		"cutoutScience":    []byte("sci"),
		"cutoutTemplate":   []byte("tmpl"),
		"cutoutDifference": []byte("diff"),
	}
}

// encodeOCF writes records into an Avro object container.
func encodeOCF(t *testing.T, schema string, records ...map[string]any) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc, err := ocf.NewEncoder(schema, &buf)
	require.NoError(t, err)
	for _, r := range records {
		require.NoError(t, enc.Encode(r))
	}
	require.NoError(t, enc.Close())
	return buf.Bytes()
}
