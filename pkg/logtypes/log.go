package logtypes

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/valyala/fastjson"
)

// TimestampField is the column every exported row must carry
const TimestampField = "timestamp"

// ErrMissingTimestamp is returned when a row has no string timestamp column
var ErrMissingTimestamp = errors.New("log record has no string timestamp field")

// Field is one non-timestamp column of a log record, kept as raw JSON
type Field struct {
	Key   string
	Value json.RawMessage
}

// Record represents one exported row: a mandatory timestamp plus the
// remaining upstream columns in the order the backend returned them.
type Record struct {
	Timestamp string
	Fields    []Field
}

// NewRecord creates a record with the given timestamp and extra columns
func NewRecord(timestamp string, fields ...Field) Record {
	return Record{Timestamp: timestamp, Fields: fields}
}

// Get returns the raw value of a column, including the timestamp
func (r Record) Get(key string) (json.RawMessage, bool) {
	if key == TimestampField {
		b, _ := json.Marshal(r.Timestamp)
		return b, true
	}
	for _, f := range r.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// MarshalJSON writes the timestamp first followed by the extra columns in order
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	key, _ := json.Marshal(TimestampField)
	ts, err := json.Marshal(r.Timestamp)
	if err != nil {
		return nil, err
	}
	buf.Write(key)
	buf.WriteByte(':')
	buf.Write(ts)

	for _, f := range r.Fields {
		k, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(',')
		buf.Write(k)
		buf.WriteByte(':')
		if len(f.Value) == 0 {
			buf.WriteString("null")
			continue
		}
		buf.Write(f.Value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON parses a single JSON object into the record
func (r *Record) UnmarshalJSON(data []byte) error {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return err
	}
	rec, err := FromValue(v)
	if err != nil {
		return err
	}
	*r = rec
	return nil
}

// FromValue converts a parsed JSON object into a record, preserving column order
func FromValue(v *fastjson.Value) (Record, error) {
	obj, err := v.Object()
	if err != nil {
		return Record{}, fmt.Errorf("log record is not an object: %w", err)
	}

	var rec Record
	found := false
	var tsErr error
	rec.Fields = make([]Field, 0, obj.Len())
	obj.Visit(func(key []byte, val *fastjson.Value) {
		if string(key) == TimestampField {
			s, err := val.StringBytes()
			if err != nil {
				tsErr = err
				return
			}
			rec.Timestamp = string(s)
			found = true
			return
		}
		rec.Fields = append(rec.Fields, Field{
			Key:   string(key),
			Value: json.RawMessage(val.MarshalTo(nil)),
		})
	})
	if tsErr != nil || !found {
		return Record{}, ErrMissingTimestamp
	}
	if len(rec.Fields) == 0 {
		rec.Fields = nil
	}
	return rec, nil
}

// DecodeRecords parses a JSON array of log records
func DecodeRecords(data []byte) ([]Record, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, err
	}
	items, err := v.Array()
	if err != nil {
		return nil, fmt.Errorf("log records are not an array: %w", err)
	}
	recs := make([]Record, 0, len(items))
	for i, item := range items {
		rec, err := FromValue(item)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// QueryResult is the envelope returned by the analytics SQL endpoint.
// Only Data is consumed; the counts are informational.
type QueryResult struct {
	Rows                   int
	RowsBeforeLimitAtLeast int
	Data                   []Record
}
