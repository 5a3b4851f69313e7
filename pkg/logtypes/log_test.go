package logtypes

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordJSON(t *testing.T) {
	rec := NewRecord("2024-06-14 10:00:00",
		Field{Key: "method", Value: json.RawMessage(`"GET"`)},
		Field{Key: "status", Value: json.RawMessage(`200`)},
		Field{Key: "meta", Value: json.RawMessage(`{"a":[1,2],"b":null}`)},
	)

	b, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"timestamp":"2024-06-14 10:00:00","method":"GET","status":200,"meta":{"a":[1,2],"b":null}}`, string(b))

	var decoded Record
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, rec, decoded)
}

func TestRecordPreservesColumnOrder(t *testing.T) {
	var rec Record
	require.NoError(t, json.Unmarshal([]byte(`{"z":1,"timestamp":"t","a":2,"m":3}`), &rec))

	keys := make([]string, 0, len(rec.Fields))
	for _, f := range rec.Fields {
		keys = append(keys, f.Key)
	}
	assert.Equal(t, []string{"z", "a", "m"}, keys)
	assert.Equal(t, "t", rec.Timestamp)

	v, ok := rec.Get("a")
	require.True(t, ok)
	assert.Equal(t, json.RawMessage(`2`), v)

	_, ok = rec.Get("missing")
	assert.False(t, ok)
}

func TestRecordRequiresTimestamp(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "missing", input: `{"message":"hi"}`},
		{name: "not a string", input: `{"timestamp":1718000000}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rec Record
			err := json.Unmarshal([]byte(tt.input), &rec)
			assert.ErrorIs(t, err, ErrMissingTimestamp)
		})
	}
}

func TestDecodeRecords(t *testing.T) {
	recs, err := DecodeRecords([]byte(`[{"timestamp":"a","n":1},{"timestamp":"b"}]`))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "a", recs[0].Timestamp)
	assert.Equal(t, "b", recs[1].Timestamp)
	assert.Empty(t, recs[1].Fields)

	_, err = DecodeRecords([]byte(`{"timestamp":"a"}`))
	assert.Error(t, err)

	_, err = DecodeRecords([]byte(`[{"timestamp":"a"},{"x":1}]`))
	assert.ErrorIs(t, err, ErrMissingTimestamp)
}
