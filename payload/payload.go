// Package payload carries raw metric data as fetched from the API: the
// serialized "values" field of a response envelope.
package payload

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strconv"
	"strings"

	"github.com/opengamedata/ogdviz/errors"
)

// Raw is undecoded JSON.
type Raw []byte

// IsEmpty reports whether r carries no data (absent or JSON null).
func (r Raw) IsEmpty() bool {
	trimmed := bytes.TrimSpace(r)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// Valid reports whether r is well-formed JSON.
func (r Raw) Valid() bool {
	return json.Valid(r)
}

// Decode unmarshals r into v, marking failures as errors.ErrMalformedPayload.
func (r Raw) Decode(v interface{}) error {
	if err := json.Unmarshal(r, v); err != nil {
		return errors.Mark(errors.Wrap(err, "decode payload"), errors.ErrMalformedPayload)
	}
	return nil
}

// Equal compares by JSON value: key order and whitespace do not matter.
func (r Raw) Equal(other Raw) bool {
	if bytes.Equal(r, other) {
		return true
	}
	if r.IsEmpty() || other.IsEmpty() {
		return r.IsEmpty() && other.IsEmpty()
	}
	a, errA := decodeGeneric(r)
	b, errB := decodeGeneric(other)
	if errA != nil || errB != nil {
		return false
	}
	return reflect.DeepEqual(a, b)
}

func decodeGeneric(r Raw) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(r))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// MarshalJSON emits r verbatim, or null when empty.
func (r Raw) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

// UnmarshalJSON keeps a copy of the raw bytes.
func (r *Raw) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

// Number converts a decoded JSON scalar to float64. Numeric strings count.
func Number(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	default:
		return 0, false
	}
}
