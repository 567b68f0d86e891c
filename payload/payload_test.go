package payload

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opengamedata/ogdviz/errors"
)

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", `{"a":1}`, `{"a":1}`, true},
		{"key order", `{"a":1,"b":[1,2]}`, `{"b":[1,2],"a":1}`, true},
		{"whitespace", `{"a": 1}`, "{\n\"a\":1\n}", true},
		{"different value", `{"a":1}`, `{"a":2}`, false},
		{"array order matters", `[1,2]`, `[2,1]`, false},
		{"big numbers keep precision", `{"n":12345678901234567890}`, `{"n":12345678901234567891}`, false},
		{"null and empty", `null`, ``, true},
		{"null and object", `null`, `{}`, false},
		{"invalid never equals valid", `{"a":`, `{"a":1}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Raw(tt.a).Equal(Raw(tt.b)))
			assert.Equal(t, tt.want, Raw(tt.b).Equal(Raw(tt.a)))
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	var v map[string]interface{}
	err := Raw(`{"a":`).Decode(&v)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMalformedPayload))

	require.NoError(t, Raw(`{"a":1}`).Decode(&v))
	assert.Equal(t, 1.0, v["a"])
}

func TestJSONRoundTrip(t *testing.T) {
	type envelope struct {
		Values Raw `json:"values"`
	}
	var e envelope
	require.NoError(t, json.Unmarshal([]byte(`{"values":{"Intro":{"x":1}}}`), &e))
	assert.JSONEq(t, `{"Intro":{"x":1}}`, string(e.Values))

	out, err := json.Marshal(envelope{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"values":null}`, string(out))
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, Raw(nil).IsEmpty())
	assert.True(t, Raw(" null ").IsEmpty())
	assert.False(t, Raw("{}").IsEmpty())
	assert.True(t, Raw("{}").Valid())
	assert.False(t, Raw("{").Valid())
}
