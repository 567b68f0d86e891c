package ogdapi

import (
	"encoding/json"
	"strings"

	"github.com/opengamedata/ogdviz/payload"
)

// StatusSuccess is the only envelope status that carries usable values.
const StatusSuccess = "SUCCESS"

// Envelope is the response wrapper returned by every metrics endpoint.
// Older deployments answer with msg/val (or result) instead of message/values.
type Envelope struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Msg     string      `json:"msg,omitempty"`
	Result  string      `json:"result,omitempty"`
	Values  payload.Raw `json:"values,omitempty"`
	Val     payload.Raw `json:"val,omitempty"`
}

// OK reports whether the envelope status is SUCCESS.
func (e *Envelope) OK() bool {
	return strings.EqualFold(strings.TrimSpace(e.Status), StatusSuccess)
}

// Text returns whichever message field the server filled in.
func (e *Envelope) Text() string {
	for _, s := range []string{e.Message, e.Msg, e.Result} {
		if s != "" {
			return s
		}
	}
	return ""
}

// Data returns the values field. Servers that double-encode values as a
// JSON string get unwrapped once. Absent values come back as JSON null.
func (e *Envelope) Data() payload.Raw {
	raw := e.Values
	if raw.IsEmpty() {
		raw = e.Val
	}
	if raw.IsEmpty() {
		return payload.Raw("null")
	}
	var inner string
	if err := json.Unmarshal(raw, &inner); err == nil {
		if trimmed := strings.TrimSpace(inner); json.Valid([]byte(trimmed)) && (strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")) {
			return payload.Raw(trimmed)
		}
	}
	return raw
}
