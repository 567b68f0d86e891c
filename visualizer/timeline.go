package visualizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/opengamedata/ogdviz/errors"
	"github.com/opengamedata/ogdviz/payload"
)

// TimelineEvent is one logged event. Timestamp is seconds since the first
// event; Duration is seconds until the next shown event, zero for the last.
type TimelineEvent struct {
	Name      string    `json:"name" yaml:"name"`
	Type      string    `json:"type" yaml:"type"`
	Time      time.Time `json:"time" yaml:"time"`
	Timestamp int64     `json:"timestamp" yaml:"timestamp"`
	Duration  int64     `json:"duration" yaml:"duration"`
	SessionID string    `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Extra     []string  `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// TimelineMeta summarizes a player's timeline.
type TimelineMeta struct {
	PlayerID     string    `json:"player_id" yaml:"player_id"`
	SessionCount int       `json:"session_count" yaml:"session_count"`
	Start        time.Time `json:"start" yaml:"start"`
	End          time.Time `json:"end" yaml:"end"`
	TotalTime    int64     `json:"total_time" yaml:"total_time"`
	MinDuration  int64     `json:"min_duration" yaml:"min_duration"` // smallest positive gap, 0 if none
	Types        []string  `json:"types" yaml:"types"`               // first-seen order
}

// TimelineModel is one player's events in log order.
type TimelineModel struct {
	Meta   TimelineMeta    `json:"meta" yaml:"meta"`
	Events []TimelineEvent `json:"events" yaml:"events"`
}

func (m *TimelineModel) IsEmpty() bool { return len(m.Events) == 0 }

// Fields every event carries. Everything else is listed in Extra.
const (
	eventJob       = "job_name"
	eventName      = "name"
	eventTimestamp = "timestamp"
	eventUser      = "user_id"
	eventSession   = "session_id"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000000",
}

// NewTimeline decodes a player event payload. Accepted shapes are the list
// [events, sessionCount], where events may itself be a JSON-encoded string,
// the object {"events": [...], "session_count": n}, and a bare event list.
// Without a session count the distinct session ids are counted.
func NewTimeline(raw payload.Raw) (*TimelineModel, error) {
	m := &TimelineModel{Events: []TimelineEvent{}, Meta: TimelineMeta{Types: []string{}}}
	if raw.IsEmpty() {
		return m, nil
	}

	eventsRaw, sessionCount, err := splitTimeline(raw)
	if err != nil {
		return nil, err
	}
	var records []map[string]interface{}
	if len(eventsRaw) > 0 {
		if err := payload.Raw(eventsRaw).Decode(&records); err != nil {
			return nil, errors.Wrap(err, "timeline events")
		}
	}
	if len(records) == 0 {
		return m, nil
	}

	sessions := map[string]bool{}
	for i, rec := range records {
		ts, err := parseTimestamp(rec[eventTimestamp])
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "event %d", i), errors.ErrMalformedPayload)
		}
		ev := TimelineEvent{
			Name:      stringField(rec[eventJob]),
			Type:      stringField(rec[eventName]),
			Time:      ts,
			SessionID: stringField(rec[eventSession]),
			Extra:     extraFields(rec),
		}
		if ev.SessionID != "" {
			sessions[ev.SessionID] = true
		}
		m.Events = append(m.Events, ev)
	}

	m.Meta.PlayerID = stringField(records[0][eventUser])
	m.Meta.SessionCount = sessionCount
	if m.Meta.SessionCount < 0 {
		m.Meta.SessionCount = len(sessions)
	}
	m.derive()
	return m, nil
}

func splitTimeline(raw payload.Raw) (json.RawMessage, int, error) {
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return nil, -1, nil
		}
		if first := bytes.TrimSpace(list[0]); len(first) > 0 && first[0] == '{' {
			return json.RawMessage(raw), -1, nil
		}
		count := -1
		if len(list) > 1 {
			var n float64
			if err := json.Unmarshal(list[1], &n); err == nil {
				count = int(n)
			}
		}
		return unquote(list[0]), count, nil
	}

	var obj struct {
		Events       json.RawMessage `json:"events"`
		SessionCount *int            `json:"session_count"`
	}
	if err := raw.Decode(&obj); err != nil {
		return nil, 0, errors.Wrap(err, "timeline payload must be a list or an object")
	}
	count := -1
	if obj.SessionCount != nil {
		count = *obj.SessionCount
	}
	return unquote(obj.Events), count, nil
}

// unquote unwraps events sent as a JSON string holding JSON.
func unquote(r json.RawMessage) json.RawMessage {
	var s string
	if err := json.Unmarshal(r, &s); err == nil {
		return json.RawMessage(s)
	}
	return r
}

func parseTimestamp(v interface{}) (time.Time, error) {
	switch x := v.(type) {
	case string:
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(x)); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, errors.Newf("unrecognized timestamp %q", x)
	case float64:
		return time.Unix(int64(x), 0).UTC(), nil
	default:
		return time.Time{}, errors.New("missing timestamp")
	}
}

func stringField(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

func extraFields(rec map[string]interface{}) []string {
	var extra []string
	for k, v := range rec {
		switch k {
		case eventJob, eventName, eventTimestamp, eventUser:
			continue
		}
		extra = append(extra, fmt.Sprintf("%s: %v", k, v))
	}
	sort.Strings(extra)
	return extra
}

// derive fills durations, relative timestamps and the meta totals from Time.
func (m *TimelineModel) derive() {
	m.Meta.MinDuration = 0
	m.Meta.Types = []string{}
	if len(m.Events) == 0 {
		m.Meta.Start, m.Meta.End, m.Meta.TotalTime = time.Time{}, time.Time{}, 0
		return
	}

	start := m.Events[0].Time.Unix()
	seen := map[string]bool{}
	for i := range m.Events {
		ev := &m.Events[i]
		ev.Duration = 0
		if i < len(m.Events)-1 {
			ev.Duration = m.Events[i+1].Time.Unix() - ev.Time.Unix()
		}
		if ev.Duration > 0 && (m.Meta.MinDuration == 0 || ev.Duration < m.Meta.MinDuration) {
			m.Meta.MinDuration = ev.Duration
		}
		ev.Timestamp = ev.Time.Unix() - start
		if !seen[ev.Type] {
			seen[ev.Type] = true
			m.Meta.Types = append(m.Meta.Types, ev.Type)
		}
	}
	last := m.Events[len(m.Events)-1]
	m.Meta.Start = m.Events[0].Time
	m.Meta.End = last.Time
	m.Meta.TotalTime = last.Timestamp
}

// FilterTypes returns a copy holding only events of the given types, with
// durations recomputed between the remaining events. Timestamps stay
// relative to the player's first event. No types keeps everything.
func (m *TimelineModel) FilterTypes(types ...string) *TimelineModel {
	out := &TimelineModel{Meta: m.Meta, Events: []TimelineEvent{}}
	out.Meta.Types = append([]string(nil), m.Meta.Types...)
	if len(types) == 0 {
		out.Events = append(out.Events, m.Events...)
		return out
	}

	keep := make(map[string]bool, len(types))
	for _, t := range types {
		keep[t] = true
	}
	for _, ev := range m.Events {
		if keep[ev.Type] {
			out.Events = append(out.Events, ev)
		}
	}

	out.Meta.MinDuration = 0
	for i := range out.Events {
		ev := &out.Events[i]
		ev.Duration = 0
		if i < len(out.Events)-1 {
			ev.Duration = out.Events[i+1].Timestamp - ev.Timestamp
		}
		if ev.Duration > 0 && (out.Meta.MinDuration == 0 || ev.Duration < out.Meta.MinDuration) {
			out.Meta.MinDuration = ev.Duration
		}
	}
	return out
}
