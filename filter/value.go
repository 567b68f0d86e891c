package filter

import (
	"encoding/json"
	"strconv"
	"time"
)

// InputMode is how an item is edited.
type InputMode int

const (
	Dropdown InputMode = iota
	Range
	Separator
)

func (m InputMode) String() string {
	switch m {
	case Dropdown:
		return "dropdown"
	case Range:
		return "range"
	case Separator:
		return "separator"
	default:
		return "unknown"
	}
}

// ValueMode is the type carried by an item's value.
type ValueMode int

const (
	Enum ValueMode = iota
	Date
	Number
	Text
)

func (m ValueMode) String() string {
	switch m {
	case Enum:
		return "enum"
	case Date:
		return "date"
	case Number:
		return "number"
	case Text:
		return "text"
	default:
		return "unknown"
	}
}

// DateLayout is the calendar-day format used for date bounds everywhere.
const DateLayout = "2006-01-02"

// Wildcard marks an open version bound.
const Wildcard = "*"

// Bound is one end of a range. Exactly one of Text, Date or Number is
// meaningful, chosen by the owning item's ValueMode.
type Bound struct {
	Set    bool
	Text   string
	Date   time.Time
	Number float64
}

// TextBound returns a set text bound. The wildcard and the empty string are unset.
func TextBound(s string) Bound {
	if s == "" || s == Wildcard {
		return Bound{}
	}
	return Bound{Set: true, Text: s}
}

// DateBound returns a set date bound truncated to its calendar day in UTC.
func DateBound(t time.Time) Bound {
	return Bound{Set: true, Date: Day(t)}
}

// NumberBound returns a set numeric bound.
func NumberBound(n float64) Bound {
	return Bound{Set: true, Number: n}
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Format renders the bound for mode, "*" when unset.
func (b Bound) Format(mode ValueMode) string {
	if !b.Set {
		return Wildcard
	}
	switch mode {
	case Date:
		return b.Date.Format(DateLayout)
	case Number:
		return strconv.FormatFloat(b.Number, 'f', -1, 64)
	default:
		return b.Text
	}
}

// Value is the state of one item: Selected for dropdowns, Min/Max for ranges.
type Value struct {
	Selected string
	Min      Bound
	Max      Bound
}

// Format renders v the way ParseAssignments reads it back.
func (v Value) Format(input InputMode, mode ValueMode) string {
	if input == Range {
		return v.Min.Format(mode) + RangeSeparator + v.Max.Format(mode)
	}
	return v.Selected
}

// State maps item names to values. Treat it as immutable; Merge returns a new one.
type State map[string]Value

// Clone returns a shallow copy of s.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Merge returns base with every entry of patch applied.
func Merge(base, patch State) State {
	out := base.Clone()
	for k, v := range patch {
		out[k] = v
	}
	return out
}

type boundJSON struct {
	bound Bound
}

func (b boundJSON) MarshalJSON() ([]byte, error) {
	switch {
	case !b.bound.Set:
		return []byte("null"), nil
	case !b.bound.Date.IsZero():
		return json.Marshal(b.bound.Date.Format(DateLayout))
	case b.bound.Text != "":
		return json.Marshal(b.bound.Text)
	default:
		return json.Marshal(b.bound.Number)
	}
}

// MarshalJSON emits {"selected": ...} or {"min": ..., "max": ...}.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Selected != "" || (!v.Min.Set && !v.Max.Set) {
		return json.Marshal(map[string]string{"selected": v.Selected})
	}
	return json.Marshal(map[string]boundJSON{"min": {v.Min}, "max": {v.Max}})
}
