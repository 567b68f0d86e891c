package filter

import (
	"strconv"
	"strings"
	"time"

	"github.com/kballard/go-shellquote"

	"github.com/opengamedata/ogdviz/errors"
)

// RangeSeparator splits the two bounds of a range assignment.
const RangeSeparator = ".."

// ParseAssignments reads edits such as
//
//	Game=AQUALAB DateRange=2024-01-01..2024-01-31 AppVersionRange='1.0..*'
//
// against m and returns them as a state patch. Shell quoting applies, so a
// value may contain spaces. Range bounds may be empty or "*" to leave them open.
func ParseAssignments(m *Model, line string) (State, error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return nil, errors.Wrap(errors.Mark(err, errors.ErrInvalidRequest), "malformed filter assignment")
	}

	patch := make(State, len(words))
	for _, word := range words {
		name, raw, ok := strings.Cut(word, "=")
		if !ok || name == "" {
			return nil, errors.NewInvalidRequestError("expected Name=value, got %q", word)
		}
		item, ok := m.Item(name)
		if !ok {
			return nil, errors.NewInvalidRequestError("%s has no filter item %q", m.Name(), name)
		}
		value, err := parseValue(item, raw)
		if err != nil {
			return nil, errors.Wrapf(err, "item %s", name)
		}
		patch[name] = value
	}
	return patch, nil
}

func parseValue(item Item, raw string) (Value, error) {
	switch item.Input {
	case Dropdown:
		return Value{Selected: raw}, nil
	case Range:
		lo, hi, ok := strings.Cut(raw, RangeSeparator)
		if !ok {
			return Value{}, errors.NewInvalidRequestError("expected min%smax, got %q", RangeSeparator, raw)
		}
		lower, err := parseBound(item.Mode, lo)
		if err != nil {
			return Value{}, err
		}
		upper, err := parseBound(item.Mode, hi)
		if err != nil {
			return Value{}, err
		}
		return Value{Min: lower, Max: upper}, nil
	default:
		return Value{}, errors.NewInvalidRequestError("%s items take no value", item.Input)
	}
}

func parseBound(mode ValueMode, raw string) (Bound, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == Wildcard {
		return Bound{}, nil
	}
	switch mode {
	case Date:
		t, err := time.Parse(DateLayout, raw)
		if err != nil {
			return Bound{}, errors.NewInvalidRequestError("invalid date %q (want %s)", raw, DateLayout)
		}
		return DateBound(t), nil
	case Number:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Bound{}, errors.NewInvalidRequestError("invalid number %q", raw)
		}
		return NumberBound(n), nil
	default:
		return TextBound(raw), nil
	}
}
