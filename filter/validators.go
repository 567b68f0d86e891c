package filter

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// CheckFunc inspects a candidate value. It must not touch anything but its arguments.
type CheckFunc func(rule Validator, v Value, now time.Time) (ok bool, message string)

// Validator pairs a check with the metadata its messages are built from.
type Validator struct {
	Label   string   // noun used in messages, e.g. "App" or "game"
	Options []string // allowed selections for OneOf
	Check   CheckFunc
}

// Validate runs the check.
func (r Validator) Validate(v Value, now time.Time) (bool, string) {
	if r.Check == nil {
		return true, ""
	}
	return r.Check(r, v, now)
}

// Messages shown to the user.
const (
	MsgDatesRequired   = "Need to select both a start and an end date!"
	MsgStartAfterEnd   = "The start date must not be later than the end date!"
	MsgEndTooRecent    = "select an end date that's prior to yesterday"
	MsgVersionOrder    = "The minimum %s version must be less than the maximum!"
	MsgNumberOrder     = "The minimum %s must be less than the maximum!"
	MsgNothingSelected = "make sure a %s has been selected!"
	MsgNotAvailable    = "%q is not an available %s"
	MsgRequired        = "%s is required"
)

// DateRange rejects missing dates, start after end, and an end date that is
// not at least one full day before now.
func DateRange() *Validator {
	return &Validator{Label: "date", Check: checkDateRange}
}

// VersionRange rejects min > max when both bounds are set and not wildcards.
func VersionRange(label string) *Validator {
	return &Validator{Label: label, Check: checkVersionRange}
}

// NumberRange rejects min > max when both bounds are set.
func NumberRange(label string) *Validator {
	return &Validator{Label: label, Check: checkNumberRange}
}

// OneOf requires a selection from options.
func OneOf(label string, options []string) *Validator {
	return &Validator{Label: label, Options: slices.Clone(options), Check: checkOneOf}
}

// Required requires a non-empty selection.
func Required(label string) *Validator {
	return &Validator{Label: label, Check: checkRequired}
}

func checkDateRange(_ Validator, v Value, now time.Time) (bool, string) {
	if !v.Min.Set || !v.Max.Set {
		return false, MsgDatesRequired
	}
	if v.Min.Date.After(v.Max.Date) {
		return false, MsgStartAfterEnd
	}
	if now.Sub(v.Max.Date) <= 24*time.Hour {
		return false, MsgEndTooRecent
	}
	return true, ""
}

func checkVersionRange(rule Validator, v Value, _ time.Time) (bool, string) {
	if !v.Min.Set || !v.Max.Set {
		return true, ""
	}
	if CompareVersions(v.Min.Text, v.Max.Text) > 0 {
		return false, fmt.Sprintf(MsgVersionOrder, rule.Label)
	}
	return true, ""
}

func checkNumberRange(rule Validator, v Value, _ time.Time) (bool, string) {
	if v.Min.Set && v.Max.Set && v.Min.Number > v.Max.Number {
		return false, fmt.Sprintf(MsgNumberOrder, rule.Label)
	}
	return true, ""
}

func checkOneOf(rule Validator, v Value, _ time.Time) (bool, string) {
	if v.Selected == "" {
		return false, fmt.Sprintf(MsgNothingSelected, rule.Label)
	}
	if !slices.Contains(rule.Options, v.Selected) {
		return false, fmt.Sprintf(MsgNotAvailable, v.Selected, rule.Label)
	}
	return true, ""
}

func checkRequired(rule Validator, v Value, _ time.Time) (bool, string) {
	if strings.TrimSpace(v.Selected) == "" {
		return false, fmt.Sprintf(MsgRequired, rule.Label)
	}
	return true, ""
}

// CompareVersions orders two version strings: semantic versions when both
// parse, then plain numbers, then byte order.
func CompareVersions(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}

	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}
