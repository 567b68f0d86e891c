package graph

import (
	"encoding/json"
	"strings"

	"github.com/opengamedata/ogdviz/errors"
)

// TransitionKind selects which player movement becomes links.
type TransitionKind int

const (
	// Completion links players who finished a job to the job they went to next.
	Completion TransitionKind = iota
	// Switch links players who left a job unfinished to the job they switched to.
	Switch
	// InProgress draws no links; nodes show players still working on them.
	InProgress
)

// AllKinds lists every kind in display order.
var AllKinds = []TransitionKind{Completion, Switch, InProgress}

func (k TransitionKind) String() string {
	switch k {
	case Completion:
		return "completion"
	case Switch:
		return "switch"
	case InProgress:
		return "in_progress"
	default:
		return "unknown"
	}
}

// Metric names the payload field the kind reads.
func (k TransitionKind) Metric() string {
	switch k {
	case Completion:
		return FieldCompletionDests
	case Switch:
		return FieldSwitchDests
	case InProgress:
		return FieldActiveJobs
	default:
		return ""
	}
}

// Verb describes what the players on a link did.
func (k TransitionKind) Verb() string {
	switch k {
	case Completion:
		return "completed"
	case Switch:
		return "switched"
	default:
		return "in progress"
	}
}

// Label is the legend text for the kind selector.
func (k TransitionKind) Label() string {
	switch k {
	case Completion:
		return "finished the job"
	case Switch:
		return "left the job"
	default:
		return "still in progress"
	}
}

// ParseTransitionKind accepts a kind name or the payload field it reads.
func ParseTransitionKind(s string) (TransitionKind, error) {
	for _, k := range AllKinds {
		if strings.EqualFold(s, k.String()) || s == k.Metric() {
			return k, nil
		}
	}
	switch strings.ToLower(s) {
	case "complete", "completed", "finished":
		return Completion, nil
	case "switched", "left", "abandon", "abandoned":
		return Switch, nil
	case "active", "inprogress", "in-progress":
		return InProgress, nil
	}
	return Completion, errors.NewInvalidRequestError("unknown transition kind %q", s)
}

// AvailableKinds returns the kinds whose payload field is among metrics.
func AvailableKinds(metrics []string) []TransitionKind {
	have := make(map[string]bool, len(metrics))
	for _, m := range metrics {
		have[m] = true
	}
	var kinds []TransitionKind
	for _, k := range AllKinds {
		if have[k.Metric()] {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func (k TransitionKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

func (k *TransitionKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "transition kind")
	}
	parsed, err := ParseTransitionKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
