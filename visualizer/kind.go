package visualizer

import (
	"strings"

	"github.com/opengamedata/ogdviz/catalog"
	"github.com/opengamedata/ogdviz/errors"
)

// Kind selects a visualization.
type Kind int

const (
	Initial Kind = iota
	JobGraph
	Histogram
	Scatterplot
	PlayerTimeline
)

// Kinds lists every kind in menu order.
func Kinds() []Kind {
	return []Kind{Initial, JobGraph, Histogram, Scatterplot, PlayerTimeline}
}

// String is the catalogue id of the kind.
func (k Kind) String() string {
	switch k {
	case Initial:
		return "initial"
	case JobGraph:
		return catalog.JobGraph
	case Histogram:
		return catalog.Histogram
	case Scatterplot:
		return catalog.Scatterplot
	case PlayerTimeline:
		return catalog.PlayerTimeline
	default:
		return "unknown"
	}
}

// Label is the menu title.
func (k Kind) Label() string {
	switch k {
	case Initial:
		return "Choose a visualization"
	case JobGraph:
		return "Job Graph"
	case Histogram:
		return "Histogram"
	case Scatterplot:
		return "Scatterplot"
	case PlayerTimeline:
		return "Player Timeline"
	default:
		return "Unknown"
	}
}

// ParseKind accepts "job_graph", "JobGraph", "job-graph" and similar spellings.
func ParseKind(s string) (Kind, error) {
	norm := strings.NewReplacer("_", "", "-", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range Kinds() {
		if norm == strings.ReplaceAll(k.String(), "_", "") {
			return k, nil
		}
	}
	if norm == "" || norm == "none" {
		return Initial, nil
	}
	return Initial, errors.Mark(
		errors.WithHintf(errors.Newf("unknown visualizer %q", s),
			"choose one of: job_graph, histogram, scatterplot, player_timeline"),
		errors.ErrNotFound)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
