package visualizer

import (
	"slices"
	"sort"
	"time"

	"github.com/opengamedata/ogdviz/catalog"
	"github.com/opengamedata/ogdviz/filter"
	"github.com/opengamedata/ogdviz/internal/util"
	"github.com/opengamedata/ogdviz/request"
)

// Filter item names.
const (
	ItemGame            = "Game"
	ItemDateRange       = "DateRange"
	ItemAppVersionRange = "AppVersionRange"
	ItemLogVersionRange = "LogVersionRange"
	ItemMinimumJobs     = "MinimumJobs"
	ItemScope           = "Session or Player"
	ItemMetric          = "Metric"
	ItemXMetric         = "XMetric"
	ItemYMetric         = "YMetric"
	ItemPlayerID        = "PlayerID"
	ItemSeparator       = "JobFilterSeparator"
)

// Choices for ItemScope.
const (
	ScopeSession = "Session"
	ScopePlayer  = "Player"
)

// newFilterModel builds the filter items for kind. Every call returns a
// fresh model so no state survives a visualizer switch.
func newFilterModel(kind Kind, cat *catalog.Catalog, now time.Time) *filter.Model {
	m := filter.New(kind.String())
	games := cat.IDs()
	m.MustAddItem(filter.Item{
		Name:      ItemGame,
		Input:     filter.Dropdown,
		Mode:      filter.Enum,
		Initial:   filter.Value{Selected: cat.DefaultGame()},
		Options:   games,
		Validator: filter.OneOf("game", games),
	})

	switch kind {
	case Initial:
	case JobGraph:
		addDateRange(m, now)
		addVersionRanges(m)
		m.MustAddItem(filter.Item{
			Name:      ItemMinimumJobs,
			Input:     filter.Range,
			Mode:      filter.Number,
			Initial:   filter.Value{Min: filter.NumberBound(0)},
			Validator: filter.NumberRange("number of jobs"),
		})
	case Histogram:
		addDateRange(m, now)
		addScope(m)
		addMetric(m, ItemMetric, metricOptions(cat, Histogram), 0)
		addVersionRanges(m)
		m.MustAddItem(filter.Item{Name: ItemSeparator, Input: filter.Separator})
	case Scatterplot:
		addDateRange(m, now)
		addScope(m)
		options := metricOptions(cat, Scatterplot)
		addMetric(m, ItemXMetric, options, 0)
		addMetric(m, ItemYMetric, options, 1)
		addVersionRanges(m)
	case PlayerTimeline:
		m.MustAddItem(filter.Item{
			Name:      ItemPlayerID,
			Input:     filter.Dropdown,
			Mode:      filter.Text,
			Validator: filter.Required("Player ID"),
		})
		addVersionRanges(m)
	}
	return m
}

// addDateRange defaults to the day before yesterday, the latest day the
// date validator accepts.
func addDateRange(m *filter.Model, now time.Time) {
	day := filter.DateBound(now.AddDate(0, 0, -2))
	m.MustAddItem(filter.Item{
		Name:      ItemDateRange,
		Input:     filter.Range,
		Mode:      filter.Date,
		Initial:   filter.Value{Min: day, Max: day},
		Validator: filter.DateRange(),
	})
}

func addVersionRanges(m *filter.Model) {
	m.MustAddItem(filter.Item{
		Name:      ItemAppVersionRange,
		Input:     filter.Range,
		Mode:      filter.Text,
		Validator: filter.VersionRange("App"),
	})
	m.MustAddItem(filter.Item{
		Name:      ItemLogVersionRange,
		Input:     filter.Range,
		Mode:      filter.Text,
		Validator: filter.VersionRange("Log"),
	})
}

func addScope(m *filter.Model) {
	choices := []string{ScopeSession, ScopePlayer}
	m.MustAddItem(filter.Item{
		Name:      ItemScope,
		Input:     filter.Dropdown,
		Mode:      filter.Enum,
		Initial:   filter.Value{Selected: ScopeSession},
		Options:   choices,
		Validator: filter.OneOf("session or player", choices),
	})
}

func addMetric(m *filter.Model, name string, options []string, initial int) {
	var selected string
	if initial < len(options) {
		selected = options[initial]
	}
	m.MustAddItem(filter.Item{
		Name:      name,
		Input:     filter.Dropdown,
		Mode:      filter.Enum,
		Initial:   filter.Value{Selected: selected},
		Options:   options,
		Validator: filter.OneOf("metric", options),
	})
}

// metricOptions is every metric any game offers for kind, default game first.
func metricOptions(cat *catalog.Catalog, kind Kind) []string {
	first, _ := cat.Metrics(cat.DefaultGame(), kind.String())
	var rest []string
	for _, id := range cat.IDs() {
		metrics, err := cat.Metrics(id, kind.String())
		if err != nil {
			continue
		}
		for _, metric := range metrics {
			if !slices.Contains(first, metric) && !slices.Contains(rest, metric) {
				rest = append(rest, metric)
			}
		}
	}
	sort.Strings(rest)
	return append(first, rest...)
}

func scopeOf(state filter.State) request.Scope {
	if state[ItemScope].Selected == ScopePlayer {
		return request.Player
	}
	return request.Session
}

func dateBounds(state filter.State) (start, end *time.Time) {
	v, ok := state[ItemDateRange]
	if !ok {
		return nil, nil
	}
	if v.Min.Set {
		start = util.Ptr(v.Min.Date)
	}
	if v.Max.Set {
		end = util.Ptr(v.Max.Date)
	}
	return start, end
}
