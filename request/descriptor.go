// Package request describes calls to the OpenGameData API as immutable
// values with a canonical cache key.
package request

import (
	"net/http"
	"net/url"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/opengamedata/ogdviz/errors"
	"github.com/opengamedata/ogdviz/filter"
)

// Scope is the aggregation level a request asks for.
type Scope string

const (
	Population Scope = "POPULATION"
	Player     Scope = "PLAYER"
	Session    Scope = "SESSION"
)

func (s Scope) resource() (string, bool) {
	switch s {
	case Population:
		return "populations", true
	case Player:
		return "players", true
	case Session:
		return "sessions", true
	default:
		return "", false
	}
}

// ParseScope accepts a scope name in any case, plus the plural resource names.
func ParseScope(s string) (Scope, error) {
	switch strings.ToUpper(s) {
	case "POPULATION", "POPULATIONS":
		return Population, nil
	case "PLAYER", "PLAYERS":
		return Player, nil
	case "SESSION", "SESSIONS":
		return Session, nil
	}
	return "", errors.NewInvalidRequestError("unknown scope %q", s)
}

const featureListSegment = "FeatureList"

// Params is the input to Build. Empty or "*" versions are open bounds.
type Params struct {
	Scope         Scope
	Game          string
	MinAppVersion string
	MaxAppVersion string
	MinLogVersion string
	MaxLogVersion string
	StartDate     *time.Time
	EndDate       *time.Time
	Metrics       []string
	PlayerID      string
}

// Descriptor is one API call. It cannot be modified after Build.
type Descriptor struct {
	method        string
	path          string
	scope         Scope
	game          string
	minAppVersion string
	maxAppVersion string
	minLogVersion string
	maxLogVersion string
	startDate     *time.Time
	endDate       *time.Time
	metrics       []string
	playerID      string
	featureList   bool
	key           string
}

// Build returns the metrics request for p. Metrics are de-duplicated and
// sorted and dates truncated to calendar days, so equal inputs in any order
// give equal descriptors.
func Build(p Params) (*Descriptor, error) {
	resource, ok := p.Scope.resource()
	if !ok {
		return nil, errors.NewInvalidRequestError("unknown scope %q", p.Scope)
	}
	if p.Game == "" {
		return nil, errors.NewInvalidRequestError("request needs a game")
	}

	metrics := normalizeMetrics(p.Metrics)
	if len(metrics) == 0 {
		return nil, errors.NewInvalidRequestError("request for %s needs at least one metric", p.Game)
	}

	start, end := dayPtr(p.StartDate), dayPtr(p.EndDate)
	if start != nil && end != nil && start.After(*end) {
		return nil, errors.NewInvalidRequestError("start date %s is after end date %s",
			start.Format(filter.DateLayout), end.Format(filter.DateLayout))
	}

	d := &Descriptor{
		method:        http.MethodPost,
		path:          "/" + resource + "/metrics",
		scope:         p.Scope,
		game:          p.Game,
		minAppVersion: normalizeVersion(p.MinAppVersion),
		maxAppVersion: normalizeVersion(p.MaxAppVersion),
		minLogVersion: normalizeVersion(p.MinLogVersion),
		maxLogVersion: normalizeVersion(p.MaxLogVersion),
		startDate:     start,
		endDate:       end,
		metrics:       metrics,
		playerID:      strings.TrimSpace(p.PlayerID),
	}
	d.key = d.buildKey()
	return d, nil
}

// FeatureList returns the request listing the metrics available for game at scope.
func FeatureList(scope Scope, game string) (*Descriptor, error) {
	resource, ok := scope.resource()
	if !ok {
		return nil, errors.NewInvalidRequestError("unknown scope %q", scope)
	}
	if game == "" {
		return nil, errors.NewInvalidRequestError("feature list needs a game")
	}
	d := &Descriptor{
		method:      http.MethodGet,
		path:        "/" + resource + "/metrics/list/" + url.PathEscape(game),
		scope:       scope,
		game:        game,
		featureList: true,
	}
	d.key = d.buildKey()
	return d, nil
}

func normalizeMetrics(in []string) []string {
	out := make([]string, 0, len(in))
	for _, m := range in {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return slices.Compact(out)
}

func normalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if v == filter.Wildcard {
		return ""
	}
	return v
}

func dayPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := filter.Day(*t)
	return &d
}

func (d *Descriptor) Method() string        { return d.method }
func (d *Descriptor) Path() string          { return d.path }
func (d *Descriptor) Scope() Scope          { return d.scope }
func (d *Descriptor) Game() string          { return d.game }
func (d *Descriptor) MinAppVersion() string { return d.minAppVersion }
func (d *Descriptor) MaxAppVersion() string { return d.maxAppVersion }
func (d *Descriptor) MinLogVersion() string { return d.minLogVersion }
func (d *Descriptor) MaxLogVersion() string { return d.maxLogVersion }
func (d *Descriptor) PlayerID() string      { return d.playerID }
func (d *Descriptor) IsFeatureList() bool   { return d.featureList }

// Metrics returns a copy of the sorted metric set.
func (d *Descriptor) Metrics() []string { return slices.Clone(d.metrics) }

// StartDate returns the first calendar day requested, if any.
func (d *Descriptor) StartDate() (time.Time, bool) { return deref(d.startDate) }

// EndDate returns the last calendar day requested, if any.
func (d *Descriptor) EndDate() (time.Time, bool) { return deref(d.endDate) }

func deref(t *time.Time) (time.Time, bool) {
	if t == nil {
		return time.Time{}, false
	}
	return *t, true
}

// Equal reports whether two descriptors ask for the same data.
func (d *Descriptor) Equal(other *Descriptor) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.method == other.method && d.key == other.key
}

func (d *Descriptor) String() string {
	return d.method + " " + d.path + " [" + d.key + "]"
}
