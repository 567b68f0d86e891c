package layout

import (
	"fmt"
	"math"
	"slices"

	"github.com/opengamedata/ogdviz/graph"
)

// Link colors.
const (
	LinkColorHidden    = "#fff0"
	LinkColorHighlight = "blue"
	LinkColorDefault   = "#999"
)

// Style derives radius, color and width from model attributes. None of it
// feeds back into the forces.
type Style struct {
	Game      string
	Kind      graph.TransitionKind
	Highlight string // player whose links are drawn highlighted

	minAvg, maxAvg float64
	hasAvg         bool
	minR, maxR     float64
	defaultR       float64
}

// NewStyle builds the style for g.
func NewStyle(g *graph.JobGraph, p Params) Style {
	s := Style{
		minR:     p.MinRadius,
		maxR:     p.MaxRadius,
		defaultR: p.DefaultRadius,
	}
	if g != nil {
		s.Game = g.Meta.Game
		s.Kind = g.Meta.TransitionKind
		s.minAvg = g.Meta.MinAvgTime
		s.maxAvg = g.Meta.MaxAvgTime
		s.hasAvg = g.Meta.HasAvgTime
	}
	return s
}

// Radius maps the average time per attempt linearly from [minAvg, maxAvg]
// onto [MinRadius, MaxRadius], clamped. Nodes without the attribute get
// DefaultRadius. A degenerate domain maps to the middle of the range.
func (s Style) Radius(n graph.Node) float64 {
	avg, ok := graph.NumberAttr(n, graph.AttrAvgTime)
	if !ok || !s.hasAvg {
		return s.defaultR
	}
	t := 0.5
	if span := s.maxAvg - s.minAvg; span != 0 {
		t = (avg - s.minAvg) / span
	}
	t = math.Max(0, math.Min(1, t))
	return s.minR + t*(s.maxR-s.minR)
}

// NodeColor places the completion ratio on the red-yellow-green ramp.
func (s Style) NodeColor(n graph.Node) string {
	return RdYlGn(graph.CompletionRatio(n))
}

// LinkColor hides links in progress mode and highlights the selected player.
func (s Style) LinkColor(l graph.Link) string {
	if s.Kind == graph.InProgress {
		return LinkColorHidden
	}
	if s.Highlight != "" && slices.Contains(l.Players, s.Highlight) {
		return LinkColorHighlight
	}
	return LinkColorDefault
}

// LinkWidth is the number of players on the link.
func (s Style) LinkWidth(l graph.Link) float64 {
	return float64(l.Value)
}

// OutLinkWidth is the in-progress marker width, zero outside progress mode.
func (s Style) OutLinkWidth(n graph.Node) float64 {
	if s.Kind != graph.InProgress {
		return 0
	}
	return float64(len(n.Players))
}

// rdYlGn is the 11-class diverging RdYlGn scheme.
var rdYlGn = [][3]float64{
	{0xa5, 0x00, 0x26}, {0xd7, 0x30, 0x27}, {0xf4, 0x6d, 0x43}, {0xfd, 0xae, 0x61},
	{0xfe, 0xe0, 0x8b}, {0xff, 0xff, 0xbf}, {0xd9, 0xef, 0x8b}, {0xa6, 0xd9, 0x6a},
	{0x66, 0xbd, 0x63}, {0x1a, 0x98, 0x50}, {0x00, 0x68, 0x37},
}

// RdYlGn samples the scheme at t in [0, 1] through a uniform B-spline,
// returning a CSS rgb() string. t is clamped.
func RdYlGn(t float64) string {
	if math.IsNaN(t) {
		t = 0
	}
	var out [3]int
	for c := 0; c < 3; c++ {
		v := basisSpline(t, func(i int) float64 { return rdYlGn[i][c] }, len(rdYlGn))
		out[c] = int(math.Max(0, math.Min(255, math.Round(v))))
	}
	return fmt.Sprintf("rgb(%d, %d, %d)", out[0], out[1], out[2])
}

func basisSpline(t float64, value func(int) float64, count int) float64 {
	n := count - 1
	var i int
	switch {
	case t <= 0:
		t, i = 0, 0
	case t >= 1:
		t, i = 1, n-1
	default:
		i = int(math.Floor(t * float64(n)))
	}
	v1, v2 := value(i), value(i+1)
	v0 := 2*v1 - v2
	if i > 0 {
		v0 = value(i - 1)
	}
	v3 := 2*v2 - v1
	if i < n-1 {
		v3 = value(i + 2)
	}
	t1 := (t - float64(i)/float64(n)) * float64(n)
	t2 := t1 * t1
	t3 := t2 * t1
	return ((1-3*t1+3*t2-t3)*v0 + (4-6*t2+3*t3)*v1 + (1+3*t1+3*t2-3*t3)*v2 + t3*v3) / 6
}
