package layout

import (
	"github.com/opengamedata/ogdviz/graph"
)

// Snapshot is a read-only frame for a draw surface. Coordinates are screen
// coordinates: the view transform has been applied, radius and width included.
type Snapshot struct {
	Nodes []NodeView `json:"nodes" yaml:"nodes"`
	Links []LinkView `json:"links" yaml:"links"`
	Alpha float64    `json:"alpha" yaml:"alpha"`
	Tick  int        `json:"tick" yaml:"tick"`
	State string     `json:"state" yaml:"state"`
	View  View       `json:"view" yaml:"view"`
}

// NodeView is one node as drawn.
type NodeView struct {
	ID           string  `json:"id" yaml:"id"`
	X            float64 `json:"x" yaml:"x"`
	Y            float64 `json:"y" yaml:"y"`
	Radius       float64 `json:"radius" yaml:"radius"`
	Color        string  `json:"color" yaml:"color"`
	Title        string  `json:"title" yaml:"title"`
	Details      string  `json:"details" yaml:"details"`
	Fixed        bool    `json:"fixed,omitempty" yaml:"fixed,omitempty"`
	OutLinkWidth float64 `json:"out_link_width,omitempty" yaml:"out_link_width,omitempty"`
	OutLinkTitle string  `json:"out_link_title,omitempty" yaml:"out_link_title,omitempty"`
}

// LinkView is one link as drawn.
type LinkView struct {
	Source   string     `json:"source" yaml:"source"`
	Target   string     `json:"target" yaml:"target"`
	SourceXY [2]float64 `json:"source_xy" yaml:"source_xy"`
	TargetXY [2]float64 `json:"target_xy" yaml:"target_xy"`
	Width    float64    `json:"width" yaml:"width"`
	Color    string     `json:"color" yaml:"color"`
	Title    string     `json:"title" yaml:"title"`
}

// Snapshot renders the current positions through style and view.
func (e *Engine) Snapshot(style Style, view View) Snapshot {
	if view.K == 0 {
		view = IdentityView()
	}
	snap := Snapshot{
		Nodes: make([]NodeView, 0, len(e.nodes)),
		Links: make([]LinkView, 0, len(e.graph.Links)),
		Alpha: e.alpha,
		Tick:  e.ticks,
		State: e.state.String(),
		View:  view,
	}

	for i, n := range e.graph.Nodes {
		sn := e.nodes[i]
		x, y := view.Apply(sn.x, sn.y)
		nv := NodeView{
			ID:      n.ID,
			X:       x,
			Y:       y,
			Radius:  style.Radius(n) * view.K,
			Color:   style.NodeColor(n),
			Title:   n.ID,
			Details: graph.NodeDetails(style.Game, n),
			Fixed:   sn.fixed,
		}
		if w := style.OutLinkWidth(n); w > 0 {
			nv.OutLinkWidth = w * view.K
			nv.OutLinkTitle = graph.InProgressDetails(n)
		}
		snap.Nodes = append(snap.Nodes, nv)
	}

	for _, l := range e.graph.Links {
		si, okS := e.index[l.Source]
		ti, okT := e.index[l.Target]
		if !okS || !okT {
			continue
		}
		sx, sy := view.Apply(e.nodes[si].x, e.nodes[si].y)
		tx, ty := view.Apply(e.nodes[ti].x, e.nodes[ti].y)
		snap.Links = append(snap.Links, LinkView{
			Source:   l.Source,
			Target:   l.Target,
			SourceXY: [2]float64{sx, sy},
			TargetXY: [2]float64{tx, ty},
			Width:    style.LinkWidth(l) * view.K,
			Color:    style.LinkColor(l),
			Title:    graph.LinkDetails(l),
		})
	}
	return snap
}
