package graph

import (
	"encoding/json"
	"time"
)

// JobGraph is the render-ready graph of player flow between activities.
type JobGraph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
	Meta  Meta   `json:"meta"`

	index map[string]int
}

// Node is one activity ("job").
type Node struct {
	ID         string                 `json:"id"`
	Attributes map[string]interface{} `json:"attributes,omitempty"`
	Players    []string               `json:"players"` // sorted, unique
}

// Link is one observed transition between two activities under the selected kind.
type Link struct {
	Source  string   `json:"source"`
	Target  string   `json:"target"`
	Value   int      `json:"value"`   // len(Players)
	Players []string `json:"players"` // sorted, unique
}

// Meta holds derived ranges and the summaries passed through from the payload.
type Meta struct {
	Game           string         `json:"game,omitempty"`
	TransitionKind TransitionKind `json:"transition_kind"`

	// MinAvgTime and MaxAvgTime span AttrAvgTime over the nodes that have it.
	// HasAvgTime is false when no node does.
	MinAvgTime float64 `json:"min_avg_time"`
	MaxAvgTime float64 `json:"max_avg_time"`
	HasAvgTime bool    `json:"has_avg_time"`

	PlayerSummary     json.RawMessage `json:"player_summary,omitempty"`
	PopulationSummary json.RawMessage `json:"population_summary,omitempty"`

	Stats       Stats               `json:"stats"`
	Warnings    []map[string]string `json:"warnings,omitempty"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// Stats counts what the transform produced.
type Stats struct {
	TotalNodes   int `json:"total_nodes"`
	TotalLinks   int `json:"total_links"`
	TotalPlayers int `json:"total_players"`
	Omitted      int `json:"omitted,omitempty"`
}

// Node returns the node with id.
func (g *JobGraph) Node(id string) (Node, bool) {
	if g == nil {
		return Node{}, false
	}
	i, ok := g.index[id]
	if !ok {
		return Node{}, false
	}
	return g.Nodes[i], true
}

// Link returns the link from source to target.
func (g *JobGraph) Link(source, target string) (Link, bool) {
	if g == nil {
		return Link{}, false
	}
	for _, l := range g.Links {
		if l.Source == source && l.Target == target {
			return l, true
		}
	}
	return Link{}, false
}

// IsEmpty reports whether the graph has no nodes.
func (g *JobGraph) IsEmpty() bool {
	return g == nil || len(g.Nodes) == 0
}
