package graph

import (
	"encoding/json"
	"sort"

	"github.com/opengamedata/ogdviz/errors"
	grapherror "github.com/opengamedata/ogdviz/graph/error"
	"github.com/opengamedata/ogdviz/logger"
	"github.com/opengamedata/ogdviz/payload"
)

const maxWarnings = 50

// Build converts a raw population payload into a JobGraph for kind.
//
// Each top-level key becomes a node. Fields that cannot be used are skipped
// with a warning in Meta.Warnings; only a payload that is not a JSON object
// fails the build. An empty payload yields an empty graph.
func (b *Builder) Build(game string, raw payload.Raw, kind TransitionKind) (*JobGraph, error) {
	g := &JobGraph{
		Nodes: []Node{},
		Links: []Link{},
		Meta: Meta{
			Game:           game,
			TransitionKind: kind,
			GeneratedAt:    b.now(),
		},
		index: map[string]int{},
	}
	if raw.IsEmpty() {
		return g, nil
	}

	var records map[string]json.RawMessage
	if err := raw.Decode(&records); err != nil {
		return g, errors.Wrap(err, "job graph payload must be an object keyed by activity")
	}

	t := &transform{
		builder: b,
		graph:   g,
		kind:    kind,
		nodes:   map[string]*nodeBuilder{},
		active:  map[string]map[string]bool{},
		links:   map[linkKey]map[string]bool{},
	}
	for _, id := range sortedKeys(records) {
		if structuredFields[id] {
			t.structured(id, records[id], "")
			continue
		}
		t.record(id, records[id])
	}
	t.finish()

	b.logger.Debugw("Built job graph",
		logger.FieldGame, game,
		logger.FieldTransition, kind.String(),
		logger.FieldNodeCount, len(g.Nodes),
		logger.FieldLinkCount, len(g.Links))
	return g, nil
}

type linkKey struct{ source, target string }

type nodeBuilder struct {
	attrs   map[string]interface{}
	players map[string]bool
}

type transform struct {
	builder *Builder
	graph   *JobGraph
	kind    TransitionKind

	nodes  map[string]*nodeBuilder
	active map[string]map[string]bool
	links  map[linkKey]map[string]bool
}

func (t *transform) record(id string, raw json.RawMessage) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.omit(grapherror.New(grapherror.CategoryTransform, errors.Wrapf(err, "activity %q is not a record", id), "").
			WithSubcategory(grapherror.SubcategoryTransformField).
			WithContext(logger.FieldActivity, id))
		return
	}

	n := &nodeBuilder{attrs: map[string]interface{}{}, players: map[string]bool{}}
	for _, name := range sortedKeys(fields) {
		if structuredFields[name] {
			t.structured(name, fields[name], id)
			continue
		}
		var v interface{}
		if err := json.Unmarshal(fields[name], &v); err != nil {
			t.omit(fieldError(id, name, err))
			continue
		}
		n.attrs[name] = v
	}
	t.nodes[id] = n
}

// structured handles a well-known field found at the top level (owner "")
// or inside the record of activity owner.
func (t *transform) structured(name string, raw json.RawMessage, owner string) {
	switch name {
	case FieldActiveJobs:
		active, err := parseActiveJobs(raw, owner)
		if err != nil {
			t.omit(fieldError(owner, name, err))
			return
		}
		for activity, players := range active {
			addAll(setFor(t.active, activity), players)
		}
	case FieldCompletionDests, FieldSwitchDests:
		if t.kind.Metric() != name {
			return
		}
		dests, err := parseDestinations(raw, owner)
		if err != nil {
			t.omit(fieldError(owner, name, err))
			return
		}
		for _, d := range dests {
			k := linkKey{d.source, d.target}
			if t.links[k] == nil {
				t.links[k] = map[string]bool{}
			}
			addAll(t.links[k], d.players)
		}
	case FieldPlayerSummary:
		if len(t.graph.Meta.PlayerSummary) == 0 {
			t.graph.Meta.PlayerSummary = append(json.RawMessage(nil), raw...)
		}
	case FieldPopulationSummary:
		if len(t.graph.Meta.PopulationSummary) == 0 {
			t.graph.Meta.PopulationSummary = append(json.RawMessage(nil), raw...)
		}
	}
}

func setFor(m map[string]map[string]bool, key string) map[string]bool {
	if m[key] == nil {
		m[key] = map[string]bool{}
	}
	return m[key]
}

func (t *transform) finish() {
	g := t.graph

	for id, players := range t.active {
		if n, ok := t.nodes[id]; ok {
			addSet(n.players, players)
		}
	}

	if t.kind != InProgress {
		keys := make([]linkKey, 0, len(t.links))
		for k := range t.links {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].source != keys[j].source {
				return keys[i].source < keys[j].source
			}
			return keys[i].target < keys[j].target
		})

		for _, k := range keys {
			src, okSrc := t.nodes[k.source]
			_, okDst := t.nodes[k.target]
			if !okSrc || !okDst {
				missing := k.target
				if !okSrc {
					missing = k.source
				}
				t.omit(grapherror.Newf(grapherror.CategoryTransform, "",
					"link %s -> %s references unknown activity %q", k.source, k.target, missing).
					WithSubcategory(grapherror.SubcategoryTransformUnknownTarget).
					WithContext(logger.FieldActivity, k.source).
					WithContext(logger.FieldTarget, k.target))
				continue
			}
			players := setToSorted(t.links[k])
			// players who moved along a link were at its source
			addAll(src.players, players)
			g.Links = append(g.Links, Link{
				Source:  k.source,
				Target:  k.target,
				Value:   len(players),
				Players: players,
			})
		}
	}

	everyone := map[string]bool{}
	for _, id := range sortedKeys(t.nodes) {
		n := t.nodes[id]
		node := Node{ID: id, Attributes: n.attrs, Players: setToSorted(n.players)}
		addSet(everyone, n.players)

		if avg, ok := NumberAttr(node, AttrAvgTime); ok {
			if !g.Meta.HasAvgTime || avg < g.Meta.MinAvgTime {
				g.Meta.MinAvgTime = avg
			}
			if !g.Meta.HasAvgTime || avg > g.Meta.MaxAvgTime {
				g.Meta.MaxAvgTime = avg
			}
			g.Meta.HasAvgTime = true
		}

		g.index[id] = len(g.Nodes)
		g.Nodes = append(g.Nodes, node)
	}

	g.Meta.Stats.TotalNodes = len(g.Nodes)
	g.Meta.Stats.TotalLinks = len(g.Links)
	g.Meta.Stats.TotalPlayers = len(everyone)
}

func (t *transform) omit(ge *grapherror.GraphError) {
	t.graph.Meta.Stats.Omitted++
	t.builder.logger.Warnw("Skipping unusable job graph data", ge.ToLogFields()...)
	if len(t.graph.Meta.Warnings) < maxWarnings {
		t.graph.Meta.Warnings = append(t.graph.Meta.Warnings, ge.ToMeta())
	}
}

func fieldError(activity, field string, err error) *grapherror.GraphError {
	return grapherror.New(grapherror.CategoryTransform, errors.Wrapf(err, "field %s", field), "").
		WithSubcategory(grapherror.SubcategoryTransformField).
		WithContext(logger.FieldActivity, activity).
		WithContext("field", field)
}

// parseActiveJobs accepts [[activity, player], ...], {activity: [players]},
// or, inside an activity record, a bare list of players.
func parseActiveJobs(raw json.RawMessage, owner string) (map[string][]string, error) {
	out := map[string][]string{}

	var byActivity map[string][]string
	if err := json.Unmarshal(raw, &byActivity); err == nil {
		for activity, players := range byActivity {
			out[activity] = append(out[activity], players...)
		}
		return out, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, errors.New("expected a list of (activity, player) pairs or an activity map")
	}
	for _, item := range items {
		var pair []string
		if err := json.Unmarshal(item, &pair); err == nil && len(pair) == 2 {
			out[pair[0]] = append(out[pair[0]], pair[1])
			continue
		}
		var player string
		if err := json.Unmarshal(item, &player); err == nil && owner != "" {
			out[owner] = append(out[owner], player)
			continue
		}
		return nil, errors.Newf("unrecognized ActiveJobs entry %s", string(item))
	}
	return out, nil
}

type destination struct {
	source, target string
	players        []string
}

// parseDestinations accepts {source: [[target, [players]], ...]} or
// {source: {target: [players]}}. Inside an activity record a bare
// [[target, [players]], ...] list is taken to start at that activity.
func parseDestinations(raw json.RawMessage, owner string) ([]destination, error) {
	var bySource map[string]json.RawMessage
	if err := json.Unmarshal(raw, &bySource); err == nil {
		var out []destination
		for _, source := range sortedKeys(bySource) {
			targets, err := parseTargets(bySource[source])
			if err != nil {
				return nil, errors.Wrapf(err, "source %q", source)
			}
			for _, d := range targets {
				d.source = source
				out = append(out, d)
			}
		}
		return out, nil
	}

	if owner == "" {
		return nil, errors.New("expected an object keyed by source activity")
	}
	targets, err := parseTargets(raw)
	if err != nil {
		return nil, err
	}
	for i := range targets {
		targets[i].source = owner
	}
	return targets, nil
}

func parseTargets(raw json.RawMessage) ([]destination, error) {
	var byTarget map[string][]string
	if err := json.Unmarshal(raw, &byTarget); err == nil {
		out := make([]destination, 0, len(byTarget))
		for _, target := range sortedKeys(byTarget) {
			out = append(out, destination{target: target, players: byTarget[target]})
		}
		return out, nil
	}

	var pairs [][]json.RawMessage
	if err := json.Unmarshal(raw, &pairs); err != nil {
		return nil, errors.New("expected [target, [players]] pairs or a target map")
	}
	out := make([]destination, 0, len(pairs))
	for _, pair := range pairs {
		if len(pair) != 2 {
			return nil, errors.Newf("destination entry has %d elements, want 2", len(pair))
		}
		var d destination
		if err := json.Unmarshal(pair[0], &d.target); err != nil {
			return nil, errors.Wrap(err, "destination target")
		}
		if err := json.Unmarshal(pair[1], &d.players); err != nil {
			return nil, errors.Wrapf(err, "players for %q", d.target)
		}
		out = append(out, d)
	}
	return out, nil
}

// NumberAttr reads a numeric attribute that may have been sent as a number or a numeric string.
func NumberAttr(n Node, key string) (float64, bool) {
	return toFloat(n.Attributes[key])
}

func toFloat(v interface{}) (float64, bool) {
	return payload.Number(v)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func addAll(set map[string]bool, items []string) {
	for _, s := range items {
		set[s] = true
	}
}

func addSet(dst, src map[string]bool) {
	for s := range src {
		dst[s] = true
	}
}

func setToSorted(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
