package graph

import (
	"fmt"
	"strings"

	"github.com/opengamedata/ogdviz/errors"
)

// CompletionRatio is completes / starts, with zero starts counted as one.
func CompletionRatio(n Node) float64 {
	completes, _ := NumberAttr(n, AttrNumCompletes)
	starts, _ := NumberAttr(n, AttrNumStarts)
	if starts == 0 {
		starts = 1
	}
	return completes / starts
}

// NodeDetails is the hover text for a node. AQUALAB nodes also list job difficulties.
func NodeDetails(game string, n Node) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s of %s (%s%%) players completed\n",
		rawAttr(n, AttrNumCompletes), rawAttr(n, AttrNumStarts), fixed(n, AttrPercent, 2))
	fmt.Fprintf(&b, "Average Time on Job: %ss\n", fixed(n, AttrAvgTime, 0))
	fmt.Fprintf(&b, "Standard Deviation: %s", fixed(n, AttrStdDev, 2))

	if game == "AQUALAB" {
		difficulties, _ := n.Attributes[AttrDifficulties].(map[string]interface{})
		for _, d := range []struct{ label, key string }{
			{"Experimentation", "experimentation"},
			{"Modeling", "modeling"},
			{"Argumentation", "argumentation"},
		} {
			v, ok := difficulties[d.key]
			if !ok || v == nil {
				fmt.Fprintf(&b, "\n%s: N/A", d.label)
				continue
			}
			fmt.Fprintf(&b, "\n%s: %v", d.label, v)
		}
	}
	return b.String()
}

// LinkDetails is the hover text for a link.
func LinkDetails(l Link) string {
	return fmt.Sprintf("%d players moved from %s to %s", l.Value, l.Source, l.Target)
}

// InProgressDetails is the hover text for a node's in-progress marker.
func InProgressDetails(n Node) string {
	return fmt.Sprintf("%d players in progress", len(n.Players))
}

// LinkPlayersTitle heads the player list opened from a link.
func LinkPlayersTitle(l Link, kind TransitionKind) string {
	return fmt.Sprintf("%s\n➔ %s\n(%d %s)", l.Source, l.Target, len(l.Players), kind.Verb())
}

// NodePlayersTitle heads the player list opened from a node in progress mode.
func NodePlayersTitle(n Node) string {
	return fmt.Sprintf("%s (%d in progress)", n.ID, len(n.Players))
}

// PlayerList is the player picker opened from a link, or from a node when
// the graph shows players in progress.
type PlayerList struct {
	Title   string   `json:"title"`
	Players []string `json:"players"`
}

// LinkPlayers lists the players who moved from source to target.
func (g *JobGraph) LinkPlayers(source, target string) (PlayerList, error) {
	l, ok := g.Link(source, target)
	if !ok {
		return PlayerList{}, errors.NewNotFoundError("no link from %q to %q", source, target)
	}
	return PlayerList{
		Title:   LinkPlayersTitle(l, g.Meta.TransitionKind),
		Players: append([]string{}, l.Players...),
	}, nil
}

// NodePlayers lists the players still working on node id. Only in-progress
// graphs have per-node lists; the other kinds list players per link.
func (g *JobGraph) NodePlayers(id string) (PlayerList, error) {
	if g.Meta.TransitionKind != InProgress {
		return PlayerList{}, errors.NewInvalidRequestError(
			"node player lists need the in_progress transition kind, graph shows %s", g.Meta.TransitionKind)
	}
	n, ok := g.Node(id)
	if !ok {
		return PlayerList{}, errors.NewNotFoundError("no job %q", id)
	}
	return PlayerList{
		Title:   NodePlayersTitle(n),
		Players: append([]string{}, n.Players...),
	}, nil
}

func rawAttr(n Node, key string) string {
	v, ok := n.Attributes[key]
	if !ok || v == nil {
		return "N/A"
	}
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%g", f)
	}
	return fmt.Sprint(v)
}

func fixed(n Node, key string, digits int) string {
	f, ok := NumberAttr(n, key)
	if !ok {
		return "N/A"
	}
	return fmt.Sprintf("%.*f", digits, f)
}
