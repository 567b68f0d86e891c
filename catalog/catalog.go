// Package catalog lists the games the dashboard can query and the metric
// extractors each visualization needs from the OpenGameData API.
package catalog

import (
	_ "embed"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/opengamedata/ogdviz/errors"
)

//go:embed games.toml
var embedded string

// Visualizer ids used as keys under [games.metrics].
const (
	JobGraph       = "job_graph"
	Histogram      = "histogram"
	Scatterplot    = "scatterplot"
	PlayerTimeline = "player_timeline"
)

// Game is one catalogue entry.
type Game struct {
	ID      string              `toml:"id"`
	Name    string              `toml:"name"`
	Metrics map[string][]string `toml:"metrics"`
}

// Catalog is an ordered set of games. The first game is the default selection.
type Catalog struct {
	Games []Game `toml:"games"`
}

// Default returns the embedded catalogue.
func Default() *Catalog {
	c, err := Parse(embedded)
	if err != nil {
		panic(errors.Wrap(err, "embedded games.toml is invalid"))
	}
	return c
}

// Load reads a catalogue file, or the embedded one when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read catalog %s", path)
	}
	c, err := Parse(string(data))
	if err != nil {
		return nil, errors.Wrapf(err, "catalog %s", path)
	}
	return c, nil
}

// Parse decodes catalogue TOML and rejects unknown keys, duplicate ids and empty metric lists.
func Parse(data string) (*Catalog, error) {
	var c Catalog
	md, err := toml.Decode(data, &c)
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode catalog")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.Newf("unknown catalog keys: %s", strings.Join(keys, ", "))
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) validate() error {
	if len(c.Games) == 0 {
		return errors.New("catalog has no games")
	}
	seen := make(map[string]bool, len(c.Games))
	for _, g := range c.Games {
		if g.ID == "" {
			return errors.New("catalog game missing id")
		}
		if seen[g.ID] {
			return errors.Newf("duplicate game id %q", g.ID)
		}
		seen[g.ID] = true
		for viz, metrics := range g.Metrics {
			if len(metrics) == 0 {
				return errors.Newf("game %q lists no metrics for %s", g.ID, viz)
			}
		}
	}
	return nil
}

// IDs returns game ids in catalogue order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.Games))
	for i, g := range c.Games {
		ids[i] = g.ID
	}
	return ids
}

// DefaultGame returns the first game id.
func (c *Catalog) DefaultGame() string {
	return c.Games[0].ID
}

// Lookup finds a game by id.
func (c *Catalog) Lookup(id string) (Game, bool) {
	for _, g := range c.Games {
		if g.ID == id {
			return g, true
		}
	}
	return Game{}, false
}

// Has reports whether id is a catalogue game.
func (c *Catalog) Has(id string) bool {
	_, ok := c.Lookup(id)
	return ok
}

// Metrics returns a copy of the metric list visualizer needs for game.
func (c *Catalog) Metrics(game, visualizer string) ([]string, error) {
	g, ok := c.Lookup(game)
	if !ok {
		return nil, errors.NewNotFoundError("game %q is not in the catalog", game)
	}
	metrics, ok := g.Metrics[visualizer]
	if !ok {
		return nil, errors.NewNotFoundError("game %q has no %s metrics", game, visualizer)
	}
	return slices.Clone(metrics), nil
}

// Supports reports whether game lists metric for visualizer.
func (c *Catalog) Supports(game, visualizer, metric string) bool {
	metrics, err := c.Metrics(game, visualizer)
	return err == nil && slices.Contains(metrics, metric)
}

// Visualizers returns the visualizer ids game has metrics for, sorted.
func (g Game) Visualizers() []string {
	ids := make([]string, 0, len(g.Metrics))
	for id := range g.Metrics {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
