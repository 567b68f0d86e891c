// Package dashboard holds the state of one dashboard session: the selected
// visualization, its pending and committed filters, the fetched payload,
// the built model and the running layout.
package dashboard

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/opengamedata/ogdviz/cache"
	"github.com/opengamedata/ogdviz/catalog"
	"github.com/opengamedata/ogdviz/errors"
	"github.com/opengamedata/ogdviz/filter"
	"github.com/opengamedata/ogdviz/graph"
	"github.com/opengamedata/ogdviz/layout"
	"github.com/opengamedata/ogdviz/logger"
	"github.com/opengamedata/ogdviz/payload"
	"github.com/opengamedata/ogdviz/request"
	"github.com/opengamedata/ogdviz/visualizer"
)

// Fetcher performs one API call. *ogdapi.Client implements it.
type Fetcher interface {
	Fetch(ctx context.Context, d *request.Descriptor) (payload.Raw, error)
}

// Options configures New. Zero values get defaults.
type Options struct {
	Catalog *catalog.Catalog
	Layout  layout.Params
	Logger  *zap.SugaredLogger
	Clock   func() time.Time
}

// Status is a point-in-time summary for clients.
type Status struct {
	Visualizer  visualizer.Kind      `json:"visualizer"`
	Generation  uint64               `json:"generation"`
	CacheKey    string               `json:"cache_key,omitempty"`
	Transition  graph.TransitionKind `json:"transition"`
	HasModel    bool                 `json:"has_model"`
	LayoutState string               `json:"layout_state,omitempty"`
}

// Container sequences filter edits, fetches, model builds and the layout.
// All methods are safe for concurrent use. Fetches run without the lock;
// a result whose generation is no longer current is dropped.
type Container struct {
	cache   *cache.ResultCache
	fetcher Fetcher
	catalog *catalog.Catalog
	logger  *zap.SugaredLogger
	clock   func() time.Time

	mu         sync.Mutex
	params     layout.Params
	req        *visualizer.Request
	pending    filter.State
	committed  filter.State
	generation uint64
	descriptor *request.Descriptor
	shown      filter.State // filters raw was fetched with
	raw        payload.Raw
	model      visualizer.Model
	runner     *layout.Runner
}

// New returns a container showing the Initial visualization.
func New(results *cache.ResultCache, fetcher Fetcher, opts Options) *Container {
	if opts.Catalog == nil {
		opts.Catalog = catalog.Default()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Layout.AlphaDecay == 0 {
		opts.Layout = layout.DefaultParams()
	}
	c := &Container{
		cache:   results,
		fetcher: fetcher,
		catalog: opts.Catalog,
		logger:  opts.Logger.Named("dashboard"),
		clock:   opts.Clock,
		params:  opts.Layout,
	}
	if err := c.Select(visualizer.Initial); err != nil {
		panic(err)
	}
	return c
}

// Select switches visualization. The running layout stops, filters reset to
// the new kind's initial values and any fetch in flight is superseded.
func (c *Container) Select(kind visualizer.Kind) error {
	req, err := visualizer.New(kind, c.catalog, c.logger, visualizer.WithClock(c.clock))
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLayoutLocked()
	c.generation++
	c.req = req
	c.pending = req.FilterModel().InitialState()
	c.committed = c.pending.Clone()
	c.descriptor = nil
	c.shown = nil
	c.raw = nil
	c.model = nil

	c.logger.Infow("Selected visualizer",
		logger.FieldVisualizer, kind.String(),
		logger.FieldGeneration, c.generation)
	return nil
}

// Adjust applies patch to the pending filters and returns the result. The
// committed filters are untouched until Commit.
func (c *Container) Adjust(patch filter.State) filter.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = filter.Merge(c.pending, patch)
	return c.pending.Clone()
}

// AdjustLine parses assignments such as "Game=AQUALAB DateRange=2024-01-01..2024-01-31"
// and applies them with Adjust.
func (c *Container) AdjustLine(line string) (filter.State, error) {
	c.mu.Lock()
	model := c.req.FilterModel()
	c.mu.Unlock()

	patch, err := filter.ParseAssignments(model, line)
	if err != nil {
		return nil, err
	}
	return c.Adjust(patch), nil
}

// Commit validates the pending filters and freezes them for Visualize.
// On failure the committed filters keep their previous value.
func (c *Container) Commit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.req.FilterModel().Validate(c.pending).Err(); err != nil {
		return err
	}
	c.committed = c.pending.Clone()
	return nil
}

// Visualize fetches the committed request through the cache, builds the
// model and, for job graphs, starts a new layout once the model is built.
// A newer Select or Visualize call makes this one return ErrSuperseded; its
// payload is still cached. Filters that fail validation leave the current
// view and any fetch in flight alone.
func (c *Container) Visualize(ctx context.Context) (visualizer.Model, error) {
	c.mu.Lock()
	req := c.req
	state := c.committed.Clone()
	d, err := req.Descriptor(state)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	c.stopLayoutLocked()
	c.generation++
	gen := c.generation
	if d == nil {
		model, err := req.BuildModel(state, nil)
		if err == nil {
			c.descriptor, c.shown, c.raw, c.model = nil, nil, nil, model
		}
		c.mu.Unlock()
		return model, err
	}
	c.mu.Unlock()

	log := logger.FromContext(ctx, c.logger).With(
		logger.FieldGeneration, gen,
		logger.FieldCacheKey, d.CacheKey())
	start := time.Now()
	raw, err := c.cache.GetOrFetch(ctx, d.CacheKey(), func(ctx context.Context) (payload.Raw, error) {
		return c.fetcher.Fetch(ctx, d)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		log.Debugw("Dropping superseded result", "current", c.generation)
		return nil, errors.Wrapf(errors.ErrSuperseded, "generation %d", gen)
	}
	if err != nil {
		log.Warnw("Fetch failed", logger.FieldError, err)
		return nil, err
	}

	model, err := req.BuildModel(state, raw)
	if err != nil {
		log.Warnw("Model build failed", logger.FieldError, err)
		return nil, err
	}
	c.descriptor, c.shown, c.raw, c.model = d, state, raw, model
	c.startLayoutLocked()

	log.Infow("Visualized",
		logger.FieldVisualizer, req.Kind().String(),
		logger.FieldSize, len(raw),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return model, nil
}

// SetTransitionKind switches the job graph link source and, when a payload
// is loaded, rebuilds the model from the filters that payload was fetched
// with and restarts the layout.
func (c *Container) SetTransitionKind(kind graph.TransitionKind) (visualizer.Model, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.req.SetTransitionKind(kind)
	if c.req.Kind() != visualizer.JobGraph || c.descriptor == nil {
		return c.model, nil
	}

	c.stopLayoutLocked()
	model, err := c.req.BuildModel(c.shown, c.raw)
	if err != nil {
		return nil, err
	}
	c.model = model
	c.startLayoutLocked()
	c.logger.Infow("Changed transition kind", logger.FieldTransition, kind.String())
	return model, nil
}

// Players lists the players behind the link source to target of the shown
// job graph. An empty target asks for the players in progress on node source.
func (c *Container) Players(source, target string) (graph.PlayerList, error) {
	c.mu.Lock()
	g, ok := c.model.(*graph.JobGraph)
	c.mu.Unlock()
	if !ok {
		return graph.PlayerList{}, errors.NewNotFoundError("no job graph is shown")
	}
	if target == "" {
		return g.NodePlayers(source)
	}
	return g.LinkPlayers(source, target)
}

// OpenTimeline selects the player timeline for player and commits its
// filters, keeping the game of the job graph on screen. Visualize fetches it.
func (c *Container) OpenTimeline(player string) error {
	player = strings.TrimSpace(player)
	if player == "" {
		return errors.NewInvalidRequestError("player id is required")
	}

	c.mu.Lock()
	game := ""
	if g, ok := c.model.(*graph.JobGraph); ok {
		game = g.Meta.Game
	}
	c.mu.Unlock()

	if err := c.Select(visualizer.PlayerTimeline); err != nil {
		return err
	}
	patch := filter.State{visualizer.ItemPlayerID: filter.Value{Selected: player}}
	if game != "" {
		patch[visualizer.ItemGame] = filter.Value{Selected: game}
	}
	c.Adjust(patch)
	return c.Commit()
}

// ClearCache empties the result cache. The current model is kept.
func (c *Container) ClearCache(ctx context.Context) error {
	return c.cache.Clear(ctx)
}

// SetLayoutParams replaces the parameters used by the next layout.
func (c *Container) SetLayoutParams(p layout.Params) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = p
}

// Model returns the current model, nil before the first Visualize.
func (c *Container) Model() visualizer.Model {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.model
}

// Layout returns the running layout, nil unless a job graph is shown.
func (c *Container) Layout() *layout.Runner {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runner
}

// FilterModel returns the filter items of the selected visualization.
func (c *Container) FilterModel() *filter.Model {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.req.FilterModel()
}

// Pending returns a copy of the filters being edited.
func (c *Container) Pending() filter.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending.Clone()
}

// Committed returns a copy of the filters the next Visualize uses.
func (c *Container) Committed() filter.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.committed.Clone()
}

func (c *Container) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Status{
		Visualizer: c.req.Kind(),
		Generation: c.generation,
		Transition: c.req.TransitionKind(),
		HasModel:   c.model != nil,
	}
	if c.descriptor != nil {
		s.CacheKey = c.descriptor.CacheKey()
	}
	if c.runner != nil {
		s.LayoutState = c.runner.Latest().State
	}
	return s
}

// Close stops the layout.
func (c *Container) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLayoutLocked()
}

func (c *Container) startLayoutLocked() {
	g, ok := c.model.(*graph.JobGraph)
	if !ok {
		return
	}
	engine := layout.NewEngine(g, c.params)
	c.runner = layout.NewRunner(engine, layout.NewStyle(g, c.params), c.logger)
	c.runner.Start()
}

func (c *Container) stopLayoutLocked() {
	if c.runner == nil {
		return
	}
	c.runner.Stop()
	c.runner = nil
}
