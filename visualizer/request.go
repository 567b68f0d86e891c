// Package visualizer ties each visualization to its filters, its API
// request and its model.
//
// A Request is one struct tagged by Kind. Every operation dispatches
// through a single switch, so adding a kind means extending each switch.
package visualizer

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/opengamedata/ogdviz/catalog"
	"github.com/opengamedata/ogdviz/errors"
	"github.com/opengamedata/ogdviz/filter"
	"github.com/opengamedata/ogdviz/graph"
	"github.com/opengamedata/ogdviz/logger"
	"github.com/opengamedata/ogdviz/payload"
	"github.com/opengamedata/ogdviz/request"
)

// Model is what BuildModel returns: InitialModel, *graph.JobGraph,
// *HistogramModel, *ScatterplotModel or *TimelineModel.
type Model interface {
	IsEmpty() bool
}

// InitialModel is the placeholder shown before a visualization is chosen.
type InitialModel struct {
	Game string `json:"game" yaml:"game"`
}

func (InitialModel) IsEmpty() bool { return true }

// memoKey holds everything besides the payload that shapes a model.
type memoKey struct {
	game       string
	transition graph.TransitionKind
	variant    string
}

// Request is one visualization's filters, request and model cache.
// It is not safe for concurrent use.
type Request struct {
	kind       Kind
	catalog    *catalog.Catalog
	filters    *filter.Model
	transition graph.TransitionKind
	builder    *graph.Builder
	logger     *zap.SugaredLogger

	memoValid bool
	memoRaw   payload.Raw
	memoKey   memoKey
	memoModel Model
}

// Option customizes New.
type Option func(*Request)

// WithClock sets the time used for default dates and date validation.
func WithClock(clock func() time.Time) Option {
	return func(r *Request) {
		r.filters = newFilterModel(r.kind, r.catalog, clock()).WithClock(clock)
	}
}

// New returns a request for kind with a fresh filter model.
func New(kind Kind, cat *catalog.Catalog, log *zap.SugaredLogger, opts ...Option) (*Request, error) {
	switch kind {
	case Initial, JobGraph, Histogram, Scatterplot, PlayerTimeline:
	default:
		return nil, errors.NewInvalidRequestError("unknown visualizer kind %d", int(kind))
	}
	if cat == nil {
		cat = catalog.Default()
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	r := &Request{
		kind:       kind,
		catalog:    cat,
		filters:    newFilterModel(kind, cat, time.Now()),
		transition: graph.Completion,
		logger:     log.Named("visualizer"),
	}
	r.builder = graph.NewBuilder(log)
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Request) Kind() Kind { return r.kind }

// FilterModel returns this request's filter items.
func (r *Request) FilterModel() *filter.Model { return r.filters }

// TransitionKind is the link source used for job graphs.
func (r *Request) TransitionKind() graph.TransitionKind { return r.transition }

// SetTransitionKind changes the job graph link source. The next BuildModel
// rebuilds even when the payload is unchanged.
func (r *Request) SetTransitionKind(k graph.TransitionKind) {
	r.transition = k
}

// Descriptor returns the API request for state, or nil for Initial.
// Validation runs first, so an invalid state never produces a request.
func (r *Request) Descriptor(state filter.State) (*request.Descriptor, error) {
	if r.kind == Initial {
		return nil, nil
	}
	if err := r.filters.Validate(state).Err(); err != nil {
		return nil, err
	}
	game := state[ItemGame].Selected

	params := request.Params{Game: game}
	switch r.kind {
	case Initial:
	case JobGraph:
		params.Scope = request.Population
	case Histogram:
		params.Scope = scopeOf(state)
		if err := r.requireMetric(game, ItemMetric, state[ItemMetric].Selected); err != nil {
			return nil, err
		}
	case Scatterplot:
		params.Scope = scopeOf(state)
		for _, item := range []string{ItemXMetric, ItemYMetric} {
			if err := r.requireMetric(game, item, state[item].Selected); err != nil {
				return nil, err
			}
		}
	case PlayerTimeline:
		params.Scope = request.Player
		params.PlayerID = state[ItemPlayerID].Selected
	}

	metrics, err := r.catalog.Metrics(game, r.kind.String())
	if err != nil {
		return nil, err
	}
	params.Metrics = metrics
	params.StartDate, params.EndDate = dateBounds(state)
	appRange, logRange := state[ItemAppVersionRange], state[ItemLogVersionRange]
	params.MinAppVersion, params.MaxAppVersion = appRange.Min.Text, appRange.Max.Text
	params.MinLogVersion, params.MaxLogVersion = logRange.Min.Text, logRange.Max.Text

	return request.Build(params)
}

// requireMetric rejects a metric the selected game does not provide.
func (r *Request) requireMetric(game, item, metric string) error {
	if r.catalog.Supports(game, r.kind.String(), metric) {
		return nil
	}
	return &filter.ValidationError{
		Item:    item,
		Message: fmt.Sprintf(filter.MsgNotAvailable, metric, "metric for "+game),
	}
}

// BuildModel turns raw into this kind's model. When raw is value-equal to
// the previous payload and nothing else that shapes the model changed, the
// previous instance is returned.
func (r *Request) BuildModel(state filter.State, raw payload.Raw) (Model, error) {
	key := memoKey{game: state[ItemGame].Selected}
	switch r.kind {
	case JobGraph:
		key.transition = r.transition
	case Histogram:
		key.variant = state[ItemMetric].Selected
	case Scatterplot:
		key.variant = state[ItemXMetric].Selected + "\x00" + state[ItemYMetric].Selected
	}
	if r.memoValid && r.memoKey == key && r.memoRaw.Equal(raw) {
		return r.memoModel, nil
	}

	start := time.Now()
	var (
		model Model
		err   error
	)
	switch r.kind {
	case Initial:
		model = InitialModel{Game: key.game}
	case JobGraph:
		model, err = r.builder.Build(key.game, raw, r.transition)
	case Histogram:
		model, err = NewHistogram(key.game, raw, state[ItemMetric].Selected, DefaultBins)
	case Scatterplot:
		model, err = NewScatterplot(key.game, raw, state[ItemXMetric].Selected, state[ItemYMetric].Selected)
	case PlayerTimeline:
		model, err = NewTimeline(raw)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "build %s model", r.kind)
	}

	r.memoValid = true
	r.memoRaw = append(payload.Raw(nil), raw...)
	r.memoKey = key
	r.memoModel = model
	r.logger.Debugw("Built model",
		logger.FieldVisualizer, r.kind.String(),
		logger.FieldGame, key.game,
		logger.FieldSize, len(raw),
		logger.FieldDurationMS, time.Since(start).Milliseconds())
	return model, nil
}
