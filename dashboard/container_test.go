package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/opengamedata/ogdviz/cache"
	"github.com/opengamedata/ogdviz/errors"
	"github.com/opengamedata/ogdviz/filter"
	"github.com/opengamedata/ogdviz/graph"
	"github.com/opengamedata/ogdviz/layout"
	"github.com/opengamedata/ogdviz/payload"
	"github.com/opengamedata/ogdviz/request"
	"github.com/opengamedata/ogdviz/visualizer"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

const jobPayload = `{
	"Intro": {"JobsAttempted-avg-time-per-attempt": 10,
		"TopJobCompletionDestinations": {"Intro": [["Outro", ["p1", "p2"]]]},
		"TopJobSwitchDestinations": {"Intro": [["Kelp", ["p3"]]]}},
	"Outro": {"JobsAttempted-avg-time-per-attempt": 30},
	"Kelp": {}
}`

// fakeFetcher answers every request with body. When gate is set each call
// waits for a value on it.
type fakeFetcher struct {
	body  string
	err   error
	gate  chan struct{}
	calls atomic.Int32
	keys  sync.Map
}

func (f *fakeFetcher) Fetch(ctx context.Context, d *request.Descriptor) (payload.Raw, error) {
	f.calls.Add(1)
	f.keys.Store(d.CacheKey(), true)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return payload.Raw(f.body), nil
}

func createTestContainer(t *testing.T, f *fakeFetcher) (*Container, *cache.ResultCache) {
	t.Helper()
	log := zaptest.NewLogger(t).Sugar()
	results := cache.New(cache.NewMemoryStore(), log)
	p := layout.DefaultParams()
	p.TickInterval = time.Millisecond
	c := New(results, f, Options{Layout: p, Logger: log, Clock: func() time.Time { return testNow }})
	t.Cleanup(c.Close)
	return c, results
}

func TestContainer_InitialHasNoFetch(t *testing.T) {
	f := &fakeFetcher{body: jobPayload}
	c, _ := createTestContainer(t, f)

	m, err := c.Visualize(context.Background())
	require.NoError(t, err)
	assert.Equal(t, visualizer.InitialModel{Game: "AQUALAB"}, m)
	assert.Equal(t, int32(0), f.calls.Load())
	assert.Nil(t, c.Layout())
}

func TestContainer_JobGraphFlow(t *testing.T) {
	f := &fakeFetcher{body: jobPayload}
	c, results := createTestContainer(t, f)
	ctx := context.Background()

	require.NoError(t, c.Select(visualizer.JobGraph))
	require.NoError(t, c.Commit())

	m, err := c.Visualize(ctx)
	require.NoError(t, err)
	g, ok := m.(*graph.JobGraph)
	require.True(t, ok)
	assert.Len(t, g.Nodes, 3)
	require.Len(t, g.Links, 1)
	assert.Equal(t, "Outro", g.Links[0].Target)

	runner := c.Layout()
	require.NotNil(t, runner)
	assert.Eventually(t, func() bool { return runner.Latest().Tick > 0 }, 2*time.Second, time.Millisecond)

	status := c.Status()
	assert.Equal(t, visualizer.JobGraph, status.Visualizer)
	assert.True(t, status.HasModel)
	assert.NotEmpty(t, status.CacheKey)

	entries, err := results.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, status.CacheKey, entries[0].Key)

	// second visualize is served by the cache and restarts the layout
	_, err = c.Visualize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), f.calls.Load())
	assert.NotSame(t, runner, c.Layout())
	_, open := <-subscribeClosed(runner)
	assert.False(t, open, "previous layout stopped")
}

func subscribeClosed(r *layout.Runner) <-chan layout.Snapshot {
	ch, _ := r.Subscribe()
	return ch
}

func TestContainer_SwitchingTransitionKind(t *testing.T) {
	f := &fakeFetcher{body: jobPayload}
	c, _ := createTestContainer(t, f)

	require.NoError(t, c.Select(visualizer.JobGraph))
	_, err := c.Visualize(context.Background())
	require.NoError(t, err)
	before := c.Layout()

	m, err := c.SetTransitionKind(graph.Switch)
	require.NoError(t, err)
	g := m.(*graph.JobGraph)
	require.Len(t, g.Links, 1)
	assert.Equal(t, "Kelp", g.Links[0].Target)
	assert.Equal(t, graph.Switch, g.Meta.TransitionKind)
	assert.NotSame(t, before, c.Layout())
	assert.Equal(t, int32(1), f.calls.Load(), "no refetch")

	m, err = c.SetTransitionKind(graph.InProgress)
	require.NoError(t, err)
	assert.Empty(t, m.(*graph.JobGraph).Links)
}

func TestContainer_AdjustAndCommit(t *testing.T) {
	c, _ := createTestContainer(t, &fakeFetcher{body: jobPayload})
	require.NoError(t, c.Select(visualizer.JobGraph))
	committed := c.Committed()

	pending, err := c.AdjustLine("DateRange=2024-01-31..2024-01-01")
	require.NoError(t, err)
	assert.True(t, pending[visualizer.ItemDateRange].Min.Date.After(pending[visualizer.ItemDateRange].Max.Date))
	assert.Equal(t, committed, c.Committed(), "adjust leaves the committed state alone")

	err = c.Commit()
	var verr *filter.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, filter.MsgStartAfterEnd, verr.Message)
	assert.Equal(t, committed, c.Committed())

	_, err = c.AdjustLine("DateRange=2024-01-01..2024-01-31 Game=SHIPWRECKS")
	require.NoError(t, err)
	require.NoError(t, c.Commit())
	assert.Equal(t, "SHIPWRECKS", c.Committed()[visualizer.ItemGame].Selected)

	_, err = c.AdjustLine("Colour=blue")
	assert.True(t, errors.IsInvalidRequestError(err))
}

func TestContainer_FetchFailureKeepsPreviousModel(t *testing.T) {
	f := &fakeFetcher{body: jobPayload}
	c, _ := createTestContainer(t, f)
	require.NoError(t, c.Select(visualizer.JobGraph))
	first, err := c.Visualize(context.Background())
	require.NoError(t, err)

	f.err = errors.Wrap(errors.ErrServiceUnavailable, "upstream down")
	_, err = c.AdjustLine("AppVersionRange=2..*")
	require.NoError(t, err)
	require.NoError(t, c.Commit())

	_, err = c.Visualize(context.Background())
	assert.True(t, errors.IsServiceUnavailableError(err))
	assert.Same(t, first, c.Model())
}

func TestContainer_SupersededResultDropped(t *testing.T) {
	f := &fakeFetcher{body: jobPayload, gate: make(chan struct{})}
	c, results := createTestContainer(t, f)
	require.NoError(t, c.Select(visualizer.JobGraph))

	errc := make(chan error, 1)
	go func() {
		_, err := c.Visualize(context.Background())
		errc <- err
	}()
	require.Eventually(t, func() bool { return f.calls.Load() == 1 }, 2*time.Second, time.Millisecond)

	// a new selection takes over while the fetch is in flight
	require.NoError(t, c.Select(visualizer.Histogram))
	f.gate <- struct{}{}

	err := <-errc
	assert.True(t, errors.IsSupersededError(err))
	assert.Nil(t, c.Model())
	assert.Nil(t, c.Layout())

	entries, err := results.Entries(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 1, "superseded payload is still cached")
}

func TestContainer_ClearCache(t *testing.T) {
	f := &fakeFetcher{body: jobPayload}
	c, _ := createTestContainer(t, f)
	require.NoError(t, c.Select(visualizer.JobGraph))
	ctx := context.Background()

	_, err := c.Visualize(ctx)
	require.NoError(t, err)
	require.NoError(t, c.ClearCache(ctx))
	_, err = c.Visualize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestContainer_SelectStopsLayout(t *testing.T) {
	c, _ := createTestContainer(t, &fakeFetcher{body: jobPayload})
	require.NoError(t, c.Select(visualizer.JobGraph))
	_, err := c.Visualize(context.Background())
	require.NoError(t, err)
	runner := c.Layout()
	require.NotNil(t, runner)

	require.NoError(t, c.Select(visualizer.Histogram))
	assert.Nil(t, c.Layout())
	assert.Nil(t, c.Model())
	_, open := <-subscribeClosed(runner)
	assert.False(t, open)

	assert.Error(t, c.Select(visualizer.Kind(99)))
	assert.Equal(t, visualizer.Histogram, c.Status().Visualizer)
}

func TestContainer_TransitionKindKeepsShownFilters(t *testing.T) {
	f := &fakeFetcher{body: jobPayload}
	c, _ := createTestContainer(t, f)
	require.NoError(t, c.Select(visualizer.JobGraph))
	_, err := c.Visualize(context.Background())
	require.NoError(t, err)
	shownKey := c.Status().CacheKey

	// committed but not yet visualized
	_, err = c.AdjustLine("Game=SHIPWRECKS")
	require.NoError(t, err)
	require.NoError(t, c.Commit())

	m, err := c.SetTransitionKind(graph.Switch)
	require.NoError(t, err)
	g := m.(*graph.JobGraph)
	assert.Equal(t, "AQUALAB", g.Meta.Game, "graph stays labelled with the game its payload came from")
	assert.Equal(t, shownKey, c.Status().CacheKey)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestContainer_InvalidFiltersLeaveViewRunning(t *testing.T) {
	var mu sync.Mutex
	now := testNow
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	f := &fakeFetcher{body: jobPayload}
	log := zaptest.NewLogger(t).Sugar()
	p := layout.DefaultParams()
	p.TickInterval = time.Millisecond
	c := New(cache.New(cache.NewMemoryStore(), log), f, Options{Layout: p, Logger: log, Clock: clock})
	t.Cleanup(c.Close)

	require.NoError(t, c.Select(visualizer.JobGraph))
	_, err := c.AdjustLine("DateRange=2024-03-01..2024-03-05")
	require.NoError(t, err)
	require.NoError(t, c.Commit())
	shown, err := c.Visualize(context.Background())
	require.NoError(t, err)
	runner := c.Layout()
	require.NotNil(t, runner)
	generation := c.Status().Generation

	// the committed end date is now too recent
	mu.Lock()
	now = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)
	mu.Unlock()

	_, err = c.Visualize(context.Background())
	var verr *filter.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.False(t, errors.IsSupersededError(err))

	assert.Same(t, runner, c.Layout(), "layout keeps running")
	assert.Same(t, shown, c.Model())
	assert.Equal(t, generation, c.Status().Generation)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestContainer_PlayersAndOpenTimeline(t *testing.T) {
	c, _ := createTestContainer(t, &fakeFetcher{body: jobPayload})

	_, err := c.Players("Intro", "Outro")
	assert.True(t, errors.IsNotFoundError(err), "no graph shown yet")

	require.NoError(t, c.Select(visualizer.JobGraph))
	_, err = c.Visualize(context.Background())
	require.NoError(t, err)

	list, err := c.Players("Intro", "Outro")
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "p2"}, list.Players)

	assert.True(t, errors.IsInvalidRequestError(c.OpenTimeline("  ")))
	assert.Equal(t, visualizer.JobGraph, c.Status().Visualizer)

	require.NoError(t, c.OpenTimeline("p2"))
	assert.Equal(t, visualizer.PlayerTimeline, c.Status().Visualizer)
	assert.Nil(t, c.Layout())
	committed := c.Committed()
	assert.Equal(t, "p2", committed[visualizer.ItemPlayerID].Selected)
	assert.Equal(t, "AQUALAB", committed[visualizer.ItemGame].Selected)
}
