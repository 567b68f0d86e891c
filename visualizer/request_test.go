package visualizer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/opengamedata/ogdviz/catalog"
	"github.com/opengamedata/ogdviz/errors"
	"github.com/opengamedata/ogdviz/filter"
	"github.com/opengamedata/ogdviz/graph"
	"github.com/opengamedata/ogdviz/payload"
	"github.com/opengamedata/ogdviz/request"
)

var testNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func createTestRequest(t *testing.T, kind Kind) *Request {
	t.Helper()
	r, err := New(kind, catalog.Default(), zaptest.NewLogger(t).Sugar(),
		WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	return r
}

func day(s string) filter.Bound {
	t, err := time.Parse(filter.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return filter.DateBound(t)
}

func TestNew_FreshFilterModels(t *testing.T) {
	a := createTestRequest(t, JobGraph)
	b := createTestRequest(t, JobGraph)
	assert.NotSame(t, a.FilterModel(), b.FilterModel())

	names := func(m *filter.Model) []string {
		var out []string
		for _, item := range m.Items() {
			out = append(out, item.Name)
		}
		return out
	}
	assert.Equal(t, []string{ItemGame}, names(createTestRequest(t, Initial).FilterModel()))
	assert.Equal(t,
		[]string{ItemGame, ItemDateRange, ItemAppVersionRange, ItemLogVersionRange, ItemMinimumJobs},
		names(a.FilterModel()))
	assert.Equal(t,
		[]string{ItemGame, ItemDateRange, ItemScope, ItemMetric, ItemAppVersionRange, ItemLogVersionRange, ItemSeparator},
		names(createTestRequest(t, Histogram).FilterModel()))
	assert.Equal(t,
		[]string{ItemGame, ItemPlayerID, ItemAppVersionRange, ItemLogVersionRange},
		names(createTestRequest(t, PlayerTimeline).FilterModel()))

	_, err := New(Kind(42), nil, nil)
	assert.Error(t, err)
}

func TestDescriptor_Initial(t *testing.T) {
	r := createTestRequest(t, Initial)
	d, err := r.Descriptor(r.FilterModel().InitialState())
	assert.NoError(t, err)
	assert.Nil(t, d)
}

func TestDescriptor_JobGraph(t *testing.T) {
	r := createTestRequest(t, JobGraph)
	state := filter.Merge(r.FilterModel().InitialState(), filter.State{
		ItemAppVersionRange: {Min: filter.TextBound("1.0"), Max: filter.TextBound("*")},
	})

	d, err := r.Descriptor(state)
	require.NoError(t, err)
	require.NotNil(t, d)

	assert.Equal(t, request.Population, d.Scope())
	assert.Equal(t, "AQUALAB", d.Game())
	assert.Equal(t, "1.0", d.MinAppVersion())
	assert.Empty(t, d.MaxAppVersion())
	start, ok := d.StartDate()
	require.True(t, ok)
	assert.Equal(t, "2024-03-08", start.Format(filter.DateLayout))
	assert.Equal(t, []string{
		"ActiveJobs",
		"JobsAttempted-avg-time-per-attempt",
		"JobsAttempted-job-difficulties",
		"JobsAttempted-job-name",
		"PlayerSummary",
		"PopulationSummary",
		"TopJobCompletionDestinations",
		"TopJobSwitchDestinations",
	}, d.Metrics())
	assert.Equal(t,
		"POPULATION/AQUALAB/1.0/*/*/*/2024-03-08/2024-03-08/ActiveJobs,JobsAttempted-avg-time-per-attempt,JobsAttempted-job-difficulties,JobsAttempted-job-name,PlayerSummary,PopulationSummary,TopJobCompletionDestinations,TopJobSwitchDestinations",
		d.CacheKey())
}

func TestDescriptor_ValidationBlocksRequest(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		patch   filter.State
		item    string
		message string
	}{
		{
			name:    "start after end",
			kind:    JobGraph,
			patch:   filter.State{ItemDateRange: {Min: day("2024-01-31"), Max: day("2024-01-01")}},
			item:    ItemDateRange,
			message: filter.MsgStartAfterEnd,
		},
		{
			name:    "end too recent",
			kind:    JobGraph,
			patch:   filter.State{ItemDateRange: {Min: day("2024-03-01"), Max: day("2024-03-10")}},
			item:    ItemDateRange,
			message: filter.MsgEndTooRecent,
		},
		{
			name:    "unknown game",
			kind:    Histogram,
			patch:   filter.State{ItemGame: {Selected: "PONG"}},
			item:    ItemGame,
			message: `"PONG" is not an available game`,
		},
		{
			name:    "version order",
			kind:    Scatterplot,
			patch:   filter.State{ItemLogVersionRange: {Min: filter.TextBound("3"), Max: filter.TextBound("2")}},
			item:    ItemLogVersionRange,
			message: "The minimum Log version must be less than the maximum!",
		},
		{
			name:    "metric not offered by game",
			kind:    Histogram,
			patch:   filter.State{ItemGame: {Selected: "SHIPWRECKS"}, ItemMetric: {Selected: "SwitchJobsCount"}},
			item:    ItemMetric,
			message: `"SwitchJobsCount" is not an available metric for SHIPWRECKS`,
		},
		{
			name:    "timeline needs a player",
			kind:    PlayerTimeline,
			patch:   filter.State{},
			item:    ItemPlayerID,
			message: "Player ID is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := createTestRequest(t, tt.kind)
			d, err := r.Descriptor(filter.Merge(r.FilterModel().InitialState(), tt.patch))
			require.Error(t, err)
			assert.Nil(t, d)
			assert.True(t, errors.IsInvalidRequestError(err))

			var verr *filter.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.item, verr.Item)
			assert.Equal(t, tt.message, verr.Message)
		})
	}
}

func TestDescriptor_ScopesAndPlayer(t *testing.T) {
	h := createTestRequest(t, Histogram)
	d, err := h.Descriptor(filter.Merge(h.FilterModel().InitialState(), filter.State{
		ItemScope: {Selected: ScopePlayer},
	}))
	require.NoError(t, err)
	assert.Equal(t, request.Player, d.Scope())
	assert.Equal(t, "/players/metrics", d.Path())

	s := createTestRequest(t, Scatterplot)
	d, err = s.Descriptor(s.FilterModel().InitialState())
	require.NoError(t, err)
	assert.Equal(t, request.Session, d.Scope())

	p := createTestRequest(t, PlayerTimeline)
	d, err = p.Descriptor(filter.Merge(p.FilterModel().InitialState(), filter.State{
		ItemPlayerID: {Selected: "BlueWhale42"},
	}))
	require.NoError(t, err)
	assert.Equal(t, request.Player, d.Scope())
	assert.Equal(t, "BlueWhale42", d.PlayerID())
	_, hasStart := d.StartDate()
	assert.False(t, hasStart)
}

const jobPayload = `{
	"Intro": {"JobsAttempted-avg-time-per-attempt": 10,
		"TopJobCompletionDestinations": {"Intro": [["Outro", ["p1", "p2"]]]},
		"TopJobSwitchDestinations": {"Intro": [["Kelp", ["p3"]]]}},
	"Outro": {"JobsAttempted-avg-time-per-attempt": 30},
	"Kelp": {}
}`

func TestBuildModel_Memoized(t *testing.T) {
	r := createTestRequest(t, JobGraph)
	state := r.FilterModel().InitialState()

	first, err := r.BuildModel(state, payload.Raw(jobPayload))
	require.NoError(t, err)
	g, ok := first.(*graph.JobGraph)
	require.True(t, ok)
	require.Len(t, g.Links, 1)
	assert.Equal(t, "Outro", g.Links[0].Target)

	// same value, different bytes
	reformatted := `{"Kelp":{},"Outro":{"JobsAttempted-avg-time-per-attempt":30},
		"Intro":{"TopJobSwitchDestinations":{"Intro":[["Kelp",["p3"]]]},
		"TopJobCompletionDestinations":{"Intro":[["Outro",["p1","p2"]]]},
		"JobsAttempted-avg-time-per-attempt":10}}`
	again, err := r.BuildModel(state, payload.Raw(reformatted))
	require.NoError(t, err)
	assert.Same(t, g, again)

	r.SetTransitionKind(graph.Switch)
	switched, err := r.BuildModel(state, payload.Raw(jobPayload))
	require.NoError(t, err)
	sg := switched.(*graph.JobGraph)
	assert.NotSame(t, g, sg)
	require.Len(t, sg.Links, 1)
	assert.Equal(t, "Kelp", sg.Links[0].Target)

	changed, err := r.BuildModel(state, payload.Raw(`{"Intro": {}}`))
	require.NoError(t, err)
	assert.NotSame(t, sg, changed)
}

func TestBuildModel_ErrorIsNotMemoized(t *testing.T) {
	r := createTestRequest(t, JobGraph)
	state := r.FilterModel().InitialState()

	_, err := r.BuildModel(state, payload.Raw(`[1, 2]`))
	require.Error(t, err)

	m, err := r.BuildModel(state, payload.Raw(`{}`))
	require.NoError(t, err)
	assert.True(t, m.IsEmpty())
}

func TestBuildModel_PerKind(t *testing.T) {
	rows := payload.Raw(`{
		"s1": {"SessionJobsCompleted": 2, "SwitchJobsCount": 1},
		"s2": {"SessionJobsCompleted": 4, "SwitchJobsCount": "3"},
		"s3": {"SessionJobsCompleted": null}
	}`)

	h := createTestRequest(t, Histogram)
	m, err := h.BuildModel(h.FilterModel().InitialState(), rows)
	require.NoError(t, err)
	hist := m.(*HistogramModel)
	assert.Equal(t, "SessionJobsCompleted", hist.Metric)
	assert.Equal(t, 2, hist.Count)
	assert.Equal(t, 1, hist.Skipped)

	// a different metric over the same payload is a different model
	other, err := h.BuildModel(filter.Merge(h.FilterModel().InitialState(), filter.State{
		ItemMetric: {Selected: "SwitchJobsCount"},
	}), rows)
	require.NoError(t, err)
	assert.NotSame(t, hist, other)

	s := createTestRequest(t, Scatterplot)
	m, err = s.BuildModel(s.FilterModel().InitialState(), rows)
	require.NoError(t, err)
	sp := m.(*ScatterplotModel)
	assert.Equal(t, []Point{{ID: "s1", X: 2, Y: 1}, {ID: "s2", X: 4, Y: 3}}, sp.Points)

	i := createTestRequest(t, Initial)
	m, err = i.BuildModel(i.FilterModel().InitialState(), nil)
	require.NoError(t, err)
	assert.Equal(t, InitialModel{Game: "AQUALAB"}, m)

	p := createTestRequest(t, PlayerTimeline)
	m, err = p.BuildModel(p.FilterModel().InitialState(), nil)
	require.NoError(t, err)
	assert.True(t, m.IsEmpty())
}
