package request

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opengamedata/ogdviz/errors"
)

func at(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func baseParams() Params {
	return Params{
		Scope:         Population,
		Game:          "AQUALAB",
		MinAppVersion: "*",
		MaxAppVersion: "*",
		StartDate:     at("2024-01-01T00:00:00Z"),
		EndDate:       at("2024-01-31T00:00:00Z"),
		Metrics:       []string{"TopJobCompletionDestinations", "ActiveJobs", "PlayerSummary"},
	}
}

func TestBuild(t *testing.T) {
	d, err := Build(baseParams())
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, d.Method())
	assert.Equal(t, "/populations/metrics", d.Path())
	assert.Equal(t, []string{"ActiveJobs", "PlayerSummary", "TopJobCompletionDestinations"}, d.Metrics())
	assert.Equal(t, "", d.MinAppVersion())
	assert.Equal(t,
		"POPULATION/AQUALAB/*/*/*/*/2024-01-01/2024-01-31/ActiveJobs,PlayerSummary,TopJobCompletionDestinations",
		d.CacheKey())
}

func TestCacheKey_Deterministic(t *testing.T) {
	a, err := Build(baseParams())
	require.NoError(t, err)

	p := baseParams()
	p.Metrics = []string{"PlayerSummary", "ActiveJobs", "TopJobCompletionDestinations", "ActiveJobs"}
	p.StartDate = at("2024-01-01T17:45:12Z")
	p.EndDate = at("2024-01-31T23:59:59Z")
	p.MinAppVersion = ""
	b, err := Build(p)
	require.NoError(t, err)

	assert.Equal(t, a.CacheKey(), b.CacheKey())
	assert.True(t, a.Equal(b))

	again, err := Build(baseParams())
	require.NoError(t, err)
	assert.Equal(t, a.CacheKey(), again.CacheKey())
}

func TestCacheKey_DistinguishesFields(t *testing.T) {
	base, err := Build(baseParams())
	require.NoError(t, err)

	mutations := map[string]func(*Params){
		"game":        func(p *Params) { p.Game = "SHIPWRECKS" },
		"scope":       func(p *Params) { p.Scope = Player },
		"min app":     func(p *Params) { p.MinAppVersion = "1.0" },
		"max log":     func(p *Params) { p.MaxLogVersion = "5" },
		"start":       func(p *Params) { p.StartDate = at("2023-12-31T00:00:00Z") },
		"no end":      func(p *Params) { p.EndDate = nil },
		"metrics":     func(p *Params) { p.Metrics = []string{"ActiveJobs"} },
		"player":      func(p *Params) { p.PlayerID = "p1" },
		"slash value": func(p *Params) { p.MinAppVersion = "1/2" },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			p := baseParams()
			mutate(&p)
			d, err := Build(p)
			require.NoError(t, err)
			assert.NotEqual(t, base.CacheKey(), d.CacheKey())
		})
	}
}

func TestCacheKey_EscapesSeparators(t *testing.T) {
	p := baseParams()
	p.MinAppVersion = "1/2"
	d, err := Build(p)
	require.NoError(t, err)
	assert.Contains(t, d.CacheKey(), "/1%2F2/")
}

func TestBuild_Errors(t *testing.T) {
	tests := map[string]func(*Params){
		"no game":        func(p *Params) { p.Game = "" },
		"bad scope":      func(p *Params) { p.Scope = "GALAXY" },
		"no metrics":     func(p *Params) { p.Metrics = []string{" ", ""} },
		"start past end": func(p *Params) { p.StartDate = at("2024-02-01T00:00:00Z") },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			p := baseParams()
			mutate(&p)
			_, err := Build(p)
			require.Error(t, err)
			assert.True(t, errors.IsInvalidRequestError(err))
		})
	}
}

func TestDescriptor_Immutable(t *testing.T) {
	p := baseParams()
	d, err := Build(p)
	require.NoError(t, err)

	p.Metrics[0] = "Changed"
	*p.StartDate = time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)
	metrics := d.Metrics()
	metrics[0] = "Changed"

	start, ok := d.StartDate()
	require.True(t, ok)
	assert.Equal(t, 2024, start.Year())
	assert.Equal(t, "ActiveJobs", d.Metrics()[0])
}

func TestBody(t *testing.T) {
	p := baseParams()
	p.MinLogVersion = "3"
	d, err := Build(p)
	require.NoError(t, err)

	body := d.Body()
	assert.Equal(t, "AQUALAB", body["game_id"])
	assert.Equal(t, "2024-01-01T00:00", body["start_datetime"])
	assert.Equal(t, "2024-01-31T23:59", body["end_datetime"])
	assert.Equal(t, "3", body["log_version_min"])
	assert.NotContains(t, body, "app_version_min")
	assert.NotContains(t, body, "player_id")
	assert.Equal(t, d.Metrics(), body["metrics"])
}

func TestFeatureList(t *testing.T) {
	d, err := FeatureList(Player, "AQUALAB")
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, d.Method())
	assert.Equal(t, "/players/metrics/list/AQUALAB", d.Path())
	assert.Equal(t, "PLAYER/AQUALAB/FeatureList", d.CacheKey())
	assert.True(t, d.IsFeatureList())
	assert.Nil(t, d.Body())

	_, err = FeatureList(Session, "")
	assert.Error(t, err)
}

func TestParseScope(t *testing.T) {
	for in, want := range map[string]Scope{"population": Population, "Players": Player, "SESSION": Session} {
		got, err := ParseScope(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseScope("galaxy")
	assert.Error(t, err)
}
