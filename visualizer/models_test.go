package visualizer

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opengamedata/ogdviz/errors"
	"github.com/opengamedata/ogdviz/payload"
)

func TestNewHistogram(t *testing.T) {
	t.Run("ten equal bins", func(t *testing.T) {
		raw := payload.Raw(`[
			{"PlayerID": "a", "Jobs": 0},
			{"PlayerID": "b", "Jobs": 5},
			{"PlayerID": "c", "Jobs": 9.5},
			{"PlayerID": "d", "Jobs": 10},
			{"PlayerID": "e"},
			"not a record"
		]`)
		h, err := NewHistogram("AQUALAB", raw, "Jobs", DefaultBins)
		require.NoError(t, err)

		require.Len(t, h.Bins, 10)
		assert.Equal(t, 4, h.Count)
		assert.Equal(t, 2, h.Skipped)
		assert.Equal(t, 0.0, h.Min)
		assert.Equal(t, 10.0, h.Max)
		assert.InDelta(t, 6.125, h.Mean, 1e-9)

		assert.Equal(t, Bin{Lower: 0, Upper: 1, Count: 1}, h.Bins[0])
		assert.Equal(t, 1, h.Bins[5].Count)
		assert.Equal(t, 2, h.Bins[9].Count, "the maximum lands in the last bin")
		assert.Equal(t, 10.0, h.Bins[9].Upper)
	})

	t.Run("single value", func(t *testing.T) {
		h, err := NewHistogram("AQUALAB", payload.Raw(`{"a": {"Jobs": 3}, "b": {"Jobs": 3}}`), "Jobs", 0)
		require.NoError(t, err)
		assert.Equal(t, []Bin{{Lower: 3, Upper: 3, Count: 2}}, h.Bins)
	})

	t.Run("empty", func(t *testing.T) {
		h, err := NewHistogram("AQUALAB", nil, "Jobs", DefaultBins)
		require.NoError(t, err)
		assert.True(t, h.IsEmpty())
		assert.Empty(t, h.Bins)
	})

	t.Run("scalar payload", func(t *testing.T) {
		_, err := NewHistogram("AQUALAB", payload.Raw(`42`), "Jobs", DefaultBins)
		assert.True(t, errors.Is(err, errors.ErrMalformedPayload))
	})
}

func TestNewScatterplot(t *testing.T) {
	raw := payload.Raw(`{
		"z": {"x": 1, "y": 10},
		"a": {"x": -2, "y": 4},
		"m": {"x": 3}
	}`)
	s, err := NewScatterplot("AQUALAB", raw, "x", "y")
	require.NoError(t, err)

	assert.Equal(t, []Point{{ID: "a", X: -2, Y: 4}, {ID: "z", X: 1, Y: 10}}, s.Points)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, -2.0, s.MinX)
	assert.Equal(t, 1.0, s.MaxX)
	assert.Equal(t, 4.0, s.MinY)
	assert.Equal(t, 10.0, s.MaxY)
}

const timelineEvents = `[
	{"user_id": "BlueWhale42", "session_id": "s1", "job_name": "kelp-welcome", "name": "accept_job", "timestamp": "2024-01-05T10:00:00Z"},
	{"user_id": "BlueWhale42", "session_id": "s1", "job_name": "kelp-welcome", "name": "scan_object", "timestamp": "2024-01-05T10:00:30Z", "object": "kelp"},
	{"user_id": "BlueWhale42", "session_id": "s2", "job_name": "kelp-welcome", "name": "scan_object", "timestamp": "2024-01-05T10:00:40Z"},
	{"user_id": "BlueWhale42", "session_id": "s2", "job_name": "kelp-welcome", "name": "complete_job", "timestamp": "2024-01-05T10:02:00Z"}
]`

func TestNewTimeline(t *testing.T) {
	tm, err := NewTimeline(payload.Raw(timelineEvents))
	require.NoError(t, err)
	require.Len(t, tm.Events, 4)

	assert.Equal(t, "BlueWhale42", tm.Meta.PlayerID)
	assert.Equal(t, 2, tm.Meta.SessionCount, "counted from session ids")
	assert.Equal(t, []string{"accept_job", "scan_object", "complete_job"}, tm.Meta.Types)
	assert.Equal(t, int64(10), tm.Meta.MinDuration)
	assert.Equal(t, int64(120), tm.Meta.TotalTime)
	assert.Equal(t, time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC), tm.Meta.Start)
	assert.Equal(t, time.Date(2024, 1, 5, 10, 2, 0, 0, time.UTC), tm.Meta.End)

	var timestamps, durations []int64
	for _, ev := range tm.Events {
		timestamps = append(timestamps, ev.Timestamp)
		durations = append(durations, ev.Duration)
	}
	assert.Equal(t, []int64{0, 30, 40, 120}, timestamps)
	assert.Equal(t, []int64{30, 10, 80, 0}, durations)

	second := tm.Events[1]
	assert.Equal(t, "kelp-welcome", second.Name)
	assert.Equal(t, "scan_object", second.Type)
	assert.Equal(t, []string{"object: kelp", "session_id: s1"}, second.Extra)
}

func TestNewTimeline_Shapes(t *testing.T) {
	t.Run("legacy list with encoded events", func(t *testing.T) {
		raw := payload.Raw(`[` + strconv.Quote(timelineEvents) + `, 7]`)
		tm, err := NewTimeline(raw)
		require.NoError(t, err)
		assert.Len(t, tm.Events, 4)
		assert.Equal(t, 7, tm.Meta.SessionCount)
	})

	t.Run("object", func(t *testing.T) {
		tm, err := NewTimeline(payload.Raw(`{"events": ` + timelineEvents + `, "session_count": 3}`))
		require.NoError(t, err)
		assert.Equal(t, 3, tm.Meta.SessionCount)
	})

	t.Run("empty", func(t *testing.T) {
		for _, raw := range []string{``, `null`, `[]`, `{"events": []}`} {
			tm, err := NewTimeline(payload.Raw(raw))
			require.NoError(t, err, raw)
			assert.True(t, tm.IsEmpty(), raw)
		}
	})

	t.Run("bad timestamp", func(t *testing.T) {
		_, err := NewTimeline(payload.Raw(`[{"name": "x", "timestamp": "yesterday"}]`))
		assert.True(t, errors.Is(err, errors.ErrMalformedPayload))
	})
}

func TestTimeline_FilterTypes(t *testing.T) {
	tm, err := NewTimeline(payload.Raw(timelineEvents))
	require.NoError(t, err)

	scans := tm.FilterTypes("scan_object", "complete_job")
	require.Len(t, scans.Events, 3)
	assert.Equal(t, int64(30), scans.Events[0].Timestamp, "timestamps stay relative to the first event")
	assert.Equal(t, []int64{10, 80, 0}, []int64{scans.Events[0].Duration, scans.Events[1].Duration, scans.Events[2].Duration})
	assert.Equal(t, int64(10), scans.Meta.MinDuration)
	assert.Equal(t, tm.Meta.Types, scans.Meta.Types, "every type stays selectable")

	assert.Len(t, tm.Events, 4, "the source is unchanged")
	assert.Equal(t, int64(30), tm.Events[0].Duration)

	assert.Len(t, tm.FilterTypes().Events, 4)
	assert.Empty(t, tm.FilterTypes("unknown").Events)
}
