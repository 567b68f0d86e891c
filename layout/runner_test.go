package layout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/opengamedata/ogdviz/graph"
)

func createTestRunner(t *testing.T) *Runner {
	t.Helper()
	p := DefaultParams()
	p.TickInterval = time.Millisecond
	e := NewEngine(buildGraph(t, introOutro, graph.Completion), p)
	r := NewRunner(e, NewStyle(e.Graph(), p), zaptest.NewLogger(t).Sugar())
	t.Cleanup(r.Stop)
	return r
}

func findNode(s Snapshot, id string) (NodeView, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return NodeView{}, false
}

func TestRunner_SubscribeReceivesFrames(t *testing.T) {
	r := createTestRunner(t)

	frames, unsubscribe := r.Subscribe()
	defer unsubscribe()

	first := <-frames
	assert.Equal(t, "idle", first.State)
	assert.Len(t, first.Nodes, 3)

	r.Start()
	r.Start()

	require.Eventually(t, func() bool {
		select {
		case s := <-frames:
			return s.Tick > 5
		default:
			return false
		}
	}, 2*time.Second, time.Millisecond)
}

func TestRunner_DragThroughEvents(t *testing.T) {
	r := createTestRunner(t)
	r.Start()
	ctx := context.Background()

	require.NoError(t, r.Send(ctx, Event{Type: EventZoom, K: 2}))
	require.NoError(t, r.Send(ctx, Event{Type: EventDragStart, Node: "Intro"}))
	require.NoError(t, r.Send(ctx, Event{Type: EventDragMove, Node: "Intro", X: 100, Y: 100}))

	// screen (100, 100) under a 2x zoom is world (50, 50), drawn back at (100, 100)
	require.Eventually(t, func() bool {
		n, ok := findNode(r.Latest(), "Intro")
		return ok && n.Fixed && n.X == 100 && n.Y == 100
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, 2.0, r.Latest().View.K)

	require.NoError(t, r.Send(ctx, Event{Type: EventDragEnd, Node: "Intro"}))
	require.Eventually(t, func() bool {
		n, _ := findNode(r.Latest(), "Intro")
		return !n.Fixed
	}, 2*time.Second, time.Millisecond)
}

func TestRunner_HighlightAndBadEvents(t *testing.T) {
	r := createTestRunner(t)
	r.Start()
	ctx := context.Background()

	require.NoError(t, r.Send(ctx, Event{Type: "spin"}))
	require.NoError(t, r.Send(ctx, Event{Type: EventZoom, K: -1}))
	require.NoError(t, r.Send(ctx, Event{Type: EventHighlight, Player: "p1"}))

	require.Eventually(t, func() bool {
		s := r.Latest()
		return len(s.Links) == 1 && s.Links[0].Color == LinkColorHighlight
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, 1.0, r.Latest().View.K, "invalid zoom is ignored")
}

func TestRunner_StopClosesSubscriptions(t *testing.T) {
	r := createTestRunner(t)
	r.Start()

	frames, unsubscribe := r.Subscribe()
	r.Stop()
	r.Stop()
	unsubscribe()

	for range frames {
	}

	err := r.Send(context.Background(), Event{Type: EventPan, X: 1})
	assert.Error(t, err)

	late, _ := r.Subscribe()
	_, open := <-late
	assert.False(t, open)
}

func TestRunner_SendHonorsContext(t *testing.T) {
	r := createTestRunner(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// the loop is not running so the queue fills and the caller's context wins
	var err error
	for i := 0; i < 100 && err == nil; i++ {
		err = r.Send(ctx, Event{Type: EventPan})
	}
	assert.ErrorIs(t, err, context.Canceled)
}
