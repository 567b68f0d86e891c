package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opengamedata/ogdviz/graph"
	"github.com/opengamedata/ogdviz/layout"
)

type inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func dialTestServer(t *testing.T, url string, header http.Header) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(url, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads messages until one of type want arrives and match accepts it.
func readUntil(t *testing.T, conn *websocket.Conn, want string, match func(json.RawMessage) bool) json.RawMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		require.NoError(t, conn.SetReadDeadline(deadline))
		var msg inbound
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %s", want)
		if msg.Type == want && (match == nil || match(msg.Data)) {
			return msg.Data
		}
	}
}

func TestWebSocket_GreetsWithVersionAndStatus(t *testing.T) {
	_, ts := createTestServer(t, &stubFetcher{body: jobPayload})
	conn := dialTestServer(t, ts.URL, nil)

	var first inbound
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, MsgVersion, first.Type)

	data := readUntil(t, conn, MsgStatus, nil)
	assert.Contains(t, string(data), `"visualizer":"initial"`)
}

func TestWebSocket_RejectsForeignOrigin(t *testing.T) {
	_, ts := createTestServer(t, &stubFetcher{})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWebSocket_VisualizeStreamsSnapshots(t *testing.T) {
	_, ts := createTestServer(t, &stubFetcher{body: jobPayload})
	conn := dialTestServer(t, ts.URL, http.Header{"Origin": []string{"http://localhost:5173"}})

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: "visualize", Visualizer: "job_graph"}))

	model := readUntil(t, conn, MsgModel, nil)
	assert.Contains(t, string(model), `"Outro"`)

	snap := readUntil(t, conn, MsgSnapshot, nil)
	var frame layout.Snapshot
	require.NoError(t, json.Unmarshal(snap, &frame))
	assert.Len(t, frame.Nodes, 2)

	t.Run("drag pins the node at the pointer", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(ClientMessage{Type: "drag_start", Node: "Intro"}))
		require.NoError(t, conn.WriteJSON(ClientMessage{Type: "drag_move", Node: "Intro", X: 40, Y: -25}))

		readUntil(t, conn, MsgSnapshot, func(data json.RawMessage) bool {
			var f layout.Snapshot
			if json.Unmarshal(data, &f) != nil {
				return false
			}
			for _, n := range f.Nodes {
				if n.ID == "Intro" && n.Fixed && n.X == 40 && n.Y == -25 {
					return true
				}
			}
			return false
		})
	})

	t.Run("players on a link", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(ClientMessage{Type: "players", Node: "Intro", Target: "Outro"}))
		data := readUntil(t, conn, MsgPlayers, nil)

		var list graph.PlayerList
		require.NoError(t, json.Unmarshal(data, &list))
		assert.Equal(t, []string{"p1", "p2"}, list.Players)
	})

	t.Run("bad command answers with an error", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(ClientMessage{Type: "transition", Transition: "sideways"}))
		data := readUntil(t, conn, MsgError, nil)

		var meta map[string]string
		require.NoError(t, json.Unmarshal(data, &meta))
		assert.Equal(t, "validation", meta["category"])
	})
}

func TestWebSocket_StatusBroadcastToOtherClients(t *testing.T) {
	_, ts := createTestServer(t, &stubFetcher{body: jobPayload})
	watcher := dialTestServer(t, ts.URL, nil)
	readUntil(t, watcher, MsgStatus, nil)

	resp := postJSON(t, ts.URL+"/api/select", SelectRequest{Visualizer: "histogram"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	readUntil(t, watcher, MsgStatus, func(data json.RawMessage) bool {
		return strings.Contains(string(data), `"visualizer":"histogram"`)
	})
}
