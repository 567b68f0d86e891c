package server

import (
	"time"

	"github.com/opengamedata/ogdviz/dashboard"
	"github.com/opengamedata/ogdviz/layout"
	"github.com/opengamedata/ogdviz/version"
	"github.com/opengamedata/ogdviz/visualizer"
)

const (
	// MaxClients is the maximum number of concurrent WebSocket clients
	MaxClients = 100

	// ShutdownTimeout bounds how long Stop waits for goroutines
	ShutdownTimeout = 10 * time.Second

	// VisualizeTimeout bounds one visualize call started over the socket
	VisualizeTimeout = 2 * time.Minute
)

// Outbound WebSocket message types.
const (
	MsgVersion  = "version"
	MsgStatus   = "status"
	MsgSnapshot = "snapshot"
	MsgModel    = "model"
	MsgFilters  = "filters"
	MsgPlayers  = "players"
	MsgError    = "error"
)

// ClientMessage is one inbound WebSocket message. Layout events use
// Node/Player/X/Y/K; dashboard commands use the remaining fields. A players
// request names a link with Node and Target, or a node with Node alone.
type ClientMessage struct {
	Type       string  `json:"type"`
	Node       string  `json:"node,omitempty"`
	Target     string  `json:"target,omitempty"`
	Player     string  `json:"player,omitempty"`
	X          float64 `json:"x,omitempty"`
	Y          float64 `json:"y,omitempty"`
	K          float64 `json:"k,omitempty"`
	Visualizer string  `json:"visualizer,omitempty"`
	Filters    string  `json:"filters,omitempty"`
	Transition string  `json:"transition,omitempty"`
}

// Envelope wraps every outbound WebSocket message.
type Envelope struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
}

// VisualizeRequest is the body of POST /api/visualize. Every field is optional:
// Visualizer switches kind first, Filters is applied as assignments before commit.
type VisualizeRequest struct {
	Visualizer string `json:"visualizer,omitempty"`
	Filters    string `json:"filters,omitempty"`
}

// SelectRequest is the body of POST /api/select.
type SelectRequest struct {
	Visualizer string `json:"visualizer"`
}

// AdjustRequest is the body of POST /api/adjust.
type AdjustRequest struct {
	Filters string `json:"filters"`
}

// TransitionRequest is the body of POST /api/transition.
type TransitionRequest struct {
	Kind string `json:"kind"`
}

// TimelineRequest is the body of POST /api/players/timeline.
type TimelineRequest struct {
	Player string `json:"player"`
}

// ModelResponse carries the current model with the status it belongs to.
type ModelResponse struct {
	Status dashboard.Status `json:"status"`
	Model  visualizer.Model `json:"model"`
}

// VisualizerInfo describes one selectable visualization.
type VisualizerInfo struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// FilterItemView is a filter item as a client draws it.
type FilterItemView struct {
	Name    string   `json:"name"`
	Input   string   `json:"input"`
	Mode    string   `json:"mode"`
	Options []string `json:"options,omitempty"`
	Value   string   `json:"value"`
}

// FiltersResponse lists the items of the selected visualization with their pending values.
type FiltersResponse struct {
	Visualizer string           `json:"visualizer"`
	Items      []FilterItemView `json:"items"`
	Error      string           `json:"error,omitempty"`
	ErrorItem  string           `json:"error_item,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string       `json:"status"`
	Version version.Info `json:"version"`
	Clients int          `json:"clients"`
}

// SnapshotResponse is the body of GET /api/snapshot.
type SnapshotResponse struct {
	Snapshot layout.Snapshot `json:"snapshot"`
}
