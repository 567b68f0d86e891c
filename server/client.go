package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/opengamedata/ogdviz/errors"
	"github.com/opengamedata/ogdviz/graph"
	grapherr "github.com/opengamedata/ogdviz/graph/error"
	"github.com/opengamedata/ogdviz/layout"
	"github.com/opengamedata/ogdviz/logger"
	"github.com/opengamedata/ogdviz/visualizer"
)

// WebSocket timeouts follow the gorilla chat example.
const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = 54 * time.Second

	// Inbound messages are small layout events and commands
	maxMessageSize = 64 * 1024

	sendBuffer = 64
)

// Client is one WebSocket connection. It receives snapshots of whatever
// layout the container is running and forwards its events to it.
type Client struct {
	server    *Server
	conn      *websocket.Conn
	send      chan Envelope
	relayout  chan struct{}
	done      chan struct{}
	id        string
	closeOnce sync.Once
}

func newClient(s *Server, conn *websocket.Conn, id string) *Client {
	return &Client{
		server:   s,
		conn:     conn,
		send:     make(chan Envelope, sendBuffer),
		relayout: make(chan struct{}, 1),
		done:     make(chan struct{}),
		id:       id,
	}
}

// close is safe to call from both pumps and from Server.Stop.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// queue sends msg to the write pump, dropping it when the buffer is full.
func (c *Client) queue(msg Envelope) {
	select {
	case c.send <- msg:
	case <-c.done:
	default:
		c.server.logger.Warnw("Client send buffer full, dropping message",
			"client_id", c.id,
			"type", msg.Type)
	}
}

// relayoutNow asks the write pump to resubscribe to the container's layout.
func (c *Client) relayoutNow() {
	select {
	case c.relayout <- struct{}{}:
	default:
	}
}

// readPump handles reading messages from the WebSocket connection
func (c *Client) readPump() {
	defer c.server.unregister(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	c.server.logger.Debugw("Read pump started", "client_id", c.id)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.handleReadError(err)
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.server.logger.Warnw("JSON unmarshal error",
				logger.FieldError, err.Error(),
				"client_id", c.id)
			c.queue(errorEnvelope(errors.Mark(err, errors.ErrInvalidRequest)))
			continue
		}
		c.routeMessage(&msg)
	}
}

// handleReadError logs unexpected read errors. Normal closures are silent.
func (c *Client) handleReadError(err error) {
	if websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseNoStatusReceived,
	) {
		graphErr := grapherr.New(
			grapherr.CategoryWebSocket,
			err,
			"WebSocket connection closed unexpectedly",
		).WithSubcategory(grapherr.SubcategoryWSRead)

		c.server.logger.Warnw("WebSocket read error", graphErr.ToLogFields()...)
	}
}

// routeMessage dispatches one inbound message. Layout events go to the
// running layout; everything else drives the container.
func (c *Client) routeMessage(msg *ClientMessage) {
	switch layout.EventType(msg.Type) {
	case layout.EventDragStart, layout.EventDragMove, layout.EventDragEnd,
		layout.EventZoom, layout.EventPan, layout.EventHighlight:
		c.handleLayoutEvent(msg)
		return
	}

	switch msg.Type {
	case "select":
		c.reply(c.server.selectVisualizer(msg.Visualizer), func() Envelope {
			return Envelope{Type: MsgFilters, Data: c.server.filtersView()}
		})
	case "adjust":
		c.reply(c.server.adjust(msg.Filters), func() Envelope {
			return Envelope{Type: MsgFilters, Data: c.server.filtersView()}
		})
	case "commit":
		c.reply(c.server.dash.Commit(), func() Envelope {
			return Envelope{Type: MsgStatus, Data: c.server.dash.Status()}
		})
	case "visualize":
		req := VisualizeRequest{Visualizer: msg.Visualizer, Filters: msg.Filters}
		c.handleVisualize(func(ctx context.Context) (visualizer.Model, error) {
			return c.server.visualize(ctx, req)
		})
	case "players":
		list, err := c.server.dash.Players(msg.Node, msg.Target)
		c.reply(err, func() Envelope {
			return Envelope{Type: MsgPlayers, Data: list}
		})
	case "open_timeline":
		player := msg.Player
		c.handleVisualize(func(ctx context.Context) (visualizer.Model, error) {
			return c.server.openTimeline(ctx, player)
		})
	case "transition":
		c.handleTransition(msg.Transition)
	case "clear_cache":
		ctx, cancel := context.WithTimeout(c.server.ctx, writeWait)
		defer cancel()
		c.reply(c.server.dash.ClearCache(ctx), func() Envelope {
			return Envelope{Type: MsgStatus, Data: c.server.dash.Status()}
		})
	case "ping":
	default:
		c.server.logger.Debugw("Unknown message type",
			"type", msg.Type,
			"client_id", c.id)
	}
}

// reply queues an error envelope for err, or the envelope built by ok.
func (c *Client) reply(err error, ok func() Envelope) {
	if err != nil {
		c.queue(errorEnvelope(err))
		return
	}
	c.queue(ok())
}

func (c *Client) handleLayoutEvent(msg *ClientMessage) {
	runner := c.server.dash.Layout()
	if runner == nil {
		return
	}
	ev := layout.Event{
		Type:   layout.EventType(msg.Type),
		Node:   msg.Node,
		Player: msg.Player,
		X:      msg.X,
		Y:      msg.Y,
		K:      msg.K,
	}
	ctx, cancel := context.WithTimeout(c.server.ctx, writeWait)
	defer cancel()
	if err := runner.Send(ctx, ev); err != nil {
		c.server.logger.Debugw("Layout event not delivered",
			"client_id", c.id,
			"type", msg.Type,
			logger.FieldError, err)
	}
}

// handleVisualize runs run off the read pump so layout events keep flowing
// while the fetch is in flight. Every client gets the new status; the
// caller also gets the model or the error.
func (c *Client) handleVisualize(run func(ctx context.Context) (visualizer.Model, error)) {
	c.server.wg.Add(1)
	go func() {
		defer c.server.wg.Done()
		ctx, cancel := context.WithTimeout(c.server.ctx, VisualizeTimeout)
		defer cancel()
		ctx = logger.WithRequestID(ctx, c.id)

		model, err := run(ctx)
		if err != nil {
			if errors.IsSupersededError(err) {
				return
			}
			c.queue(errorEnvelope(err))
			return
		}
		c.queue(Envelope{Type: MsgModel, Data: ModelResponse{Status: c.server.dash.Status(), Model: model}})
	}()
}

func (c *Client) handleTransition(name string) {
	kind, err := graph.ParseTransitionKind(name)
	if err != nil {
		c.queue(errorEnvelope(err))
		return
	}
	model, err := c.server.dash.SetTransitionKind(kind)
	if err != nil {
		c.queue(errorEnvelope(err))
		return
	}
	c.server.stateChanged()
	c.queue(Envelope{Type: MsgModel, Data: ModelResponse{Status: c.server.dash.Status(), Model: model}})
}

// writePump writes queued messages and layout snapshots to the connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	var (
		snaps       <-chan layout.Snapshot
		unsubscribe = func() {}
		current     *layout.Runner
	)
	defer func() {
		ticker.Stop()
		unsubscribe()
		c.close()
	}()

	resubscribe := func() {
		runner := c.server.dash.Layout()
		if runner == current && snaps != nil {
			return
		}
		unsubscribe()
		current = runner
		snaps, unsubscribe = nil, func() {}
		if runner != nil {
			snaps, unsubscribe = runner.Subscribe()
		}
	}
	resubscribe()

	c.server.logger.Debugw("Write pump started", "client_id", c.id)

	for {
		select {
		case <-c.server.ctx.Done():
			return
		case <-c.done:
			return

		case <-c.relayout:
			resubscribe()

		case snap, ok := <-snaps:
			if !ok {
				snaps = nil
				continue
			}
			if err := c.write(Envelope{Type: MsgSnapshot, Data: snap}); err != nil {
				return
			}

		case msg := <-c.send:
			if err := c.write(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) write(msg Envelope) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(msg); err != nil {
		graphErr := grapherr.New(
			grapherr.CategoryWebSocket,
			err,
			"Failed to send message to client",
		).WithSubcategory(grapherr.SubcategoryWSWrite)

		c.server.logger.Debugw("WebSocket write error",
			append(graphErr.ToLogFields(), "client_id", c.id, "type", msg.Type)...)
		return err
	}
	return nil
}
