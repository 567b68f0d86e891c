package layout

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/opengamedata/ogdviz/errors"
	"github.com/opengamedata/ogdviz/logger"
)

// EventType names an inbound interaction from the draw surface.
type EventType string

const (
	EventDragStart EventType = "drag_start"
	EventDragMove  EventType = "drag_move"
	EventDragEnd   EventType = "drag_end"
	EventZoom      EventType = "zoom"      // set the view to (K, X, Y)
	EventPan       EventType = "pan"       // translate the view by (X, Y)
	EventHighlight EventType = "highlight" // highlight links carrying Player
)

// Event is one interaction. Drag coordinates are screen coordinates.
type Event struct {
	Type   EventType `json:"type"`
	Node   string    `json:"node,omitempty"`
	Player string    `json:"player,omitempty"`
	X      float64   `json:"x,omitempty"`
	Y      float64   `json:"y,omitempty"`
	K      float64   `json:"k,omitempty"`
}

// Runner drives an Engine on one goroutine at a fixed tick interval.
// Ticks, events and snapshots are serialized through that goroutine.
type Runner struct {
	engine   *Engine
	style    Style
	view     View
	interval time.Duration

	events chan Event
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *zap.SugaredLogger

	mu      sync.Mutex
	latest  Snapshot
	subs    map[int]chan Snapshot
	nextSub int
	started bool
	stopped bool
}

// NewRunner prepares a runner for engine. Nothing runs until Start.
func NewRunner(engine *Engine, style Style, log *zap.SugaredLogger) *Runner {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	interval := engine.Params().TickInterval
	if interval <= 0 {
		interval = DefaultParams().TickInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	r := &Runner{
		engine:   engine,
		style:    style,
		view:     IdentityView(),
		interval: interval,
		events:   make(chan Event, 64),
		ctx:      ctx,
		cancel:   cancel,
		logger:   log.Named("layout.runner"),
		subs:     map[int]chan Snapshot{},
	}
	r.latest = engine.Snapshot(style, r.view)
	return r
}

// Start begins ticking. Calling it again has no effect.
func (r *Runner) Start() {
	r.mu.Lock()
	if r.started || r.stopped {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run()
	r.logger.Infow("Layout started",
		logger.FieldNodeCount, len(r.engine.Graph().Nodes),
		logger.FieldLinkCount, len(r.engine.Graph().Links),
		"interval", r.interval)
}

// Stop tears down the loop and closes every subscription. Safe to call more than once.
func (r *Runner) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()

	r.cancel()
	r.wg.Wait()

	r.mu.Lock()
	for id, ch := range r.subs {
		close(ch)
		delete(r.subs, id)
	}
	r.mu.Unlock()
	r.logger.Infow("Layout stopped", logger.FieldTick, r.engine.Ticks())
}

// Send queues ev for the loop.
func (r *Runner) Send(ctx context.Context, ev Event) error {
	select {
	case r.events <- ev:
		return nil
	case <-r.ctx.Done():
		return errors.New("layout runner stopped")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns a channel that receives the latest snapshot after every
// tick or event. A slow reader skips frames. The returned func unsubscribes.
func (r *Runner) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := r.nextSub
	r.nextSub++
	r.subs[id] = ch
	ch <- r.latest
	r.mu.Unlock()

	return ch, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if c, ok := r.subs[id]; ok {
			close(c)
			delete(r.subs, id)
		}
	}
}

// Latest returns the most recent snapshot.
func (r *Runner) Latest() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.latest
}

func (r *Runner) run() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.engine.Start()
	for {
		select {
		case <-r.ctx.Done():
			r.engine.Stop()
			return
		case ev := <-r.events:
			if err := r.apply(ev); err != nil {
				r.logger.Debugw("Ignoring layout event", "event", ev.Type, logger.FieldError, err)
				continue
			}
			r.publish()
		case <-ticker.C:
			if r.engine.State() != Running {
				continue
			}
			if !r.engine.Tick() {
				r.logger.Debugw("Layout converged",
					logger.FieldTick, r.engine.Ticks(),
					logger.FieldAlpha, r.engine.Alpha())
			}
			r.publish()
		}
	}
}

func (r *Runner) apply(ev Event) error {
	switch ev.Type {
	case EventDragStart:
		return r.engine.DragStart(ev.Node)
	case EventDragMove:
		x, y := r.view.Invert(ev.X, ev.Y)
		return r.engine.DragMove(ev.Node, x, y)
	case EventDragEnd:
		return r.engine.DragEnd(ev.Node)
	case EventZoom:
		v := View{K: ev.K, X: ev.X, Y: ev.Y}
		if err := v.Validate(); err != nil {
			return err
		}
		r.view = v
	case EventPan:
		r.view = r.view.Translate(ev.X, ev.Y)
	case EventHighlight:
		r.style.Highlight = ev.Player
	default:
		return errors.NewInvalidRequestError("unknown layout event %q", ev.Type)
	}
	return nil
}

func (r *Runner) publish() {
	snap := r.engine.Snapshot(r.style, r.view)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.latest = snap
	for _, ch := range r.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
