// Package layout positions job graph nodes with a force simulation and
// produces render snapshots of the result.
//
// An Engine is not safe for concurrent use. A Runner owns one on a single
// goroutine and serializes ticks with drag and view events.
package layout

import (
	"math"
	"math/rand/v2"

	"github.com/opengamedata/ogdviz/errors"
	"github.com/opengamedata/ogdviz/graph"
)

// State is the engine lifecycle: Idle -> Running -> Stopped, and back to
// Running when a drag restarts a stopped engine.
type State int

const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

const (
	initialRadius = 10
	distanceMin2  = 1
)

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// simNode is one arena slot. Fixed is set while the node is dragged.
type simNode struct {
	x, y   float64
	vx, vy float64
	fx, fy float64
	fixed  bool
}

type simLink struct {
	source, target int
	strength       float64
	bias           float64
}

// Engine runs the force simulation for one graph.
type Engine struct {
	graph  *graph.JobGraph
	params Params

	nodes []simNode
	links []simLink
	index map[string]int

	alpha       float64
	alphaTarget float64
	state       State
	ticks       int
	dragging    int

	rng *rand.Rand
}

// NewEngine seeds node positions on a phyllotaxis spiral. The graph must not
// change while the engine uses it.
func NewEngine(g *graph.JobGraph, p Params) *Engine {
	if g == nil {
		g = &graph.JobGraph{}
	}
	e := &Engine{
		graph:  g,
		params: p,
		nodes:  make([]simNode, len(g.Nodes)),
		index:  make(map[string]int, len(g.Nodes)),
		alpha:  1,
		rng:    rand.New(rand.NewPCG(1, uint64(len(g.Nodes)))),
	}
	for i, n := range g.Nodes {
		e.index[n.ID] = i
		radius := initialRadius * math.Sqrt(0.5+float64(i))
		angle := float64(i) * initialAngle
		e.nodes[i].x = radius * math.Cos(angle)
		e.nodes[i].y = radius * math.Sin(angle)
	}
	e.initLinks()
	return e
}

func (e *Engine) initLinks() {
	degree := make([]int, len(e.nodes))
	for _, l := range e.graph.Links {
		s, okS := e.index[l.Source]
		t, okT := e.index[l.Target]
		if !okS || !okT || s == t {
			continue
		}
		e.links = append(e.links, simLink{source: s, target: t})
		degree[s]++
		degree[t]++
	}
	for i := range e.links {
		l := &e.links[i]
		ds, dt := float64(degree[l.source]), float64(degree[l.target])
		l.bias = ds / (ds + dt)
		if e.params.LinkStrength > 0 {
			l.strength = e.params.LinkStrength
		} else {
			l.strength = 1 / math.Min(ds, dt)
		}
	}
}

func (e *Engine) State() State           { return e.state }
func (e *Engine) Alpha() float64         { return e.alpha }
func (e *Engine) AlphaTarget() float64   { return e.alphaTarget }
func (e *Engine) Ticks() int             { return e.ticks }
func (e *Engine) Graph() *graph.JobGraph { return e.graph }
func (e *Engine) Params() Params         { return e.params }

// Start moves an idle or stopped engine to Running.
func (e *Engine) Start() {
	e.state = Running
}

// Stop halts ticking. Positions are kept.
func (e *Engine) Stop() {
	e.state = Stopped
}

// Tick advances one step when Running and reports whether the engine is
// still running afterwards.
func (e *Engine) Tick() bool {
	if e.state != Running {
		return false
	}
	e.step()
	if e.alpha < e.params.AlphaMin {
		e.state = Stopped
	}
	return e.state == Running
}

// step is one simulation tick regardless of state.
func (e *Engine) step() {
	e.alpha += (e.alphaTarget - e.alpha) * e.params.AlphaDecay
	e.applyLinks()
	e.applyCharge()
	e.applyCenter()

	keep := 1 - e.params.VelocityDecay
	for i := range e.nodes {
		n := &e.nodes[i]
		if n.fixed {
			n.x, n.y = n.fx, n.fy
			n.vx, n.vy = 0, 0
			continue
		}
		n.vx *= keep
		n.vy *= keep
		n.x += n.vx
		n.y += n.vy
	}
	e.ticks++
}

// Settle runs up to max ticks synchronously, stopping early on convergence.
// It returns the number of ticks run.
func (e *Engine) Settle(max int) int {
	e.Start()
	n := 0
	for n < max && e.state == Running {
		e.Tick()
		n++
	}
	return n
}

// Position returns the world coordinates of node id.
func (e *Engine) Position(id string) (x, y float64, ok bool) {
	i, ok := e.index[id]
	if !ok {
		return 0, 0, false
	}
	return e.nodes[i].x, e.nodes[i].y, true
}

// Fixed reports whether node id is pinned by a drag.
func (e *Engine) Fixed(id string) bool {
	i, ok := e.index[id]
	return ok && e.nodes[i].fixed
}

func (e *Engine) lookup(id string) (*simNode, error) {
	i, ok := e.index[id]
	if !ok {
		return nil, errors.NewNotFoundError("node %q is not in the layout", id)
	}
	return &e.nodes[i], nil
}

// DragStart pins id at its current position. The first active drag raises
// the alpha target and restarts a stopped engine.
func (e *Engine) DragStart(id string) error {
	n, err := e.lookup(id)
	if err != nil {
		return err
	}
	if e.dragging == 0 {
		e.alphaTarget = e.params.DragAlphaTarget
		e.Start()
	}
	e.dragging++
	n.fx, n.fy = n.x, n.y
	n.fixed = true
	return nil
}

// DragMove moves the pin of id to world coordinates (x, y).
func (e *Engine) DragMove(id string, x, y float64) error {
	n, err := e.lookup(id)
	if err != nil {
		return err
	}
	if !n.fixed {
		return errors.NewInvalidRequestError("node %q is not being dragged", id)
	}
	n.fx, n.fy = x, y
	return nil
}

// DragEnd releases id. The last active drag resets the alpha target to zero.
func (e *Engine) DragEnd(id string) error {
	n, err := e.lookup(id)
	if err != nil {
		return err
	}
	if !n.fixed {
		return nil
	}
	n.fixed = false
	if e.dragging > 0 {
		e.dragging--
	}
	if e.dragging == 0 {
		e.alphaTarget = 0
	}
	return nil
}

// jiggle returns a tiny random offset used to separate coincident points.
func (e *Engine) jiggle() float64 {
	return (e.rng.Float64() - 0.5) * 1e-6
}
