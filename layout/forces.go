package layout

import "math"

// applyLinks pulls linked nodes toward LinkDistance, splitting the
// correction by degree so that hubs move less.
func (e *Engine) applyLinks() {
	for _, l := range e.links {
		s, t := &e.nodes[l.source], &e.nodes[l.target]
		x := t.x + t.vx - s.x - s.vx
		if x == 0 {
			x = e.jiggle()
		}
		y := t.y + t.vy - s.y - s.vy
		if y == 0 {
			y = e.jiggle()
		}
		d := math.Sqrt(x*x + y*y)
		k := (d - e.params.LinkDistance) / d * e.alpha * l.strength
		x *= k
		y *= k

		t.vx -= x * l.bias
		t.vy -= y * l.bias
		s.vx += x * (1 - l.bias)
		s.vy += y * (1 - l.bias)
	}
}

// applyCharge is the exact pairwise many-body force.
func (e *Engine) applyCharge() {
	strength := e.params.ChargeStrength * e.alpha
	for i := range e.nodes {
		ni := &e.nodes[i]
		for j := range e.nodes {
			if i == j {
				continue
			}
			nj := &e.nodes[j]
			x := nj.x - ni.x
			y := nj.y - ni.y
			l := x*x + y*y
			if x == 0 {
				x = e.jiggle()
				l += x * x
			}
			if y == 0 {
				y = e.jiggle()
				l += y * y
			}
			if l < distanceMin2 {
				l = math.Sqrt(distanceMin2 * l)
			}
			w := strength / l
			ni.vx += x * w
			ni.vy += y * w
		}
	}
}

// applyCenter translates every node so the centroid sits at the origin.
func (e *Engine) applyCenter() {
	if len(e.nodes) == 0 {
		return
	}
	var sx, sy float64
	for _, n := range e.nodes {
		sx += n.x
		sy += n.y
	}
	sx /= float64(len(e.nodes))
	sy /= float64(len(e.nodes))
	for i := range e.nodes {
		e.nodes[i].x -= sx
		e.nodes[i].y -= sy
	}
}
