package layout

import (
	"github.com/opengamedata/ogdviz/errors"
)

// View is a zoom transform from world to screen coordinates:
// screen = world*K + (X, Y). It never touches simulation state.
type View struct {
	K float64 `json:"k"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// IdentityView leaves coordinates unchanged.
func IdentityView() View {
	return View{K: 1}
}

// Apply maps a world point to the screen.
func (v View) Apply(x, y float64) (float64, float64) {
	return x*v.K + v.X, y*v.K + v.Y
}

// Invert maps a screen point back to world coordinates.
func (v View) Invert(x, y float64) (float64, float64) {
	return (x - v.X) / v.K, (y - v.Y) / v.K
}

// Translate pans by (dx, dy) screen units.
func (v View) Translate(dx, dy float64) View {
	return View{K: v.K, X: v.X + dx, Y: v.Y + dy}
}

// ZoomAt scales by factor keeping screen point (px, py) fixed.
func (v View) ZoomAt(factor, px, py float64) (View, error) {
	if factor <= 0 {
		return v, errors.NewInvalidRequestError("zoom factor must be positive, got %g", factor)
	}
	wx, wy := v.Invert(px, py)
	k := v.K * factor
	return View{K: k, X: px - wx*k, Y: py - wy*k}, nil
}

// Validate rejects a non-positive scale.
func (v View) Validate() error {
	if v.K <= 0 {
		return errors.NewInvalidRequestError("view scale must be positive, got %g", v.K)
	}
	return nil
}
