package visualizer

import (
	"math"

	"github.com/opengamedata/ogdviz/payload"
)

// Point is one player or session.
type Point struct {
	ID string  `json:"id" yaml:"id"`
	X  float64 `json:"x" yaml:"x"`
	Y  float64 `json:"y" yaml:"y"`
}

// ScatterplotModel pairs two metrics per player or session.
type ScatterplotModel struct {
	Game    string  `json:"game" yaml:"game"`
	XMetric string  `json:"x_metric" yaml:"x_metric"`
	YMetric string  `json:"y_metric" yaml:"y_metric"`
	Points  []Point `json:"points" yaml:"points"`
	Skipped int     `json:"skipped" yaml:"skipped"`
	MinX    float64 `json:"min_x" yaml:"min_x"`
	MaxX    float64 `json:"max_x" yaml:"max_x"`
	MinY    float64 `json:"min_y" yaml:"min_y"`
	MaxY    float64 `json:"max_y" yaml:"max_y"`
}

func (m *ScatterplotModel) IsEmpty() bool { return len(m.Points) == 0 }

// NewScatterplot keeps rows where both metrics are numeric, ordered by id.
func NewScatterplot(game string, raw payload.Raw, xMetric, yMetric string) (*ScatterplotModel, error) {
	rows, skipped, err := decodeRows(raw)
	if err != nil {
		return nil, err
	}
	m := &ScatterplotModel{Game: game, XMetric: xMetric, YMetric: yMetric, Points: []Point{}, Skipped: skipped}
	for _, r := range rows {
		x, okX := r.number(xMetric)
		y, okY := r.number(yMetric)
		if !okX || !okY || !finite(x) || !finite(y) {
			m.Skipped++
			continue
		}
		if len(m.Points) == 0 {
			m.MinX, m.MaxX, m.MinY, m.MaxY = x, x, y, y
		}
		m.MinX, m.MaxX = math.Min(m.MinX, x), math.Max(m.MaxX, x)
		m.MinY, m.MaxY = math.Min(m.MinY, y), math.Max(m.MaxY, y)
		m.Points = append(m.Points, Point{ID: r.id, X: x, Y: y})
	}
	return m, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
