package visualizer

import (
	"math"

	"github.com/opengamedata/ogdviz/payload"
)

// DefaultBins is the histogram bin count.
const DefaultBins = 10

// Bin counts values in [Lower, Upper). The last bin is closed.
type Bin struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
	Count int     `json:"count" yaml:"count"`
}

// HistogramModel bins one metric across players or sessions.
type HistogramModel struct {
	Game    string  `json:"game" yaml:"game"`
	Metric  string  `json:"metric" yaml:"metric"`
	Bins    []Bin   `json:"bins" yaml:"bins"`
	Count   int     `json:"count" yaml:"count"`
	Skipped int     `json:"skipped" yaml:"skipped"` // rows without a numeric value
	Min     float64 `json:"min" yaml:"min"`
	Max     float64 `json:"max" yaml:"max"`
	Mean    float64 `json:"mean" yaml:"mean"`
}

func (m *HistogramModel) IsEmpty() bool { return m.Count == 0 }

// NewHistogram bins metric into bins equal-width bins spanning the observed
// values. When every value is equal there is a single bin.
func NewHistogram(game string, raw payload.Raw, metric string, bins int) (*HistogramModel, error) {
	rows, skipped, err := decodeRows(raw)
	if err != nil {
		return nil, err
	}
	if bins <= 0 {
		bins = DefaultBins
	}

	m := &HistogramModel{Game: game, Metric: metric, Bins: []Bin{}, Skipped: skipped}
	values := make([]float64, 0, len(rows))
	for _, r := range rows {
		v, ok := r.number(metric)
		if !ok || !finite(v) {
			m.Skipped++
			continue
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return m, nil
	}

	m.Count = len(values)
	m.Min, m.Max = values[0], values[0]
	sum := 0.0
	for _, v := range values {
		m.Min = math.Min(m.Min, v)
		m.Max = math.Max(m.Max, v)
		sum += v
	}
	m.Mean = sum / float64(len(values))

	if m.Min == m.Max {
		m.Bins = []Bin{{Lower: m.Min, Upper: m.Max, Count: len(values)}}
		return m, nil
	}

	width := (m.Max - m.Min) / float64(bins)
	m.Bins = make([]Bin, bins)
	for i := range m.Bins {
		m.Bins[i].Lower = m.Min + float64(i)*width
		m.Bins[i].Upper = m.Min + float64(i+1)*width
	}
	m.Bins[bins-1].Upper = m.Max
	for _, v := range values {
		i := int((v - m.Min) / width)
		if i >= bins {
			i = bins - 1
		}
		m.Bins[i].Count++
	}
	return m, nil
}
