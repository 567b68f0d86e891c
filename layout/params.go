package layout

import (
	"math"
	"time"

	"github.com/opengamedata/ogdviz/am"
)

// Params tunes the simulation and the derived styling.
type Params struct {
	ChargeStrength  float64 // negative repels
	LinkDistance    float64
	LinkStrength    float64 // 0 = 1/min(degree(source), degree(target))
	AlphaMin        float64
	AlphaDecay      float64
	VelocityDecay   float64 // fraction of velocity lost per tick
	DragAlphaTarget float64
	TickInterval    time.Duration

	Width  float64
	Height float64

	MinRadius     float64
	MaxRadius     float64
	DefaultRadius float64 // nodes without an average time
}

// DefaultAlphaDecay brings alpha from 1 to alphaMin in 300 ticks.
func DefaultAlphaDecay(alphaMin float64) float64 {
	return 1 - math.Pow(alphaMin, 1.0/300)
}

// DefaultParams mirrors the am defaults.
func DefaultParams() Params {
	return Params{
		ChargeStrength:  -1000,
		LinkDistance:    100,
		LinkStrength:    1,
		AlphaMin:        0.001,
		AlphaDecay:      DefaultAlphaDecay(0.001),
		VelocityDecay:   0.4,
		DragAlphaTarget: 0.3,
		TickInterval:    16 * time.Millisecond,
		Width:           800,
		Height:          450,
		MinRadius:       3,
		MaxRadius:       20,
		DefaultRadius:   5,
	}
}

// ParamsFrom converts the layout section of the configuration.
func ParamsFrom(cfg am.LayoutConfig) Params {
	p := Params{
		ChargeStrength:  cfg.ChargeStrength,
		LinkDistance:    cfg.LinkDistance,
		LinkStrength:    cfg.LinkStrength,
		AlphaMin:        cfg.AlphaMin,
		AlphaDecay:      cfg.AlphaDecay,
		VelocityDecay:   cfg.VelocityDecay,
		DragAlphaTarget: cfg.DragAlphaTarget,
		TickInterval:    time.Duration(cfg.TickIntervalMS) * time.Millisecond,
		Width:           cfg.Width,
		Height:          cfg.Height,
		MinRadius:       cfg.MinRadius,
		MaxRadius:       cfg.MaxRadius,
		DefaultRadius:   cfg.DefaultRadius,
	}
	if p.AlphaDecay == 0 && p.AlphaMin > 0 {
		p.AlphaDecay = DefaultAlphaDecay(p.AlphaMin)
	}
	if p.TickInterval <= 0 {
		p.TickInterval = DefaultParams().TickInterval
	}
	return p
}
