// Package odometry turns per-cycle sensor deltas into the accumulated motion the
// navigation core reads, and smooths raw accelerometer samples.
package odometry

import "github.com/danielpatrickdp/irobot-nav/go-controller/internal/sensors"

// #region integrator
// Integrator accumulates the distance and angle deltas reported by each sensor
// packet. Totals never wrap.
type Integrator struct {
	odo sensors.Odometry
}

// Add folds one packet's deltas into the running totals and returns them.
func (g *Integrator) Add(s sensors.Snapshot) sensors.Odometry {
	g.odo.NetDistance += int32(s.Distance)
	g.odo.NetAngle += int32(s.Angle)
	return g.odo
}

// Odometry returns the current totals.
func (g *Integrator) Odometry() sensors.Odometry {
	return g.odo
}

// Reset zeroes the totals.
func (g *Integrator) Reset() {
	g.odo = sensors.Odometry{}
}

// #endregion integrator

// #region low-pass
// DefaultAlpha is the smoothing weight of the live controller's accelerometer filter.
const DefaultAlpha = 0.2

// LowPass is a first-order filter: y = alpha*x + (1-alpha)*prev.
// The first sample passes through unchanged.
type LowPass struct {
	Alpha float64

	prev   sensors.Accelerometer
	primed bool
}

// NewLowPass returns a filter with the given weight; values outside (0,1] fall back
// to DefaultAlpha.
func NewLowPass(alpha float64) *LowPass {
	if alpha <= 0 || alpha > 1 {
		alpha = DefaultAlpha
	}
	return &LowPass{Alpha: alpha}
}

// Filter feeds one sample through the filter.
func (f *LowPass) Filter(x sensors.Accelerometer) sensors.Accelerometer {
	if !f.primed {
		f.prev = x
		f.primed = true
		return x
	}
	a := f.Alpha
	f.prev = sensors.Accelerometer{
		X: a*x.X + (1-a)*f.prev.X,
		Y: a*x.Y + (1-a)*f.prev.Y,
		Z: a*x.Z + (1-a)*f.prev.Z,
	}
	return f.prev
}

// Reset forgets the filter history.
func (f *LowPass) Reset() {
	f.prev = sensors.Accelerometer{}
	f.primed = false
}

// #endregion low-pass
