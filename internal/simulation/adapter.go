// Package simulation is the entry point used when the controller runs against a
// simulator instead of a serial link. The simulator supplies odometry directly and
// hands over each sensor stream frame as raw bytes.
package simulation

import (
	"errors"
	"fmt"

	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/nav"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/sensors"
)

// #region errors
var (
	// ErrArgument is a caller contract violation: missing stream or wrong axis count.
	ErrArgument = errors.New("simulation: invalid argument")

	// ErrInvalidParameter means the stream frame could not be decoded.
	ErrInvalidParameter = errors.New("simulation: invalid parameter")
)

// #endregion errors

// #region adapter
// Adapter feeds simulator frames to a statechart. It is not safe for concurrent use.
type Adapter struct {
	chart *nav.Statechart
	last  nav.StepResult
	in    nav.Inputs
}

// NewAdapter wraps a fresh statechart for p.
func NewAdapter(p nav.Policy) *Adapter {
	return &Adapter{chart: nav.New(p)}
}

// NewAdapterWithChart wraps an existing statechart, e.g. one resumed from a record.
func NewAdapterWithChart(chart *nav.Statechart) *Adapter {
	return &Adapter{chart: chart}
}

// Step decodes one simulator frame and evaluates a cycle. On error the statechart is
// not advanced and the returned speeds are zero.
func (a *Adapter) Step(netDistance, netAngle int32, stream []byte, axes []float64) (nav.WheelSpeeds, error) {
	in, err := Decode(netDistance, netAngle, stream, axes)
	if err != nil {
		return nav.Stopped, err
	}
	a.in = in
	a.last = a.chart.Step(in)
	return a.last.Speeds, nil
}

// StepFrame is Step for a decoded Frame record.
func (a *Adapter) StepFrame(f Frame) (nav.StepResult, error) {
	if _, err := a.Step(f.NetDistance, f.NetAngle, f.Packet, f.Accel); err != nil {
		return nav.StepResult{Speeds: nav.Stopped}, err
	}
	return a.last, nil
}

// Last returns the inputs and result of the most recent successful step.
func (a *Adapter) Last() (nav.Inputs, nav.StepResult) {
	return a.in, a.last
}

// Chart exposes the wrapped statechart.
func (a *Adapter) Chart() *nav.Statechart {
	return a.chart
}

// Decode validates raw simulator arguments and builds the core's inputs.
func Decode(netDistance, netAngle int32, stream []byte, axes []float64) (nav.Inputs, error) {
	if stream == nil {
		return nav.Inputs{}, fmt.Errorf("%w: nil sensor stream", ErrArgument)
	}
	accel, err := sensors.AccelerometerFromAxes(axes)
	if err != nil {
		return nav.Inputs{}, fmt.Errorf("%w: %v", ErrArgument, err)
	}
	snap, err := sensors.ParseStreamFrame(stream)
	if err != nil {
		return nav.Inputs{}, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}
	return nav.Inputs{
		Odometry:    sensors.Odometry{NetDistance: netDistance, NetAngle: netAngle},
		Sensors:     snap,
		Accel:       accel,
		IsSimulator: true,
	}, nil
}

// #endregion adapter
