// Package control runs the statechart against real collaborators: it polls sensors,
// integrates odometry, evaluates one cycle and drives the wheels at a fixed period.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/nav"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/odometry"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/sensors"
)

// #region collaborators
// SensorSource returns one decoded sensor packet per call.
type SensorSource interface {
	Poll(ctx context.Context) (sensors.Snapshot, error)
}

// Actuator sets wheel speeds.
type Actuator interface {
	DriveDirect(ctx context.Context, left, right int16) error
	Stop(ctx context.Context) error
}

// AccelSource returns one raw accelerometer sample per call.
type AccelSource interface {
	Sample(ctx context.Context) (sensors.Accelerometer, error)
}

// Recorder persists evaluated cycles.
type Recorder interface {
	Record(seq int64, in nav.Inputs, res nav.StepResult) error
}

// Observer receives per-cycle telemetry.
type Observer interface {
	Observe(p nav.Policy, res nav.StepResult)
	CycleDuration(d time.Duration)
	Error(stage string)
}

// #endregion collaborators

// #region loop
// DefaultPeriod is the cycle period of the live controller.
const DefaultPeriod = 60 * time.Millisecond

const errorLogInterval = 5 * time.Second

// Loop owns the statechart for the life of a live run. It is not safe for
// concurrent use; Run is the only goroutine that touches it.
type Loop struct {
	chart  *nav.Statechart
	source SensorSource
	act    Actuator
	accel  AccelSource
	rec    Recorder
	obs    Observer
	log    *slog.Logger

	odo    odometry.Integrator
	filter *odometry.LowPass
	period time.Duration
	seq    int64

	errMu   sync.Mutex
	errLogs map[string]*rate.Sometimes
}

// Option configures a Loop.
type Option func(*Loop)

func WithAccel(a AccelSource) Option { return func(l *Loop) { l.accel = a } }
func WithRecorder(r Recorder) Option { return func(l *Loop) { l.rec = r } }
func WithObserver(o Observer) Option { return func(l *Loop) { l.obs = o } }
func WithLogger(log *slog.Logger) Option { return func(l *Loop) { l.log = log } }

// WithPeriod sets the cycle period; non-positive values keep DefaultPeriod.
func WithPeriod(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.period = d
		}
	}
}

// WithAlpha sets the accelerometer filter weight.
func WithAlpha(alpha float64) Option {
	return func(l *Loop) { l.filter = odometry.NewLowPass(alpha) }
}

// New builds a loop around chart.
func New(chart *nav.Statechart, source SensorSource, act Actuator, opts ...Option) *Loop {
	l := &Loop{
		chart:   chart,
		source:  source,
		act:     act,
		log:     slog.Default(),
		filter:  odometry.NewLowPass(odometry.DefaultAlpha),
		period:  DefaultPeriod,
		errLogs: make(map[string]*rate.Sometimes),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// CycleResult is what one Cycle evaluated.
type CycleResult struct {
	Seq    int64
	Inputs nav.Inputs
	Step   nav.StepResult
}

// Cycle runs poll, integrate, filter, evaluate, drive and record once. A sensor
// failure skips evaluation entirely; the statechart only ever sees complete packets.
func (l *Loop) Cycle(ctx context.Context) (CycleResult, error) {
	start := time.Now()

	snap, err := l.source.Poll(ctx)
	if err != nil {
		l.fail("sensor", err)
		return CycleResult{}, fmt.Errorf("poll sensors: %w", err)
	}
	in := nav.Inputs{
		Odometry: l.odo.Add(snap),
		Sensors:  snap,
		Accel:    l.sample(ctx),
	}

	res := l.chart.Step(in)
	out := CycleResult{Seq: l.seq, Inputs: in, Step: res}
	l.seq++

	p := l.chart.Policy()
	if t := res.Transition; t != nil {
		l.log.Info("transition",
			"seq", out.Seq,
			"from", nav.StateName(p, t.From),
			"to", nav.StateName(p, t.To),
			"rule", t.Rule,
			"region", res.Region.String(),
			"net_distance", in.Odometry.NetDistance,
			"net_angle", in.Odometry.NetAngle,
		)
	}
	if res.Unmapped {
		l.log.Warn("state has no action, wheels stopped", "state", l.chart.StateName())
	}

	driveErr := l.act.DriveDirect(ctx, res.Speeds.Left, res.Speeds.Right)
	if driveErr != nil {
		l.fail("actuator", driveErr)
	}
	if l.rec != nil {
		if err := l.rec.Record(out.Seq, in, res); err != nil {
			l.fail("record", err)
		}
	}
	if l.obs != nil {
		l.obs.Observe(p, res)
		l.obs.CycleDuration(time.Since(start))
	}

	if driveErr != nil {
		return out, fmt.Errorf("drive: %w", driveErr)
	}
	return out, nil
}

// Run cycles every period until ctx is done or the advance button is pressed, then
// stops the wheels. Per-cycle errors are logged and do not end the run.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.period)
	defer ticker.Stop()
	defer l.stopWheels()

	l.log.Info("control loop started", "policy", l.chart.Policy().Name(), "period", l.period)
	for {
		res, err := l.Cycle(ctx)
		if err == nil && res.Inputs.Sensors.Advance {
			l.log.Info("advance pressed, stopping", "cycles", l.seq)
			return nil
		}

		select {
		case <-ctx.Done():
			l.log.Info("control loop cancelled", "cycles", l.seq)
			return nil
		case <-ticker.C:
		}
	}
}

// Chart exposes the loop's statechart.
func (l *Loop) Chart() *nav.Statechart {
	return l.chart
}

func (l *Loop) sample(ctx context.Context) sensors.Accelerometer {
	if l.accel == nil {
		return sensors.Accelerometer{}
	}
	raw, err := l.accel.Sample(ctx)
	if err != nil {
		l.fail("accel", err)
		return sensors.Accelerometer{}
	}
	return l.filter.Filter(raw)
}

func (l *Loop) stopWheels() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.act.Stop(ctx); err != nil {
		l.log.Error("stop wheels", "err", err)
	}
}

// fail counts err and logs it at most once per errorLogInterval per stage.
func (l *Loop) fail(stage string, err error) {
	if l.obs != nil {
		l.obs.Error(stage)
	}
	l.errMu.Lock()
	s, ok := l.errLogs[stage]
	if !ok {
		s = &rate.Sometimes{Interval: errorLogInterval}
		l.errLogs[stage] = s
	}
	l.errMu.Unlock()
	s.Do(func() { l.log.Error("cycle error", "stage", stage, "err", err) })
}

// #endregion loop
