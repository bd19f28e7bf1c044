package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/config"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/nav"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/runlog"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/sensors"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description string                 `json:"description"`
	PolicyName  string                 `json:"policy"`
	Reactive    *config.ReactiveConfig `json:"reactive,omitempty"`
	Scripted    *config.ScriptedConfig `json:"scripted,omitempty"`
	Cycles      []FixtureCycle         `json:"cycles"`
}

// FixtureCycle is one cycle's inputs with an optional expectation.
type FixtureCycle struct {
	NetDistance int32                 `json:"net_distance"`
	NetAngle    int32                 `json:"net_angle"`
	Sensors     sensors.Snapshot      `json:"sensors"`
	Accel       sensors.Accelerometer `json:"accel"`
	IsSimulator bool                  `json:"is_simulator,omitempty"`
	Expect      *FixtureExpect        `json:"expect,omitempty"`
}

// FixtureExpect is the expected state name and wheel speeds after a cycle.
type FixtureExpect struct {
	State string `json:"state,omitempty"`
	Left  int16  `json:"left"`
	Right int16  `json:"right"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// Policy builds the fixture's policy over the default configuration.
func (f *Fixture) Policy() (nav.Policy, error) {
	cfg := config.Default()
	if f.PolicyName != "" {
		cfg.PolicyName = f.PolicyName
	}
	if f.Reactive != nil {
		cfg.Reactive = *f.Reactive
	}
	if f.Scripted != nil {
		cfg.Scripted = *f.Scripted
	}
	p, err := cfg.Policy()
	if err != nil {
		return nil, fmt.Errorf("fixture policy: %w", err)
	}
	return p, nil
}

// ToCycles converts fixture cycles to replay cycles.
func (f *Fixture) ToCycles() []Cycle {
	cycles := make([]Cycle, len(f.Cycles))
	for i, fc := range f.Cycles {
		cycles[i] = fc.ToCycle()
	}
	return cycles
}

// ToCycle converts one FixtureCycle to a replay Cycle.
func (fc *FixtureCycle) ToCycle() Cycle {
	c := Cycle{Inputs: nav.Inputs{
		Odometry:    sensors.Odometry{NetDistance: fc.NetDistance, NetAngle: fc.NetAngle},
		Sensors:     fc.Sensors,
		Accel:       fc.Accel,
		IsSimulator: fc.IsSimulator,
	}}
	if fc.Expect != nil {
		c.Expect = &Expectation{
			State:  fc.Expect.State,
			Speeds: nav.WheelSpeeds{Left: fc.Expect.Left, Right: fc.Expect.Right},
		}
	}
	return c
}

// #endregion fixture-loader

// #region fixture-export

// FixtureFromRun builds a fixture from a recorded run. The run's stored
// configuration supplies the policy parameters when present.
func FixtureFromRun(run runlog.RunRecord, recs []runlog.CycleRecord) (*Fixture, error) {
	f := &Fixture{
		Description: fmt.Sprintf("exported from run %s", run.RunID),
		PolicyName:  run.Policy,
		Cycles:      make([]FixtureCycle, len(recs)),
	}
	if run.ConfigJSON != "" {
		cfg := config.Default()
		if err := json.Unmarshal([]byte(run.ConfigJSON), &cfg); err != nil {
			return nil, fmt.Errorf("parse run config: %w", err)
		}
		switch run.Policy {
		case "reactive":
			f.Reactive = &cfg.Reactive
		case "scripted":
			f.Scripted = &cfg.Scripted
		}
	}
	for i, rec := range recs {
		f.Cycles[i] = FixtureCycle{
			NetDistance: rec.Inputs.Odometry.NetDistance,
			NetAngle:    rec.Inputs.Odometry.NetAngle,
			Sensors:     rec.Inputs.Sensors,
			Accel:       rec.Inputs.Accel,
			IsSimulator: rec.Inputs.IsSimulator,
			Expect:      &FixtureExpect{State: rec.StateName, Left: rec.Speeds.Left, Right: rec.Speeds.Right},
		}
	}
	return f, nil
}

// #endregion fixture-export
