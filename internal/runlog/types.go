package runlog

import (
	"time"

	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/nav"
)

// #region run-record
// RunRecord describes one execution of the control loop or simulator bridge.
type RunRecord struct {
	RunID      string
	Policy     string
	Simulated  bool
	ConfigJSON string
	StartedAt  time.Time
	EndedAt    time.Time // zero while the run is open
	Cycles     int64
}

// #endregion run-record

// #region cycle-record
// CycleRecord is one evaluated cycle: the inputs handed to the core and what it
// returned. Inputs alone are enough to replay a run.
type CycleRecord struct {
	RunID     string
	Seq       int64
	Inputs    nav.Inputs
	Context   nav.Context // context after the step
	StateName string
	Speeds    nav.WheelSpeeds
	Rule      string // empty on stutter
	Unmapped  bool
	CreatedAt time.Time
}

// #endregion cycle-record
