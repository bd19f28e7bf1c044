package logging

import "time"

// #region transition-entry
// TransitionEntry is a single row in the transition_log table.
type TransitionEntry struct {
	RunID       string
	Seq         int64
	FromState   string
	ToState     string
	Rule        string
	Region      string // "pause" | "run"
	NetDistance int32
	NetAngle    int32
	Detail      string // optional JSON, e.g. the sensor flags that fired the rule
	CreatedAt   time.Time
}

// #endregion transition-entry
