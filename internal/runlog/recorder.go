package runlog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/logging"
	"github.com/danielpatrickdp/irobot-nav/go-controller/internal/nav"
)

// #region recorder
// Recorder appends the cycles of one run and mirrors every fired rule into the
// transition log.
type Recorder struct {
	store  *Store
	runID  string
	policy nav.Policy
}

// NewRecorder records into an already-created run.
func NewRecorder(store *Store, runID string, policy nav.Policy) *Recorder {
	return &Recorder{store: store, runID: runID, policy: policy}
}

// RunID is the run being recorded.
func (r *Recorder) RunID() string { return r.runID }

// Record stores one cycle.
func (r *Recorder) Record(seq int64, in nav.Inputs, res nav.StepResult) error {
	rec := CycleRecord{
		RunID:     r.runID,
		Seq:       seq,
		Inputs:    in,
		Context:   res.Context,
		StateName: nav.StateName(r.policy, res.Context.State),
		Speeds:    res.Speeds,
		Unmapped:  res.Unmapped,
	}
	if res.Transition != nil {
		rec.Rule = res.Transition.Rule
	}
	if err := r.store.RecordCycle(rec); err != nil {
		return err
	}
	if res.Transition == nil {
		return nil
	}

	detail, err := json.Marshal(in.Sensors)
	if err != nil {
		return fmt.Errorf("marshal detail: %w", err)
	}
	return logging.LogTransition(r.store.DB(), logging.TransitionEntry{
		RunID:       r.runID,
		Seq:         seq,
		FromState:   nav.StateName(r.policy, res.Transition.From),
		ToState:     nav.StateName(r.policy, res.Transition.To),
		Rule:        res.Transition.Rule,
		Region:      res.Region.String(),
		NetDistance: in.Odometry.NetDistance,
		NetAngle:    in.Odometry.NetAngle,
		Detail:      string(detail),
	})
}

// #endregion recorder

// #region transitions
// Transitions returns the transition log of a run in order.
func (s *Store) Transitions(runID string) ([]logging.TransitionEntry, error) {
	rows, err := s.db.Query(
		`SELECT run_id, seq, from_state, to_state, rule, region, net_distance, net_angle, detail, created_at
		 FROM transition_log WHERE run_id = ? ORDER BY seq, id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	var out []logging.TransitionEntry
	for rows.Next() {
		var e logging.TransitionEntry
		var detail sql.NullString
		var createdStr string
		if err := rows.Scan(&e.RunID, &e.Seq, &e.FromState, &e.ToState, &e.Rule, &e.Region,
			&e.NetDistance, &e.NetAngle, &detail, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.Detail = detail.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, e)
	}
	return out, rows.Err()
}

// #endregion transitions
