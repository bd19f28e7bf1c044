package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region log-transition
// LogTransition writes one fired rule to the transition_log table.
func LogTransition(db *sql.DB, entry TransitionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO transition_log (run_id, seq, from_state, to_state, rule, region, net_distance, net_angle, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Seq,
		entry.FromState,
		entry.ToState,
		entry.Rule,
		entry.Region,
		entry.NetDistance,
		entry.NetAngle,
		nullIfEmpty(entry.Detail),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log transition: %w", err)
	}
	return nil
}

// #endregion log-transition

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
