// Package runlog persists recorded runs in SQLite so they can be inspected and
// replayed.
package runlog

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	policy       TEXT NOT NULL,
	simulated    INTEGER NOT NULL,
	config_json  TEXT,
	started_at   TEXT NOT NULL,
	ended_at     TEXT,
	cycles       INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS cycles (
	run_id        TEXT NOT NULL,
	seq           INTEGER NOT NULL,
	net_distance  INTEGER NOT NULL,
	net_angle     INTEGER NOT NULL,
	sensors_json  TEXT NOT NULL,
	accel_json    TEXT NOT NULL,
	is_simulator  INTEGER NOT NULL,
	context_json  TEXT NOT NULL,
	state         TEXT NOT NULL,
	left_speed    INTEGER NOT NULL,
	right_speed   INTEGER NOT NULL,
	rule          TEXT,
	unmapped      INTEGER NOT NULL,
	created_at    TEXT NOT NULL,
	PRIMARY KEY (run_id, seq),
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS transition_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	seq           INTEGER NOT NULL,
	from_state    TEXT NOT NULL,
	to_state      TEXT NOT NULL,
	rule          TEXT NOT NULL,
	region        TEXT NOT NULL,
	net_distance  INTEGER NOT NULL,
	net_angle     INTEGER NOT NULL,
	detail        TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// #endregion schema

var ErrRunNotFound = errors.New("runlog: run not found")

// timeFormat is fixed-width so that stored timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// #region store-struct
// Store manages recorded runs in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region runs
// CreateRun opens a new run and returns its record.
func (s *Store) CreateRun(policy string, simulated bool, configJSON string) (RunRecord, error) {
	rec := RunRecord{
		RunID:      uuid.New().String(),
		Policy:     policy,
		Simulated:  simulated,
		ConfigJSON: configJSON,
		StartedAt:  time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, policy, simulated, config_json, started_at) VALUES (?, ?, ?, ?, ?)`,
		rec.RunID, rec.Policy, rec.Simulated, nullIfEmpty(configJSON), rec.StartedAt.Format(timeFormat),
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("insert run: %w", err)
	}
	return rec, nil
}

// FinishRun stamps the run's end time.
func (s *Store) FinishRun(runID string) error {
	res, err := s.db.Exec(`UPDATE runs SET ended_at = ? WHERE run_id = ?`,
		time.Now().UTC().Format(timeFormat), runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}
	return nil
}

// GetRun retrieves one run by ID.
func (s *Store) GetRun(runID string) (RunRecord, error) {
	row := s.db.QueryRow(
		`SELECT run_id, policy, simulated, config_json, started_at, ended_at, cycles
		 FROM runs WHERE run_id = ?`, runID,
	)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("get run %s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	return rec, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, policy, simulated, config_json, started_at, ended_at, cycles
		 FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var rec RunRecord
	var configJSON, endedStr sql.NullString
	var startedStr string
	if err := row.Scan(&rec.RunID, &rec.Policy, &rec.Simulated, &configJSON, &startedStr, &endedStr, &rec.Cycles); err != nil {
		return RunRecord{}, err
	}
	rec.ConfigJSON = configJSON.String
	rec.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
	if endedStr.Valid {
		rec.EndedAt, _ = time.Parse(time.RFC3339Nano, endedStr.String)
	}
	return rec, nil
}

// #endregion runs

// #region cycles
// RecordCycle stores one cycle and bumps the run's cycle count atomically.
func (s *Store) RecordCycle(rec CycleRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	sensorsJSON, err := json.Marshal(rec.Inputs.Sensors)
	if err != nil {
		return fmt.Errorf("marshal sensors: %w", err)
	}
	accelJSON, err := json.Marshal(rec.Inputs.Accel)
	if err != nil {
		return fmt.Errorf("marshal accel: %w", err)
	}
	ctxJSON, err := json.Marshal(rec.Context)
	if err != nil {
		return fmt.Errorf("marshal context: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO cycles (run_id, seq, net_distance, net_angle, sensors_json, accel_json, is_simulator,
		                     context_json, state, left_speed, right_speed, rule, unmapped, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Seq, rec.Inputs.Odometry.NetDistance, rec.Inputs.Odometry.NetAngle,
		string(sensorsJSON), string(accelJSON), rec.Inputs.IsSimulator,
		string(ctxJSON), rec.StateName, rec.Speeds.Left, rec.Speeds.Right,
		nullIfEmpty(rec.Rule), rec.Unmapped, rec.CreatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("insert cycle: %w", err)
	}

	if _, err := tx.Exec(`UPDATE runs SET cycles = cycles + 1 WHERE run_id = ?`, rec.RunID); err != nil {
		return fmt.Errorf("update run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Cycles returns every cycle of a run in order.
func (s *Store) Cycles(runID string) ([]CycleRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, seq, net_distance, net_angle, sensors_json, accel_json, is_simulator,
		        context_json, state, left_speed, right_speed, rule, unmapped, created_at
		 FROM cycles WHERE run_id = ? ORDER BY seq`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	defer rows.Close()

	var out []CycleRecord
	for rows.Next() {
		var rec CycleRecord
		var sensorsJSON, accelJSON, ctxJSON, createdStr string
		var rule sql.NullString

		if err := rows.Scan(&rec.RunID, &rec.Seq,
			&rec.Inputs.Odometry.NetDistance, &rec.Inputs.Odometry.NetAngle,
			&sensorsJSON, &accelJSON, &rec.Inputs.IsSimulator,
			&ctxJSON, &rec.StateName, &rec.Speeds.Left, &rec.Speeds.Right,
			&rule, &rec.Unmapped, &createdStr,
		); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(sensorsJSON), &rec.Inputs.Sensors); err != nil {
			return nil, fmt.Errorf("unmarshal sensors: %w", err)
		}
		if err := json.Unmarshal([]byte(accelJSON), &rec.Inputs.Accel); err != nil {
			return nil, fmt.Errorf("unmarshal accel: %w", err)
		}
		if err := json.Unmarshal([]byte(ctxJSON), &rec.Context); err != nil {
			return nil, fmt.Errorf("unmarshal context: %w", err)
		}
		rec.Rule = rule.String
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// #endregion cycles

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
