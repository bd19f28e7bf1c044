package logging

import (
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	_, err = db.Exec(`CREATE TABLE transition_log (
		run_id       TEXT NOT NULL,
		seq          INTEGER NOT NULL,
		from_state   TEXT NOT NULL,
		to_state     TEXT NOT NULL,
		rule         TEXT NOT NULL,
		region       TEXT NOT NULL,
		net_distance INTEGER NOT NULL,
		net_angle    INTEGER NOT NULL,
		detail       TEXT,
		created_at   TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

// #endregion helpers

// #region log-transition-tests
func TestLogTransition_Success(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := TransitionEntry{
		RunID:       "r1",
		Seq:         12,
		FromState:   "DRIVE",
		ToState:     "AVOID",
		Rule:        "obstacle",
		Region:      "run",
		NetDistance: 1500,
		NetAngle:    -30,
		Detail:      `{"bump_left":true}`,
		CreatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := LogTransition(db, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM transition_log").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}

	var rule, to string
	var dist int32
	db.QueryRow("SELECT rule, to_state, net_distance FROM transition_log").Scan(&rule, &to, &dist)
	if rule != "obstacle" || to != "AVOID" {
		t.Errorf("expected obstacle -> AVOID, got %s -> %s", rule, to)
	}
	if dist != 1500 {
		t.Errorf("expected net_distance 1500, got %d", dist)
	}
}

func TestLogTransition_ZeroCreatedAt(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	before := time.Now().UTC()
	err := LogTransition(db, TransitionEntry{RunID: "r2", FromState: "INITIAL", ToState: "UNPAUSE_WAIT_PRESS", Rule: "arm", Region: "pause"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var createdAtStr string
	db.QueryRow("SELECT created_at FROM transition_log").Scan(&createdAtStr)
	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		t.Fatalf("parse created_at: %v", err)
	}
	if createdAt.Before(before) {
		t.Error("expected auto-filled created_at to be >= test start time")
	}
}

func TestLogTransition_EmptyDetailIsNull(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	if err := LogTransition(db, TransitionEntry{RunID: "r3", Rule: "resume"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var detail sql.NullString
	db.QueryRow("SELECT detail FROM transition_log").Scan(&detail)
	if detail.Valid {
		t.Errorf("expected NULL detail, got %q", detail.String)
	}
}

func TestLogTransition_ClosedDB(t *testing.T) {
	db := setupDB(t)
	db.Close()

	if err := LogTransition(db, TransitionEntry{RunID: "r4"}); err == nil {
		t.Fatal("expected error on closed db")
	}
}

// #endregion log-transition-tests

// #region null-if-empty-tests
func TestNullIfEmpty(t *testing.T) {
	if nullIfEmpty("") != nil {
		t.Error("expected nil for empty string")
	}
	if nullIfEmpty("x") != "x" {
		t.Error("expected pass-through for non-empty string")
	}
}

// #endregion null-if-empty-tests
