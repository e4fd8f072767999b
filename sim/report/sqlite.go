package report

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	sim "github.com/pathway-sim/pathway-sim/sim"
)

// EventStore persists run metadata and event records to SQLite, so several
// scenario runs can be aggregated with plain SQL.
type EventStore struct {
	db *sql.DB
}

// OpenEventStore opens (creating if needed) a SQLite event sink.
func OpenEventStore(path string) (*EventStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open event store: %w", err)
	}
	s := &EventStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate event store: %w", err)
	}
	return s, nil
}

func (s *EventStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		scenario TEXT NOT NULL,
		seed INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		steps INTEGER NOT NULL,
		active_remaining INTEGER NOT NULL,
		started_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		patient_id TEXT NOT NULL,
		time INTEGER NOT NULL,
		service_point TEXT NOT NULL,
		action TEXT NOT NULL,
		priority REAL NOT NULL,
		degraded INTEGER NOT NULL DEFAULT 0,
		rationale TEXT NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_events_run ON events(run_id);
	CREATE INDEX IF NOT EXISTS idx_events_run_time ON events(run_id, time);
	CREATE INDEX IF NOT EXISTS idx_events_point ON events(run_id, service_point);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordRun inserts the run row and all its events in one transaction and
// returns the generated run id.
func (s *EventStore) RecordRun(res *sim.Result, seed int64) (string, error) {
	runID := uuid.NewString()
	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, scenario, seed, outcome, steps, active_remaining, started_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, res.Scenario, seed, string(res.Outcome), res.StepsRun, res.ActiveRemaining, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	stmt, err := tx.Prepare(
		`INSERT INTO events (run_id, patient_id, time, service_point, action, priority, degraded, rationale) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare events: %w", err)
	}
	defer stmt.Close()
	for i := range res.Events {
		e := &res.Events[i]
		degraded := 0
		if e.Degraded {
			degraded = 1
		}
		if _, err := stmt.Exec(runID, e.PatientID, e.Time, e.Point, string(e.Action), e.Priority, degraded, FlattenRationale(e.Rationale)); err != nil {
			return "", fmt.Errorf("insert event %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

// Close closes the underlying database.
func (s *EventStore) Close() error {
	return s.db.Close()
}
