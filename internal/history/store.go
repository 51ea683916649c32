// Package history persists workspace run results in a local SQLite database
// so past orchestrations can be inspected with `cyrus history`.
package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/cyrus/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// Run is one recorded orchestration run.
type Run struct {
	ID        string
	Workspace string
	Command   string
	Overall   models.OverallStatus
	StartedAt time.Time
	Duration  time.Duration
}

// Store manages the SQLite run-history database.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens (creating if necessary) the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	// busy_timeout first so later statements wait on locks instead of
	// failing while another cyrus process holds the database.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("configure history database: %w", err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize history schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordRun persists a completed run and its per-member outcomes in one
// transaction. It implements the orchestrator's ResultRecorder interface.
func (s *Store) RecordRun(ctx context.Context, workspaceName string, result *models.WorkspaceResult, startedAt time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, workspace, command, overall, started_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		result.RunID, workspaceName, result.Command, string(result.Overall),
		startedAt.UTC(), result.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("insert run record: %w", err)
	}

	for _, o := range result.Outcomes {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_outcomes (run_id, member, wave, command, status, reason, exit_code, duration_ms)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			result.RunID, o.Member, o.Wave, o.Command, string(o.Status),
			string(o.Reason), o.ExitCode, o.Duration.Milliseconds())
		if err != nil {
			return fmt.Errorf("insert outcome record: %w", err)
		}
	}

	return tx.Commit()
}

// RecentRuns returns the most recent runs, newest first.
func (s *Store) RecentRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, workspace, command, overall, started_at, duration_ms
		 FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var overall string
		var durationMs int64
		if err := rows.Scan(&run.ID, &run.Workspace, &run.Command, &overall, &run.StartedAt, &durationMs); err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		run.Overall = models.OverallStatus(overall)
		run.Duration = time.Duration(durationMs) * time.Millisecond
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// RunOutcomes returns the member outcomes of one run in recorded order.
func (s *Store) RunOutcomes(ctx context.Context, runID string) ([]models.Outcome, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT member, wave, command, status, reason, exit_code, duration_ms
		 FROM run_outcomes WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []models.Outcome
	for rows.Next() {
		var o models.Outcome
		var status, reason string
		var durationMs int64
		if err := rows.Scan(&o.Member, &o.Wave, &o.Command, &status, &reason, &o.ExitCode, &durationMs); err != nil {
			return nil, fmt.Errorf("scan outcome row: %w", err)
		}
		o.Status = models.Status(status)
		o.Reason = models.FailureReason(reason)
		o.Duration = time.Duration(durationMs) * time.Millisecond
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}
