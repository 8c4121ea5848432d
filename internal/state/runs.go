package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded pipeline execution.
type Run struct {
	ID          string
	Environment string
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
	RowsIn      int
	RowsOut     int
	ColumnsOut  int
}

// Duration returns the elapsed run time, or zero while the run is in progress.
func (r *Run) Duration() time.Duration {
	if r.CompletedAt == nil {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// Totals are the Dataset sizes recorded when a run completes.
type Totals struct {
	RowsIn     int
	RowsOut    int
	ColumnsOut int
}

// StepRun is the Dataset shape after one step of a run.
type StepRun struct {
	Position int
	Name     string
	Rows     int
	Columns  int
}

// QualityCount is the number of values of one anomaly kind handled by one step.
type QualityCount struct {
	Position int
	Step     string
	Kind     string
	Count    int
}

// CreateRun starts a new run in the running state.
func (s *SQLiteStore) CreateRun(ctx context.Context, env string) (*Run, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}

	run := &Run{
		ID:          generateID(),
		Environment: env,
		Status:      RunStatusRunning,
		StartedAt:   time.Now().UTC(),
	}
	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("environment", env))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, environment, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Environment, string(run.Status), formatTime(run.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run completed and records its totals.
func (s *SQLiteStore) CompleteRun(ctx context.Context, id string, totals Totals) error {
	if s.db == nil {
		return ErrNotOpened
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ?, rows_in = ?, rows_out = ?, columns_out = ? WHERE id = ?`,
		string(RunStatusCompleted), formatTime(time.Now()), totals.RowsIn, totals.RowsOut, totals.ColumnsOut, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return requireAffected(res, id)
}

// FailRun marks a run failed with the cause.
func (s *SQLiteStore) FailRun(ctx context.Context, id string, cause error) error {
	if s.db == nil {
		return ErrNotOpened
	}
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(RunStatusFailed), formatTime(time.Now()), msg, id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark run failed: %w", err)
	}
	return requireAffected(res, id)
}

func requireAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return runNotFound(id)
	}
	return nil
}

// RecordSteps stores the per-step statistics of a run in one transaction.
func (s *SQLiteStore) RecordSteps(ctx context.Context, id string, steps []StepRun) error {
	return s.inTx(ctx, "record steps", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO step_runs (run_id, position, name, rows, columns) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, st := range steps {
			if _, err := stmt.ExecContext(ctx, id, st.Position, st.Name, st.Rows, st.Columns); err != nil {
				return fmt.Errorf("step %s: %w", st.Name, err)
			}
		}
		return nil
	})
}

// RecordQuality stores the data-quality counts of a run in one transaction.
func (s *SQLiteStore) RecordQuality(ctx context.Context, id string, counts []QualityCount) error {
	return s.inTx(ctx, "record quality counts", func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO quality_counts (run_id, position, step, kind, count) VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, q := range counts {
			if _, err := stmt.ExecContext(ctx, id, q.Position, q.Step, q.Kind, q.Count); err != nil {
				return fmt.Errorf("%s/%s: %w", q.Step, q.Kind, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) inTx(ctx context.Context, what string, fn func(*sql.Tx) error) error {
	if s.db == nil {
		return ErrNotOpened
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to %s: %w", what, err)
	}
	return nil
}

const runColumns = `id, environment, status, started_at, completed_at, error, rows_in, rows_out, columns_out`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(sc rowScanner) (*Run, error) {
	var (
		run         Run
		status      string
		startedAt   string
		completedAt sql.NullString
		errMsg      sql.NullString
	)
	if err := sc.Scan(&run.ID, &run.Environment, &status, &startedAt, &completedAt, &errMsg,
		&run.RowsIn, &run.RowsOut, &run.ColumnsOut); err != nil {
		return nil, err
	}
	run.Status = RunStatus(status)

	t, err := parseTime(startedAt)
	if err != nil {
		return nil, err
	}
	run.StartedAt = t
	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return nil, err
		}
		run.CompletedAt = &t
	}
	run.Error = errMsg.String
	return &run, nil
}

// GetRun retrieves a run by ID. A missing run yields an error matching core.ErrNotFound.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, runNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, most recent first. A non-positive limit returns all runs.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetSteps returns the step statistics of a run in execution order.
func (s *SQLiteStore) GetSteps(ctx context.Context, id string) ([]StepRun, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, name, rows, columns FROM step_runs WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get steps: %w", err)
	}
	defer rows.Close()

	var steps []StepRun
	for rows.Next() {
		var st StepRun
		if err := rows.Scan(&st.Position, &st.Name, &st.Rows, &st.Columns); err != nil {
			return nil, fmt.Errorf("failed to scan step: %w", err)
		}
		steps = append(steps, st)
	}
	return steps, rows.Err()
}

// GetQuality returns the data-quality counts of a run ordered by step then kind.
func (s *SQLiteStore) GetQuality(ctx context.Context, id string) ([]QualityCount, error) {
	if s.db == nil {
		return nil, ErrNotOpened
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT position, step, kind, count FROM quality_counts WHERE run_id = ? ORDER BY position, kind`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get quality counts: %w", err)
	}
	defer rows.Close()

	var counts []QualityCount
	for rows.Next() {
		var q QualityCount
		if err := rows.Scan(&q.Position, &q.Step, &q.Kind, &q.Count); err != nil {
			return nil, fmt.Errorf("failed to scan quality count: %w", err)
		}
		counts = append(counts, q)
	}
	return counts, rows.Err()
}
