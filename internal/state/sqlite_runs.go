package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/leapstack-labs/driftnet/pkg/core"
)

const defaultListLimit = 20

// --- Check runs ---

// RecordCheck stores a check run and its drift records in one transaction.
// An empty ID and zero StartedAt are filled in.
func (s *SQLiteStore) RecordCheck(ctx context.Context, run *CheckRun, drifts []core.Drift) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if run.ID == "" {
		run.ID = generateID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO check_runs
			(id, contract_path, actual, live, started_at, missing_count, added_count, skipped_sources, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.ContractPath, run.Actual, run.Live, run.StartedAt,
		run.Missing, run.Added, run.Skipped, run.Failed,
	)
	if err != nil {
		return fmt.Errorf("failed to record check run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO drift_records (run_id, seq, kind, source, column_name, lines, message)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare drift insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, d := range drifts {
		lines := d.Lines
		if lines == nil {
			lines = []int{}
		}
		encoded, err := json.Marshal(lines)
		if err != nil {
			return fmt.Errorf("failed to encode lines: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, run.ID, i, string(d.Kind), d.Source, d.Column, string(encoded), d.Message); err != nil {
			return fmt.Errorf("failed to record drift: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit check run: %w", err)
	}
	s.logger.Debug("recorded check run", "id", run.ID, "records", len(drifts))
	return nil
}

const checkColumns = `id, contract_path, actual, live, started_at, missing_count, added_count, skipped_sources, failed`

func scanCheck(row interface{ Scan(...any) error }) (*CheckRun, error) {
	run := &CheckRun{}
	if err := row.Scan(&run.ID, &run.ContractPath, &run.Actual, &run.Live, &run.StartedAt,
		&run.Missing, &run.Added, &run.Skipped, &run.Failed); err != nil {
		return nil, err
	}
	return run, nil
}

// ListChecks returns the most recent check runs, newest first.
// A limit of zero or less uses a default.
func (s *SQLiteStore) ListChecks(ctx context.Context, limit int) ([]CheckRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+checkColumns+` FROM check_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list check runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []CheckRun
	for rows.Next() {
		run, err := scanCheck(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan check run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetCheck returns a check run by ID. A unique ID prefix is accepted.
func (s *SQLiteStore) GetCheck(ctx context.Context, id string) (*CheckRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+checkColumns+` FROM check_runs WHERE id = ? OR id LIKE ? || '%' ORDER BY id = ? DESC LIMIT 2`,
		id, id, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get check run: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var found []*CheckRun
	for rows.Next() {
		run, err := scanCheck(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan check run: %w", err)
		}
		found = append(found, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	switch {
	case len(found) == 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case found[0].ID == id || len(found) == 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", id)
	}
}

// GetCheckDrifts returns the drift records of a check run in their
// original order.
func (s *SQLiteStore) GetCheckDrifts(ctx context.Context, id string) ([]core.Drift, error) {
	run, err := s.GetCheck(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, source, column_name, lines, message FROM drift_records WHERE run_id = ? ORDER BY seq`,
		run.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get drift records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	drifts := []core.Drift{}
	for rows.Next() {
		var d core.Drift
		var kind, lines string
		if err := rows.Scan(&kind, &d.Source, &d.Column, &lines, &d.Message); err != nil {
			return nil, fmt.Errorf("failed to scan drift record: %w", err)
		}
		d.Kind = core.DriftKind(kind)
		if err := json.Unmarshal([]byte(lines), &d.Lines); err != nil {
			return nil, fmt.Errorf("failed to decode lines: %w", err)
		}
		drifts = append(drifts, d)
	}
	return drifts, rows.Err()
}

// --- Extract runs ---

// RecordExtract stores an extract run.
func (s *SQLiteStore) RecordExtract(ctx context.Context, run *ExtractRun) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if run.ID == "" {
		run.ID = generateID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO extract_runs
			(id, output_path, started_at, files_scanned, files_skipped, source_count, column_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.OutputPath, run.StartedAt, run.FilesScanned, run.FilesSkipped, run.Sources, run.Columns,
	)
	if err != nil {
		return fmt.Errorf("failed to record extract run: %w", err)
	}
	return nil
}

// ListExtracts returns the most recent extract runs, newest first.
func (s *SQLiteStore) ListExtracts(ctx context.Context, limit int) ([]ExtractRun, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, output_path, started_at, files_scanned, files_skipped, source_count, column_count
		FROM extract_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list extract runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []ExtractRun
	for rows.Next() {
		var r ExtractRun
		if err := rows.Scan(&r.ID, &r.OutputPath, &r.StartedAt, &r.FilesScanned, &r.FilesSkipped, &r.Sources, &r.Columns); err != nil {
			return nil, fmt.Errorf("failed to scan extract run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// IsNotFound reports whether err means a run does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, sql.ErrNoRows)
}
