package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// RunRecord is one executed scenario variation.
type RunRecord struct {
	ID          string       `json:"id"`
	Seq         int64        `json:"seq"`
	Scenario    string       `json:"scenario"`
	Variation   string       `json:"variation"`
	Pass        bool         `json:"pass"`
	Errors      []string     `json:"errors,omitempty"`
	FixtureHash string       `json:"fixture_hash,omitempty"`
	Steps       []StepRecord `json:"steps,omitempty"`
}

// StepRecord is one executed step of a run.
type StepRecord struct {
	Seq   int64  `json:"seq"`
	Kind  string `json:"kind"`
	Error string `json:"error,omitempty"`
}

// RecordRun writes a run and its steps in one transaction and returns the
// assigned seq. Run seq values increase by one per recorded run.
func (s *Store) RecordRun(ctx context.Context, run RunRecord) (int64, error) {
	errs := run.Errors
	if errs == nil {
		errs = []string{}
	}
	errsJSON, err := json.Marshal(errs)
	if err != nil {
		return 0, fmt.Errorf("record run: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("record run: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, seq, scenario, variation, pass, errors, fixture_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, seq, run.Scenario, run.Variation, run.Pass, string(errsJSON), run.FixtureHash)
	if err != nil {
		return 0, fmt.Errorf("record run %s: %w", run.ID, err)
	}

	for _, st := range run.Steps {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_steps (run_id, seq, kind, error) VALUES (?, ?, ?, ?)
		`, run.ID, st.Seq, st.Kind, st.Error)
		if err != nil {
			return 0, fmt.Errorf("record run %s: step %d: %w", run.ID, st.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("record run %s: commit: %w", run.ID, err)
	}
	return seq, nil
}

// ListRuns returns recorded runs, oldest first. An empty scenario lists
// every run.
func (s *Store) ListRuns(ctx context.Context, scenario string) ([]RunRecord, error) {
	query := `
		SELECT id, seq, scenario, variation, pass, errors, fixture_hash
		FROM runs`
	var args []any
	if scenario != "" {
		query += ` WHERE scenario = ?`
		args = append(args, scenario)
	}
	query += ` ORDER BY seq ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			r        RunRecord
			errsJSON string
		)
		if err := rows.Scan(&r.ID, &r.Seq, &r.Scenario, &r.Variation, &r.Pass, &errsJSON, &r.FixtureHash); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		if err := json.Unmarshal([]byte(errsJSON), &r.Errors); err != nil {
			return nil, fmt.Errorf("list runs: errors of %s: %w", r.ID, err)
		}
		if len(r.Errors) == 0 {
			r.Errors = nil
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	for i := range runs {
		steps, err := s.runSteps(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Steps = steps
	}
	return runs, nil
}

func (s *Store) runSteps(ctx context.Context, runID string) ([]StepRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, error FROM run_steps
		WHERE run_id = ?
		ORDER BY seq ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list run steps %s: %w", runID, err)
	}
	defer rows.Close()

	var steps []StepRecord
	for rows.Next() {
		var st StepRecord
		if err := rows.Scan(&st.Seq, &st.Kind, &st.Error); err != nil {
			return nil, fmt.Errorf("list run steps %s: %w", runID, err)
		}
		steps = append(steps, st)
	}
	return steps, rows.Err()
}
