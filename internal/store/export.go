package store

import (
	"context"
	"fmt"

	"github.com/maryam97/pyactr/internal/experiment"
)

// ExportAll returns stored runs with their trials and full traces,
// oldest first. A non-empty runID restricts the export to that run.
func (s *SQLiteStore) ExportAll(ctx context.Context, runID string) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs`
	var args []interface{}
	if runID != "" {
		query += ` WHERE id = ?`
		args = append(args, runID)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		runs = append(runs, r)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if runID != "" && len(runs) == 0 {
		return nil, fmt.Errorf("run not found: %s", runID)
	}

	for i := range runs {
		trials, err := s.trials(ctx, runs[i].ID)
		if err != nil {
			return nil, err
		}
		for j := range trials {
			trace, err := s.Trace(ctx, TraceParams{TrialID: trials[j].ID})
			if err != nil {
				return nil, err
			}
			trials[j].Trace = trace
		}
		runs[i].Trials = trials
	}
	return runs, nil
}

// Import stores runs from an export. Each run gets fresh identifiers;
// configs, notes, results and traces are kept.
func (s *SQLiteStore) Import(ctx context.Context, runs []Run) (int, error) {
	imported := 0
	for _, r := range runs {
		sum := experiment.Summary{
			Accuracy:  r.Accuracy,
			MeanRT:    r.MeanRT,
			Responses: r.Responses,
		}
		for _, t := range r.Trials {
			sum.Trials = append(sum.Trials, t.Trial)
		}
		if _, err := s.SaveRun(ctx, SaveParams{Note: r.Note, Config: r.Config, Summary: sum}); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}
