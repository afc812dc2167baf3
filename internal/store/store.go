// Package store persists experiment runs, their trials, and the event
// trace of every trial.
package store

import (
	"context"
	"time"

	"github.com/maryam97/pyactr/internal/config"
	"github.com/maryam97/pyactr/internal/experiment"
	"github.com/maryam97/pyactr/internal/model"
)

// Run is one stored experiment run.
type Run struct {
	ID         string        `json:"id"`
	CreatedAt  time.Time     `json:"created_at"`
	Note       string        `json:"note,omitempty"`
	Config     config.Config `json:"config"`
	Accuracy   float64       `json:"accuracy"`
	MeanRT     float64       `json:"mean_rt"`
	Responses  int           `json:"responses"`
	TrialCount int           `json:"trial_count"`
	Trials     []Trial       `json:"trials,omitempty"`
}

// Trial is one stored trial of a run.
type Trial struct {
	ID    string `json:"id"`
	RunID string `json:"run_id"`
	experiment.Trial
	EventCount int `json:"event_count"`
}

// SaveParams holds parameters for storing a run.
type SaveParams struct {
	Note    string
	Config  config.Config
	Summary experiment.Summary
}

// ListParams holds parameters for listing runs.
type ListParams struct {
	Limit int
	// Note filters runs whose note contains the substring.
	Note string
}

// TraceParams holds parameters for reading a trial's events.
type TraceParams struct {
	TrialID string
	Kinds   []model.EventKind
}

// Store defines the run storage interface.
type Store interface {
	// SaveRun stores a run with its trials and their traces.
	SaveRun(ctx context.Context, p SaveParams) (*Run, error)

	// GetRun returns a run and its trials, without traces.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns lists runs, newest first.
	ListRuns(ctx context.Context, p ListParams) ([]Run, error)

	// Trace returns the stored events of a trial in order.
	Trace(ctx context.Context, p TraceParams) ([]model.Event, error)

	// DeleteRun removes a run with its trials and events.
	DeleteRun(ctx context.Context, id string) error

	// Close closes the store.
	Close() error
}
