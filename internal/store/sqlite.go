package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"

	"github.com/maryam97/pyactr/internal/model"
)

// timeFormat has fixed-width fractions so stored times sort as text.
const timeFormat = "2006-01-02T15:04:05.000000Z07:00"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	entropy *rand.Rand
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &SQLiteStore{
		db:      db,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id          TEXT PRIMARY KEY,
		created_at  TEXT NOT NULL,
		note        TEXT,
		config      TEXT NOT NULL,
		accuracy    REAL NOT NULL DEFAULT 0,
		mean_rt     REAL NOT NULL DEFAULT 0,
		responses   INTEGER NOT NULL DEFAULT 0,
		trial_count INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);

	CREATE TABLE IF NOT EXISTS trials (
		id            TEXT PRIMARY KEY,
		run_id        TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		seq           INTEGER NOT NULL,
		prime         TEXT NOT NULL,
		target        TEXT NOT NULL,
		nonword       INTEGER NOT NULL DEFAULT 0,
		key           TEXT,
		reaction_time REAL NOT NULL DEFAULT 0,
		correct       INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_trials_run ON trials(run_id, seq);

	CREATE TABLE IF NOT EXISTS events (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		trial_id  TEXT NOT NULL REFERENCES trials(id) ON DELETE CASCADE,
		seq       INTEGER NOT NULL,
		time      REAL NOT NULL,
		kind      TEXT NOT NULL,
		buffer    TEXT,
		module    TEXT,
		detail    TEXT NOT NULL DEFAULT '',
		payload   TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_trial ON events(trial_id, seq);

	CREATE VIRTUAL TABLE IF NOT EXISTS events_fts USING fts5(
		detail,
		content=events,
		content_rowid=id
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return err
	}

	// FTS5 triggers for automatic sync
	s.db.Exec(`CREATE TRIGGER IF NOT EXISTS events_ai AFTER INSERT ON events BEGIN
		INSERT INTO events_fts(rowid, detail) VALUES (new.id, new.detail);
	END`)
	s.db.Exec(`CREATE TRIGGER IF NOT EXISTS events_ad AFTER DELETE ON events BEGIN
		INSERT INTO events_fts(events_fts, rowid, detail) VALUES('delete', old.id, old.detail);
	END`)

	return nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, p SaveParams) (*Run, error) {
	now := time.Now().UTC()
	cfgJSON, err := json.Marshal(p.Config)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	sum := p.Summary
	run := &Run{
		ID:         s.newID(),
		CreatedAt:  now,
		Note:       p.Note,
		Config:     p.Config,
		Accuracy:   sum.Accuracy,
		MeanRT:     sum.MeanRT,
		Responses:  sum.Responses,
		TrialCount: len(sum.Trials),
	}

	var notePtr *string
	if p.Note != "" {
		notePtr = &p.Note
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, note, config, accuracy, mean_rt, responses, trial_count)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, now.Format(timeFormat), notePtr, string(cfgJSON),
		run.Accuracy, run.MeanRT, run.Responses, run.TrialCount)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}

	for _, t := range sum.Trials {
		trialID := s.newID()
		var key *string
		if t.Key != "" {
			key = &t.Key
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO trials (id, run_id, seq, prime, target, nonword, key, reaction_time, correct)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			trialID, run.ID, t.Seq, t.Prime, t.Target, t.Nonword, key, t.ReactionTime, t.Correct)
		if err != nil {
			return nil, fmt.Errorf("insert trial: %w", err)
		}

		for _, e := range t.Trace {
			payload, err := json.Marshal(e)
			if err != nil {
				return nil, fmt.Errorf("encode event %d: %w", e.Seq, err)
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO events (trial_id, seq, time, kind, buffer, module, detail, payload)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				trialID, e.Seq, e.Time, e.Kind.String(), e.Buffer, e.Module, e.Detail, string(payload))
			if err != nil {
				return nil, fmt.Errorf("insert event: %w", err)
			}
		}

		st := Trial{ID: trialID, RunID: run.ID, Trial: t, EventCount: len(t.Trace)}
		st.Trace = nil
		run.Trials = append(run.Trials, st)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return run, nil
}

const runColumns = `id, created_at, note, config, accuracy, mean_rt, responses, trial_count`

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	trials, err := s.trials(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Trials = trials
	return &run, nil
}

func (s *SQLiteStore) trials(ctx context.Context, runID string) ([]Trial, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.run_id, t.seq, t.prime, t.target, t.nonword, t.key, t.reaction_time, t.correct,
		        (SELECT COUNT(*) FROM events e WHERE e.trial_id = t.id)
		 FROM trials t WHERE t.run_id = ? ORDER BY t.seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trials []Trial
	for rows.Next() {
		var t Trial
		var key sql.NullString
		if err := rows.Scan(&t.ID, &t.RunID, &t.Seq, &t.Prime, &t.Target, &t.Nonword,
			&key, &t.ReactionTime, &t.Correct, &t.EventCount); err != nil {
			return nil, err
		}
		t.Key = key.String
		trials = append(trials, t)
	}
	return trials, rows.Err()
}

func (s *SQLiteStore) ListRuns(ctx context.Context, p ListParams) ([]Run, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	where := []string{"1 = 1"}
	var args []interface{}
	if p.Note != "" {
		where = append(where, "note LIKE ?")
		args = append(args, "%"+p.Note+"%")
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE `+strings.Join(where, " AND ")+
			` ORDER BY created_at DESC, id DESC LIMIT ?`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Trace(ctx context.Context, p TraceParams) ([]model.Event, error) {
	where := []string{"trial_id = ?"}
	args := []interface{}{p.TrialID}
	if len(p.Kinds) > 0 {
		marks := make([]string, len(p.Kinds))
		for i, k := range p.Kinds {
			marks[i] = "?"
			args = append(args, k.String())
		}
		where = append(where, "kind IN ("+strings.Join(marks, ", ")+")")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM events WHERE `+strings.Join(where, " AND ")+` ORDER BY seq`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var e model.Event
		if err := json.Unmarshal([]byte(payload), &e); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(events) == 0 {
		var n int
		s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trials WHERE id = ?`, p.TrialID).Scan(&n)
		if n == 0 {
			return nil, fmt.Errorf("trial not found: %s", p.TrialID)
		}
	}
	return events, nil
}

func (s *SQLiteStore) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (Run, error) {
	var r Run
	var note sql.NullString
	var createdAt, cfgJSON string

	err := row.Scan(&r.ID, &createdAt, &note, &cfgJSON, &r.Accuracy, &r.MeanRT, &r.Responses, &r.TrialCount)
	if err != nil {
		return r, err
	}

	r.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	if note.Valid {
		r.Note = note.String
	}
	if err := json.Unmarshal([]byte(cfgJSON), &r.Config); err != nil {
		return r, fmt.Errorf("decode config of run %s: %w", r.ID, err)
	}
	return r, nil
}
