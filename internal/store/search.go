package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/maryam97/pyactr/internal/model"
)

// SearchParams holds parameters for searching stored events.
type SearchParams struct {
	Query string
	RunID string
	Kind  string
	Limit int
}

// EventHit is an event whose detail matched a search.
type EventHit struct {
	RunID   string      `json:"run_id"`
	TrialID string      `json:"trial_id"`
	Trial   int         `json:"trial"`
	Event   model.Event `json:"event"`
}

// ftsPhrase quotes a free-text query as a single FTS5 phrase so the
// colons and parentheses of event details are not read as operators.
func ftsPhrase(q string) string {
	return `"` + strings.ReplaceAll(q, `"`, `""`) + `"`
}

// SearchEvents finds events whose detail contains the query phrase,
// earliest run first and in trace order within a trial.
func (s *SQLiteStore) SearchEvents(ctx context.Context, p SearchParams) ([]EventHit, error) {
	if strings.TrimSpace(p.Query) == "" {
		return nil, fmt.Errorf("empty search query")
	}
	limit := p.Limit
	if limit <= 0 {
		limit = 20
	}

	where := []string{"events_fts MATCH ?"}
	args := []interface{}{ftsPhrase(p.Query)}
	if p.RunID != "" {
		where = append(where, "t.run_id = ?")
		args = append(args, p.RunID)
	}
	if p.Kind != "" {
		where = append(where, "e.kind = ?")
		args = append(args, p.Kind)
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT t.run_id, t.id, t.seq, e.payload
		FROM events_fts
		INNER JOIN events e ON e.id = events_fts.rowid
		INNER JOIN trials t ON t.id = e.trial_id
		INNER JOIN runs r ON r.id = t.run_id
		WHERE %s
		ORDER BY r.created_at, t.seq, e.seq
		LIMIT ?`, strings.Join(where, " AND "))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []EventHit
	for rows.Next() {
		var h EventHit
		var payload string
		if err := rows.Scan(&h.RunID, &h.TrialID, &h.Trial, &payload); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(payload), &h.Event); err != nil {
			return nil, fmt.Errorf("decode event: %w", err)
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}
