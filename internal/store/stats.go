package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath      string      `json:"db_path"`
	DBSizeBytes int64       `json:"db_size_bytes"`
	Runs        int         `json:"runs"`
	Trials      int         `json:"trials"`
	Responded   int         `json:"responded"`
	Events      int         `json:"events"`
	Kinds       []KindStats `json:"kinds"`
}

// KindStats holds per-kind event counts.
type KindStats struct {
	Kind  string `json:"kind"`
	Count int    `json:"count"`
}

// Stats returns database statistics.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	// DB file size
	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs`).Scan(&st.Runs)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trials`).Scan(&st.Trials)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trials WHERE key IS NOT NULL`).Scan(&st.Responded)
	s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&st.Events)

	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, COUNT(*) AS cnt
		FROM events
		GROUP BY kind ORDER BY cnt DESC, kind`)
	if err != nil {
		return st, err
	}
	defer rows.Close()

	for rows.Next() {
		var k KindStats
		rows.Scan(&k.Kind, &k.Count)
		st.Kinds = append(st.Kinds, k)
	}

	return st, rows.Err()
}
