package store

import (
	"context"
	"strings"
	"testing"

	"github.com/maryam97/pyactr/internal/model"
)

func TestSearchEvents(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	run := saveRun(t, s, "")

	tests := []struct {
		name  string
		p     SearchParams
		count int
	}{
		{"key presses", SearchParams{Query: "KEY PRESSED"}, 3},
		{"pressed F", SearchParams{Query: "KEY PRESSED: F"}, 1},
		{"failed retrieval", SearchParams{Query: "RETRIEVED: None"}, 1},
		{"rule by name", SearchParams{Query: "target_not_found", Kind: model.EventProductionFired.String()}, 1},
		{"limit", SearchParams{Query: "RULE FIRED", Limit: 2}, 2},
		{"other run", SearchParams{Query: "KEY PRESSED", RunID: "missing"}, 0},
		{"this run", SearchParams{Query: "KEY PRESSED", RunID: run.ID}, 3},
		{"no match", SearchParams{Query: "zebra"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := s.SearchEvents(ctx, tt.p)
			if err != nil {
				t.Fatalf("search: %v", err)
			}
			if len(hits) != tt.count {
				t.Fatalf("expected %d hits, got %d", tt.count, len(hits))
			}
			for _, h := range hits {
				if h.RunID != run.ID {
					t.Errorf("hit from run %s", h.RunID)
				}
				if !strings.Contains(strings.ToLower(h.Event.Detail), strings.ToLower(strings.Fields(tt.p.Query)[0])) {
					t.Errorf("detail %q does not match %q", h.Event.Detail, tt.p.Query)
				}
			}
		})
	}
}

func TestSearchOrder(t *testing.T) {
	s := newTestStore(t)
	saveRun(t, s, "")

	hits, err := s.SearchEvents(context.Background(), SearchParams{Query: "KEY PRESSED"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	for i, h := range hits {
		if h.Trial != i+1 {
			t.Errorf("hit %d from trial %d", i, h.Trial)
		}
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.SearchEvents(context.Background(), SearchParams{Query: "  "}); err == nil {
		t.Error("expected error for empty query")
	}
}
