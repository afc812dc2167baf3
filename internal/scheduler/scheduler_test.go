package scheduler

import (
	"errors"
	"testing"

	"github.com/maryam97/pyactr/internal/model"
)

func TestOrderByTimeThenInsertion(t *testing.T) {
	s := New()
	s.Schedule(model.Event{Time: 0.2, Detail: "late"})
	s.Schedule(model.Event{Time: 0.1, Detail: "first"})
	s.Schedule(model.Event{Time: 0.1, Detail: "second"})
	s.Schedule(model.Event{Time: 0, Detail: "zero"})

	want := []string{"zero", "first", "second", "late"}
	for _, w := range want {
		e, err := s.Next()
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		if e.Detail != w {
			t.Errorf("expected %q, got %q", w, e.Detail)
		}
		if s.Now() != e.Time {
			t.Errorf("clock %v, event time %v", s.Now(), e.Time)
		}
	}

	if _, err := s.Next(); !errors.Is(err, model.ErrEmptyQueue) {
		t.Errorf("expected ErrEmptyQueue, got %v", err)
	}
}

func TestScheduleInPast(t *testing.T) {
	s := New()
	s.Schedule(model.Event{Time: 1})
	s.Next()

	if _, err := s.Schedule(model.Event{Time: 0.5}); !errors.Is(err, ErrPastEvent) {
		t.Errorf("expected ErrPastEvent, got %v", err)
	}
}

func TestAfterAndSettled(t *testing.T) {
	s := New()
	s.Schedule(model.Event{Time: 0.3})
	s.Next()

	e, err := s.After(0.05, model.Event{Detail: "x"})
	if err != nil {
		t.Fatalf("after: %v", err)
	}
	if e.Time != 0.35 {
		t.Errorf("expected time 0.35, got %v", e.Time)
	}
	if !s.Settled() {
		t.Error("expected settled with only a future event pending")
	}

	s.After(0, model.Event{Detail: "now"})
	if s.Settled() {
		t.Error("expected unsettled with an event due now")
	}
}

func TestSequenceAssigned(t *testing.T) {
	s := New()
	a, _ := s.Schedule(model.Event{Time: 1})
	b, _ := s.Schedule(model.Event{Time: 1})
	if a.Seq == 0 || b.Seq <= a.Seq {
		t.Errorf("expected increasing sequence numbers, got %d and %d", a.Seq, b.Seq)
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 pending, got %d", s.Len())
	}
}
