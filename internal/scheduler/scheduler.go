// Package scheduler implements the discrete-event queue that drives a
// simulation: events are ordered by (time, insertion sequence) and popping
// an event advances the simulated clock to its time.
package scheduler

import (
	"container/heap"
	"errors"
	"fmt"
	"math"

	"github.com/maryam97/pyactr/internal/model"
)

// ErrPastEvent is returned when an event is scheduled before the current time.
var ErrPastEvent = errors.New("event scheduled in the past")

// Scheduler owns the pending events and the simulated clock.
type Scheduler struct {
	q   eventHeap
	seq uint64
	now float64
}

// New returns an empty scheduler at time zero.
func New() *Scheduler {
	return &Scheduler{}
}

// Now returns the current simulated time.
func (s *Scheduler) Now() float64 { return s.now }

// Len is the number of pending events.
func (s *Scheduler) Len() int { return len(s.q) }

// Schedule inserts an event and returns it with its sequence number assigned.
func (s *Scheduler) Schedule(e model.Event) (model.Event, error) {
	if math.IsNaN(e.Time) || e.Time < s.now {
		return e, fmt.Errorf("%w: %v < %v", ErrPastEvent, e.Time, s.now)
	}
	s.seq++
	e.Seq = s.seq
	heap.Push(&s.q, e)
	return e, nil
}

// After schedules e at the current time plus delay.
func (s *Scheduler) After(delay float64, e model.Event) (model.Event, error) {
	e.Time = s.now + delay
	return s.Schedule(e)
}

// Next pops the earliest event and advances the clock to its time.
func (s *Scheduler) Next() (model.Event, error) {
	if len(s.q) == 0 {
		return model.Event{}, model.ErrEmptyQueue
	}
	e := heap.Pop(&s.q).(model.Event)
	s.now = e.Time
	return e, nil
}

// Peek returns the earliest pending event without removing it.
func (s *Scheduler) Peek() (model.Event, bool) {
	if len(s.q) == 0 {
		return model.Event{}, false
	}
	return s.q[0], true
}

// Settled reports whether no pending event is due at the current time.
func (s *Scheduler) Settled() bool {
	next, ok := s.Peek()
	return !ok || next.Time > s.now
}

type eventHeap []model.Event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].Time != h[j].Time {
		return h[i].Time < h[j].Time
	}
	return h[i].Seq < h[j].Seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(model.Event)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}
