package production

import (
	"github.com/maryam97/pyactr/internal/memory"
	"github.com/maryam97/pyactr/internal/model"
)

// Snapshot is the read-only view of buffers a matcher cycle inspects.
type Snapshot interface {
	// State returns the module state reported by the buffer.
	State(buffer string) model.BufferState
	// Chunk returns the chunk held by the buffer, if any.
	Chunk(buffer string) (*memory.Chunk, bool)
}

// Match is a production together with the bindings that satisfied it.
type Match struct {
	Production *Production
	Bindings   Bindings
}

// Matcher evaluates registered productions against snapshots.
type Matcher struct {
	productions []*Production
}

// NewMatcher returns a matcher over productions in registration order.
func NewMatcher(productions []*Production) *Matcher {
	return &Matcher{productions: productions}
}

// Matches returns every production whose conditions hold, in registration order.
func (m *Matcher) Matches(snap Snapshot) []Match {
	var out []Match
	for _, p := range m.productions {
		if b, ok := Evaluate(p, snap); ok {
			out = append(out, Match{Production: p, Bindings: b})
		}
	}
	return out
}

// Evaluate tests a production's conditions left to right. The first
// occurrence of a variable binds it; later occurrences must agree.
func Evaluate(p *Production, snap Snapshot) (Bindings, bool) {
	b := Bindings{}
	for _, c := range p.Conditions {
		var ok bool
		switch c.Kind {
		case Query:
			ok = evalQuery(c, snap)
		case Pattern:
			ok = evalPattern(c, snap, b)
		}
		if !ok {
			return nil, false
		}
	}
	return b, true
}

func evalQuery(c Condition, snap Snapshot) bool {
	for _, q := range c.Queries {
		switch q.Field {
		case "buffer":
			_, full := snap.Chunk(c.Buffer)
			if full != (q.Value == "full") {
				return false
			}
		case "state":
			if snap.State(c.Buffer) != model.BufferState(q.Value) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func evalPattern(c Condition, snap Snapshot, b Bindings) bool {
	ch, ok := snap.Chunk(c.Buffer)
	if !ok {
		return false
	}
	if c.Type != "" && ch.Type != c.Type {
		return false
	}
	if !unify(b, c.Buffer, model.Ref(ch.ID)) {
		return false
	}

	for _, s := range c.Slots {
		v, _ := ch.Get(s.Slot)
		if !s.Term.IsVar() {
			if (v == s.Term.Const) == s.Negate {
				return false
			}
			continue
		}
		if s.Negate {
			bound, ok := b[s.Term.Var]
			if !ok || bound == v {
				return false
			}
			continue
		}
		if v.IsZero() || !unify(b, s.Term.Var, v) {
			return false
		}
	}
	return true
}

func unify(b Bindings, name string, v model.Value) bool {
	if prev, ok := b[name]; ok {
		return prev == v
	}
	b[name] = v
	return true
}
