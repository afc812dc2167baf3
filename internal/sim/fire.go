package sim

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/maryam97/pyactr/internal/buffer"
	"github.com/maryam97/pyactr/internal/model"
	"github.com/maryam97/pyactr/internal/module"
	"github.com/maryam97/pyactr/internal/production"
)

// cycle runs the matcher over the settled buffers and schedules the firing
// of the selected production, if any. A match that would request through
// a buffer with a request still pending is not a candidate; it becomes one
// again once that request completes.
func (s *Simulation) cycle() {
	matches := s.runnable(s.matcher.Matches(snapshot{s}))
	m, ok := s.model.policy.Select(matches)
	if !ok {
		return
	}
	s.log.Debug("rule selected",
		zap.Float64("time", s.Now()),
		zap.String("production", m.Production.Name),
		zap.Int("matches", len(matches)),
	)
	_, err := s.sched.After(s.model.cfg.RuleFiringTime, model.Event{
		Kind:   model.EventProductionFired,
		Detail: "RULE FIRED: " + m.Production.Name,
		Firing: &model.Firing{
			Production: m.Production.Name,
			Index:      m.Production.Index,
			Bindings:   m.Bindings.Clone(),
		},
	})
	if err != nil {
		s.log.Warn("schedule firing failed", zap.Error(err))
		return
	}
	s.firing = true
}

// runnable drops the matches whose requests target a pending buffer.
func (s *Simulation) runnable(matches []production.Match) []production.Match {
	var out []production.Match
	for _, m := range matches {
		if !s.requestsBusy(m.Production) {
			out = append(out, m)
		}
	}
	return out
}

func (s *Simulation) requestsBusy(p *production.Production) bool {
	for _, a := range p.Actions {
		if a.Kind != production.Request {
			continue
		}
		if b, err := s.buffers.Get(a.Buffer); err == nil && b.Pending() {
			return true
		}
	}
	return false
}

// resolved is one action with its variables instantiated.
type resolved struct {
	action production.Action
	buf    *buffer.Buffer
	slots  []model.Slot
	req    module.Request
}

// fire applies a production's actions. Every action is checked before any
// is applied, so a firing is applied whole or not at all.
func (s *Simulation) fire(f *model.Firing) error {
	if f == nil || f.Index < 0 || f.Index >= len(s.model.productions) {
		return fmt.Errorf("no production for firing")
	}
	p := s.model.productions[f.Index]
	steps, err := s.resolve(p, production.Bindings(f.Bindings))
	if err != nil {
		return err
	}

	touched := map[string]bool{}
	for _, st := range steps {
		touched[st.buf.Name()] = true
		switch st.action.Kind {
		case production.Modify:
			id, _ := st.buf.Chunk()
			next, err := s.store.Modify(id, st.slots, s.Now())
			if err != nil {
				// resolve checked the slots against the type
				return err
			}
			st.buf.Replace(next)
			c, _ := s.store.Get(next)
			s.emit(model.EventBufferChanged, st.buf, "MODIFIED: "+c.String())
		case production.Clear:
			s.clear(st.buf)
		case production.Request:
			if err := s.Request(st.buf.Name(), st.req); err != nil {
				return err
			}
		}
	}

	if s.model.cfg.StrictHarvesting {
		for _, c := range p.Conditions {
			if c.Kind != production.Pattern || touched[c.Buffer] {
				continue
			}
			touched[c.Buffer] = true
			if b, err := s.buffers.Get(c.Buffer); err == nil && !b.Empty() {
				s.clear(b)
			}
		}
	}
	return nil
}

func (s *Simulation) resolve(p *production.Production, b production.Bindings) ([]resolved, error) {
	steps := make([]resolved, 0, len(p.Actions))
	requested := map[string]bool{}
	emptied := map[string]bool{}
	for _, a := range p.Actions {
		buf, err := s.buffers.Get(a.Buffer)
		if err != nil {
			return nil, err
		}
		st := resolved{action: a, buf: buf}

		switch a.Kind {
		case production.Modify:
			id, ok := buf.Chunk()
			if !ok || emptied[a.Buffer] {
				return nil, fmt.Errorf("modify %s: buffer is empty", a.Buffer)
			}
			c, _ := s.store.Get(id)
			t, _ := s.store.Type(c.Type)
			for _, sl := range a.Slots {
				if !t.Has(sl.Slot) {
					return nil, fmt.Errorf("modify %s: %w: type %q has no slot %q", a.Buffer, model.ErrTypeMismatch, c.Type, sl.Slot)
				}
				v, err := b.Resolve(sl.Term)
				if err != nil {
					return nil, err
				}
				st.slots = append(st.slots, model.Slot{Name: sl.Slot, Value: v})
			}
		case production.Request:
			if buf.Pending() || requested[a.Buffer] {
				return nil, fmt.Errorf("request %s: %w", a.Buffer, model.ErrBufferBusy)
			}
			requested[a.Buffer] = true
			emptied[a.Buffer] = true
			st.req = module.Request{Buffer: a.Buffer, Type: a.Type}
			for _, sl := range a.Slots {
				v, err := b.Resolve(sl.Term)
				if err != nil {
					return nil, err
				}
				st.req.Args = append(st.req.Args, module.Arg{Slot: sl.Slot, Value: v, Negate: sl.Negate})
			}
		case production.Clear:
			emptied[a.Buffer] = true
		}
		steps = append(steps, st)
	}
	return steps, nil
}
