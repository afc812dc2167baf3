package sim

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/maryam97/pyactr/internal/config"
	"github.com/maryam97/pyactr/internal/model"
	"github.com/maryam97/pyactr/internal/module"
	"github.com/maryam97/pyactr/internal/production"
)

var testTypes = []model.ChunkType{
	{Name: "goal", Slots: []string{"state"}},
	{Name: "meaning", Slots: []string{"word"}},
}

// threeWay registers three rules that all match state=start.
const threeWay = `
rule first
    =goal>
        isa     goal
        state   start
==>
    =goal>
        state   one

rule second utility=5
    =goal>
        isa     goal
        state   start
==>
    =goal>
        state   two

rule third utility=1
    =goal>
        isa     goal
        state   start
==>
    =goal>
        state   three
`

func newTestSim(t *testing.T, cfg config.Config, rules string, opts ...Option) *Simulation {
	t.Helper()
	ps, err := production.ParseRules(rules)
	if err != nil {
		t.Fatalf("parse rules: %v", err)
	}
	m, err := NewModel(cfg, testTypes, ps)
	if err != nil {
		t.Fatalf("new model: %v", err)
	}
	s, err := New(m, opts...)
	if err != nil {
		t.Fatalf("new simulation: %v", err)
	}
	return s
}

func setGoal(t *testing.T, s *Simulation, state string) model.ChunkID {
	t.Helper()
	id, err := s.CreateChunk("goal", model.Slot{Name: "state", Value: model.Sym(state)})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if err := s.SetBuffer("goal", id, ModuleGoal); err != nil {
		t.Fatalf("set goal: %v", err)
	}
	return id
}

func goalState(t *testing.T, s *Simulation) string {
	t.Helper()
	id, ok := s.ReadBuffer("goal")
	if !ok {
		t.Fatal("goal buffer empty")
	}
	c, _ := s.Chunk(id)
	v, _ := c.Get("state")
	return v.Symbol
}

func drain(t *testing.T, s *Simulation) {
	t.Helper()
	for i := 0; i < 1000; i++ {
		if _, err := s.Step(); err != nil {
			if errors.Is(err, model.ErrEmptyQueue) {
				return
			}
			t.Fatalf("step: %v", err)
		}
	}
	t.Fatal("simulation did not terminate")
}

func firings(trace []model.Event) []model.Event {
	var out []model.Event
	for _, e := range trace {
		if e.Kind == model.EventProductionFired {
			out = append(out, e)
		}
	}
	return out
}

func TestRuleOrderFiresEarliestRegistered(t *testing.T) {
	s := newTestSim(t, config.Default(), threeWay)
	setGoal(t, s, "start")
	drain(t, s)

	fired := firings(s.Trace())
	if len(fired) != 1 {
		t.Fatalf("expected exactly 1 firing, got %d", len(fired))
	}
	if fired[0].Firing.Production != "first" {
		t.Errorf("expected first to fire, got %s", fired[0].Firing.Production)
	}
	if got := goalState(t, s); got != "one" {
		t.Errorf("expected goal state one, got %s", got)
	}
	if fired[0].Time != 0.05 {
		t.Errorf("expected firing at rule firing time 0.05, got %v", fired[0].Time)
	}
}

func TestUtilityPolicyFiresHighestUtility(t *testing.T) {
	cfg := config.Default()
	cfg.ConflictResolution = "utility"
	s := newTestSim(t, cfg, threeWay)
	setGoal(t, s, "start")
	drain(t, s)

	fired := firings(s.Trace())
	if len(fired) != 1 || fired[0].Firing.Production != "second" {
		t.Fatalf("expected only second to fire, got %+v", fired)
	}
	if got := goalState(t, s); got != "two" {
		t.Errorf("expected goal state two, got %s", got)
	}
}

func TestStepEmptyQueue(t *testing.T) {
	s := newTestSim(t, config.Default(), threeWay)
	if _, err := s.Step(); !errors.Is(err, model.ErrEmptyQueue) {
		t.Errorf("expected ErrEmptyQueue, got %v", err)
	}
}

func TestBufferBusyOnSecondRequest(t *testing.T) {
	s := newTestSim(t, config.Default(), threeWay)
	req := module.Request{Type: "meaning", Args: []module.Arg{{Slot: "word", Value: model.Sym("body")}}}
	if err := s.Request("retrieval", req); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if st, _ := s.BufferState("retrieval"); st != model.StateBusy {
		t.Errorf("expected busy after request, got %s", st)
	}
	if err := s.Request("retrieval", req); !errors.Is(err, model.ErrBufferBusy) {
		t.Errorf("expected ErrBufferBusy on second request, got %v", err)
	}

	id, _ := s.CreateChunk("meaning", model.Slot{Name: "word", Value: model.Sym("body")})
	if err := s.SetBuffer("retrieval", id, ModuleRetrieval); !errors.Is(err, model.ErrBufferBusy) {
		t.Errorf("expected ErrBufferBusy on set, got %v", err)
	}

	drain(t, s)
	if st, _ := s.BufferState("retrieval"); st != model.StateError {
		t.Errorf("expected error state after failed retrieval, got %s", st)
	}
	if err := s.Request("retrieval", req); err != nil {
		t.Errorf("expected request to be accepted after completion, got %v", err)
	}
}

func TestSetBufferErrors(t *testing.T) {
	s := newTestSim(t, config.Default(), threeWay)
	id, _ := s.CreateChunk("goal", model.Slot{Name: "state", Value: model.Sym("x")})
	if err := s.SetBuffer("nowhere", id, ModuleGoal); !errors.Is(err, model.ErrUnknownBuffer) {
		t.Errorf("expected ErrUnknownBuffer, got %v", err)
	}
	if err := s.SetBuffer("goal", id, ModuleMotor); !errors.Is(err, model.ErrWrongModule) {
		t.Errorf("expected ErrWrongModule, got %v", err)
	}
	if err := s.SetBuffer("goal", 999, ModuleGoal); !errors.Is(err, model.ErrUnknownChunk) {
		t.Errorf("expected ErrUnknownChunk, got %v", err)
	}
	if _, err := s.CreateChunk("goal", model.Slot{Name: "color", Value: model.Sym("red")}); !errors.Is(err, model.ErrTypeMismatch) {
		t.Errorf("expected ErrTypeMismatch, got %v", err)
	}
}

func TestClearThenSetLeavesNoResidue(t *testing.T) {
	rules := `
rule stale
    =goal>
        isa     goal
        state   old
==>
    =goal>
        state   wrong
`
	s := newTestSim(t, config.Default(), rules)
	setGoal(t, s, "old")
	if err := s.ClearBuffer("goal"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	fresh := setGoal(t, s, "new")
	drain(t, s)

	if id, ok := s.ReadBuffer("goal"); !ok || id != fresh {
		t.Fatalf("expected goal to hold %d, got %d (%v)", fresh, id, ok)
	}
	if len(firings(s.Trace())) != 0 {
		t.Error("expected no firing on the cleared chunk")
	}
	// the cleared goal was harvested into declarative memory
	if s.Declarative().Len() != 1 {
		t.Errorf("expected 1 harvested chunk, got %d", s.Declarative().Len())
	}
}

func TestClearDiscardsInFlightCompletion(t *testing.T) {
	s := newTestSim(t, config.Default(), threeWay)
	id, _ := s.CreateChunk("meaning", model.Slot{Name: "word", Value: model.Sym("body")})
	// one presentation a second ago gives base-level activation 0
	if err := s.Declarative().Add(id, -1); err != nil {
		t.Fatal(err)
	}
	req := module.Request{Type: "meaning", Args: []module.Arg{{Slot: "word", Value: model.Sym("body")}}}
	if err := s.Request("retrieval", req); err != nil {
		t.Fatalf("request: %v", err)
	}
	if err := s.ClearBuffer("retrieval"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	drain(t, s)

	if _, ok := s.ReadBuffer("retrieval"); ok {
		t.Error("expected stale completion to be discarded")
	}
	var completed bool
	for _, e := range s.Trace() {
		if e.Kind == model.EventCompletion && e.Buffer == "retrieval" {
			completed = true
		}
	}
	if !completed {
		t.Error("expected the completion event to still fire")
	}
	if st, _ := s.BufferState("retrieval"); st == model.StateBusy {
		t.Error("expected module state to leave busy on completion")
	}
}

const askRule = `
rule ask
    =goal>
        isa     goal
        state   start
==>
    =goal>
        state   asked
    +retrieval>
        isa     meaning
        word    body
`

func TestFiringRejectedWhole(t *testing.T) {
	s := newTestSim(t, config.Default(), askRule)
	setGoal(t, s, "start")

	// applying the goal change selects ask while retrieval is still free
	if _, err := s.Step(); err != nil {
		t.Fatal(err)
	}
	// a request issued between selection and firing makes retrieval busy;
	// a failed retrieval takes latency_factor * exp(-threshold) seconds
	if err := s.Request("retrieval", module.Request{Type: "meaning"}); err != nil {
		t.Fatal(err)
	}

	var fired model.Event
	for {
		e, err := s.Step()
		if err != nil {
			t.Fatalf("step: %v", err)
		}
		if e.Kind == model.EventProductionFired {
			fired = e
			break
		}
	}
	if !fired.Firing.Rejected {
		t.Error("expected firing to be rejected")
	}
	if got := goalState(t, s); got != "start" {
		t.Errorf("expected goal unchanged, got %s", got)
	}
}

func TestBusyRequestTargetWaitsForCompletion(t *testing.T) {
	cfg := config.Default()
	s := newTestSim(t, cfg, askRule)
	if err := s.Request("retrieval", module.Request{Type: "meaning"}); err != nil {
		t.Fatal(err)
	}
	setGoal(t, s, "start")
	drain(t, s)

	fired := firings(s.Trace())
	if len(fired) != 1 {
		t.Fatalf("expected one firing, got %d", len(fired))
	}
	if fired[0].Firing.Rejected {
		t.Error("expected the firing to apply")
	}
	// ask becomes a candidate only when the failed retrieval completes
	failAt := cfg.LatencyFactor * math.Exp(-cfg.RetrievalThreshold)
	if want := failAt + cfg.RuleFiringTime; math.Abs(fired[0].Time-want) > 1e-9 {
		t.Errorf("expected firing at %v, got %v", want, fired[0].Time)
	}
	if got := goalState(t, s); got != "asked" {
		t.Errorf("expected goal asked, got %s", got)
	}
}

func TestStrictHarvesting(t *testing.T) {
	rules := `
rule look
    =goal>
        isa     goal
        state   start
    =imaginal>
        isa     meaning
==>
    =goal>
        state   done
`
	cfg := config.Default()
	cfg.StrictHarvesting = true
	s := newTestSim(t, cfg, rules)
	setGoal(t, s, "start")
	word, _ := s.CreateChunk("meaning", model.Slot{Name: "word", Value: model.Sym("body")})
	if err := s.SetBuffer("imaginal", word, ModuleImaginal); err != nil {
		t.Fatal(err)
	}
	drain(t, s)

	if _, ok := s.ReadBuffer("imaginal"); ok {
		t.Error("expected imaginal to be harvested after the firing")
	}
	if got := goalState(t, s); got != "done" {
		t.Errorf("expected modified goal to stay, got %s", got)
	}
	if !s.Declarative().Contains(word) {
		t.Error("expected harvested chunk in declarative memory")
	}
}

func TestRunStopsAtMaxTime(t *testing.T) {
	rules := `
rule loop
    =goal>
        isa     goal
        state   start
==>
    =goal>
        state   start
`
	cfg := config.Default()
	cfg.MaxTime = 1.025
	s := newTestSim(t, cfg, rules)
	setGoal(t, s, "start")
	res, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Responded() {
		t.Errorf("expected no response, got %+v", res)
	}
	if s.Now() > cfg.MaxTime {
		t.Errorf("expected to stop by max_time, now=%v", s.Now())
	}
	if n := len(firings(s.Trace())); n != 20 {
		t.Errorf("expected 20 firings in one second, got %d", n)
	}
}

func TestRunHonorsContext(t *testing.T) {
	s := newTestSim(t, config.Default(), threeWay)
	setGoal(t, s, "start")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNewModelRejectsUnknownNames(t *testing.T) {
	tests := []struct {
		name  string
		rules string
	}{
		{"unknown buffer", "rule r\n    =nowhere>\n        isa goal\n==>\n    ~goal>\n"},
		{"unknown type", "rule r\n    =goal>\n        isa plan\n==>\n    ~goal>\n"},
		{"unknown request type", "rule r\n    =goal>\n        isa goal\n==>\n    +retrieval>\n        isa plan\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps, err := production.ParseRules(tt.rules)
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			_, err = NewModel(config.Default(), testTypes, ps)
			var pe *model.RuleParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected RuleParseError, got %v", err)
			}
			if pe.Rule != "r" {
				t.Errorf("expected rule name r, got %q", pe.Rule)
			}
		})
	}

	if _, err := NewModel(config.Default(), []model.ChunkType{{Name: "_visual"}}, nil); err == nil {
		t.Error("expected error redeclaring a built-in type")
	}
	bad := config.Default()
	bad.ConflictResolution = "random"
	if _, err := NewModel(bad, testTypes, nil); err == nil {
		t.Error("expected error for invalid config")
	}
}

func TestNewModelRejectsUnknownSpreadingBuffer(t *testing.T) {
	cfg := config.Default()
	cfg.BufferSpreadingActivation = map[string]float64{"imaginl": 1}
	_, err := NewModel(cfg, testTypes, nil)
	if err == nil || !strings.Contains(err.Error(), "imaginl") {
		t.Fatalf("expected error naming imaginl, got %v", err)
	}

	cfg.BufferSpreadingActivation = map[string]float64{"imaginal": 1, "goal": 0.5}
	if _, err := NewModel(cfg, testTypes, nil); err != nil {
		t.Fatalf("known buffers rejected: %v", err)
	}
}
