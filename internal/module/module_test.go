package module

import (
	"math"
	"strings"
	"testing"

	"github.com/maryam97/pyactr/internal/memory"
	"github.com/maryam97/pyactr/internal/model"
)

func newTestStore(t *testing.T) *memory.Store {
	t.Helper()
	return memory.NewStore([]model.ChunkType{
		{Name: "goal", Slots: []string{"state"}},
		{Name: "meaning", Slots: []string{"word"}},
		model.VisualLocationType,
		model.VisualType,
		model.ManualType,
	})
}

func arg(slot, value string) Arg { return Arg{Slot: slot, Value: model.Sym(value)} }

func TestGoalCreatesChunk(t *testing.T) {
	s := newTestStore(t)
	g := NewGoal("imaginal", s, 0.2)

	out := g.Request(1, Request{Buffer: "imaginal", Type: "goal", Args: []Arg{arg("state", "start")}})
	if out.Failed {
		t.Fatalf("unexpected failure: %s", out.Detail)
	}
	if out.Latency != 0.2 {
		t.Errorf("expected latency 0.2, got %v", out.Latency)
	}
	c, ok := s.Get(out.Chunk)
	if !ok {
		t.Fatal("chunk not stored")
	}
	if v, _ := c.Get("state"); v.Symbol != "start" {
		t.Errorf("expected state=start, got %s", v)
	}
}

func TestGoalRejectsBadRequest(t *testing.T) {
	s := newTestStore(t)
	g := NewGoal("goal", s, 0)

	if out := g.Request(0, Request{Type: "goal", Args: []Arg{arg("color", "red")}}); !out.Failed {
		t.Error("expected failure for undeclared slot")
	}
	neg := Arg{Slot: "state", Value: model.Sym("start"), Negate: true}
	if out := g.Request(0, Request{Type: "goal", Args: []Arg{neg}}); !out.Failed {
		t.Error("expected failure for negated slot")
	}
}

func TestMotorTiming(t *testing.T) {
	timing := MotorTiming{Preparation: 0.25, Initiation: 0.05, Execution: 0.05}
	press := func(key string) Request {
		return Request{Buffer: "manual", Type: "_manual", Args: []Arg{arg("cmd", "press_key"), arg("key", key)}}
	}

	m := NewMotor(timing, true)
	first := m.Request(0, press("J"))
	if first.Failed || first.Key != 'J' {
		t.Fatalf("unexpected outcome %+v", first)
	}
	if math.Abs(first.Latency-0.1) > 1e-9 {
		t.Errorf("prepared press: expected 0.1, got %v", first.Latency)
	}
	if again := m.Request(1, press("J")); math.Abs(again.Latency-0.1) > 1e-9 {
		t.Errorf("same key: expected 0.1, got %v", again.Latency)
	}
	if other := m.Request(2, press("F")); math.Abs(other.Latency-0.35) > 1e-9 {
		t.Errorf("new key: expected 0.35, got %v", other.Latency)
	}

	cold := NewMotor(timing, false)
	if out := cold.Request(0, press("F")); math.Abs(out.Latency-0.35) > 1e-9 {
		t.Errorf("unprepared press: expected 0.35, got %v", out.Latency)
	}
}

func TestMotorRejectsUnknownCommand(t *testing.T) {
	m := NewMotor(MotorTiming{}, true)
	tests := []Request{
		{Type: "goal"},
		{Type: "_manual", Args: []Arg{arg("cmd", "point")}},
		{Type: "_manual", Args: []Arg{arg("cmd", "press_key")}},
	}
	for _, req := range tests {
		if out := m.Request(0, req); !out.Failed {
			t.Errorf("expected failure for %s", req)
		}
	}
}

func TestVisionFindAndAttend(t *testing.T) {
	s := newTestStore(t)
	screen := Layout{
		"1": {Text: "abdomen", X: 150, Y: 150},
		"2": {Text: "far", X: 400, Y: 10},
	}
	v := NewVision(s, screen, VisionTiming{EncodingTime: 0.085, Eccentricity: 0.001}, [2]float64{0, 0})

	loc := v.Request(0, Request{Buffer: "visual_location", Type: "_visuallocation", Args: []Arg{arg("screen_x", "closest")}})
	if loc.Failed {
		t.Fatalf("find failed: %s", loc.Detail)
	}
	lc, _ := s.Get(loc.Chunk)
	if stim, _ := lc.Get("stimulus"); stim.Symbol != "1" {
		t.Fatalf("expected closest stimulus 1, got %s", lc)
	}

	enc := v.Request(0.1, Request{Buffer: "visual", Type: "_visual", Args: []Arg{
		arg("cmd", "move_attention"),
		{Slot: "screen_pos", Value: model.Ref(loc.Chunk)},
	}})
	if enc.Failed {
		t.Fatalf("attend failed: %s", enc.Detail)
	}
	want := 0.085 + 0.001*math.Hypot(150, 150)
	if math.Abs(enc.Latency-want) > 1e-9 {
		t.Errorf("expected latency %v, got %v", want, enc.Latency)
	}
	vc, _ := s.Get(enc.Chunk)
	if val, _ := vc.Get("value"); val.Symbol != "abdomen" {
		t.Errorf("expected value abdomen, got %s", vc)
	}
	if x, y := v.Focus(); x != 150 || y != 150 {
		t.Errorf("expected focus to move to (150,150), got (%v,%v)", x, y)
	}
}

func TestVisionLocationQueries(t *testing.T) {
	screen := Layout{
		"a": {Text: "one", X: 10, Y: 300},
		"b": {Text: "two", X: 200, Y: 20},
		"c": {Text: "three", X: 90, Y: 90},
	}
	tests := []struct {
		name string
		args []Arg
		want string
	}{
		{"lowest x", []Arg{arg("screen_x", "lowest")}, "a"},
		{"highest x", []Arg{arg("screen_x", "highest")}, "b"},
		{"lowest y", []Arg{arg("screen_y", "lowest")}, "b"},
		{"closest", []Arg{arg("screen_y", "closest")}, "c"},
		{"literal x", []Arg{arg("screen_x", "90")}, "c"},
		{"by id", []Arg{arg("stimulus", "b")}, "b"},
		{"negated id", []Arg{{Slot: "stimulus", Value: model.Sym("a"), Negate: true}, arg("screen_x", "lowest")}, "c"},
		{"no constraint", nil, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			v := NewVision(s, screen, VisionTiming{}, [2]float64{100, 100})
			out := v.Request(0, Request{Type: "_visuallocation", Args: tt.args})
			if out.Failed {
				t.Fatalf("unexpected failure: %s", out.Detail)
			}
			c, _ := s.Get(out.Chunk)
			if stim, _ := c.Get("stimulus"); stim.Symbol != tt.want {
				t.Errorf("expected %s, got %s", tt.want, c)
			}
		})
	}
}

func TestVisionAttendedFilter(t *testing.T) {
	s := newTestStore(t)
	screen := Layout{
		"1": {Text: "abdomen", X: 150, Y: 150},
		"2": {Text: "far", X: 400, Y: 10},
	}
	v := NewVision(s, screen, VisionTiming{}, [2]float64{0, 0})
	find := func(attended string) Outcome {
		return v.Request(0, Request{Type: "_visuallocation", Args: []Arg{
			arg("attended", attended), arg("screen_x", "closest"),
		}})
	}
	stimulus := func(out Outcome) string {
		c, _ := s.Get(out.Chunk)
		stim, _ := c.Get("stimulus")
		return stim.Symbol
	}

	if out := find("True"); !out.Failed {
		t.Fatalf("expected nothing attended yet, got %s", out.Detail)
	}
	loc := find("False")
	if loc.Failed || stimulus(loc) != "1" {
		t.Fatalf("expected unattended closest stimulus 1, got %s", loc.Detail)
	}
	enc := v.Request(0, Request{Type: "_visual", Args: []Arg{
		arg("cmd", "move_attention"),
		{Slot: "screen_pos", Value: model.Ref(loc.Chunk)},
	}})
	if enc.Failed {
		t.Fatalf("attend failed: %s", enc.Detail)
	}

	if out := find("False"); out.Failed || stimulus(out) != "2" {
		t.Errorf("expected the unattended stimulus 2, got %s", out.Detail)
	}
	if out := find("True"); out.Failed || stimulus(out) != "1" {
		t.Errorf("expected the attended stimulus 1, got %s", out.Detail)
	}
	if out := find("maybe"); !out.Failed {
		t.Errorf("expected an unreadable attended value to match nothing, got %s", out.Detail)
	}
}

func TestVisionNoLocation(t *testing.T) {
	s := newTestStore(t)
	v := NewVision(s, Layout{}, VisionTiming{}, [2]float64{})
	out := v.Request(0, Request{Type: "_visuallocation", Args: []Arg{arg("screen_x", "closest")}})
	if !out.Failed || !strings.HasPrefix(out.Detail, "NO LOCATION") {
		t.Errorf("expected failure, got %+v", out)
	}
	if out := v.Request(0, Request{Type: "_visual", Args: []Arg{arg("cmd", "move_attention")}}); !out.Failed {
		t.Error("expected attend without location to fail")
	}
}

func TestRetrievalModule(t *testing.T) {
	s := newTestStore(t)
	dm := memory.NewDeclarative(s, memory.Params{
		DecayRate:          0.5,
		LatencyFactor:      0.63,
		RetrievalThreshold: -2,
		MinLatency:         0.001,
	})
	id, _ := s.Create("meaning", []model.Slot{{Name: "word", Value: model.Sym("abdomen")}}, 0)
	if err := dm.Add(id, 0); err != nil {
		t.Fatal(err)
	}
	r := NewRetrieval(dm, nil)

	hit := r.Request(1, Request{Type: "meaning", Args: []Arg{arg("word", "abdomen")}})
	if hit.Failed || hit.Chunk != id || !hit.Reinforce {
		t.Fatalf("expected retrieval of %d, got %+v", id, hit)
	}
	if math.Abs(hit.Latency-0.63) > 1e-9 {
		t.Errorf("expected latency 0.63 at base level 0, got %v", hit.Latency)
	}
	if len(hit.Activations) != 1 {
		t.Errorf("expected one candidate activation, got %d", len(hit.Activations))
	}

	miss := r.Request(1, Request{Type: "meaning", Args: []Arg{arg("word", "zebra")}})
	if !miss.Failed || miss.Detail != "RETRIEVED: None" {
		t.Errorf("expected failure, got %+v", miss)
	}
	if math.Abs(miss.Latency-0.63*math.Exp(2)) > 1e-9 {
		t.Errorf("expected failure latency, got %v", miss.Latency)
	}
}
