package module

import (
	"math"
	"sort"
	"strconv"

	"github.com/maryam97/pyactr/internal/memory"
	"github.com/maryam97/pyactr/internal/model"
)

// Item is one object on the screen.
type Item struct {
	Text string  `json:"text" yaml:"text"`
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`
}

// Screen is the read-only environment the vision module looks at.
type Screen interface {
	Lookup(id string) (Item, bool)
	IDs() []string
}

// Layout is a static screen keyed by stimulus id.
type Layout map[string]Item

func (l Layout) Lookup(id string) (Item, bool) {
	it, ok := l[id]
	return it, ok
}

// IDs returns the stimulus ids in sorted order.
func (l Layout) IDs() []string {
	ids := make([]string, 0, len(l))
	for id := range l {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// VisionTiming holds the vision module parameters.
type VisionTiming struct {
	LocationTime float64
	EncodingTime float64
	// Eccentricity is added to EncodingTime per unit of distance between
	// the current focus and the attended object.
	Eccentricity float64
}

// Vision serves the visual_location buffer (where to look) and the
// visual buffer (what is there).
type Vision struct {
	store  *memory.Store
	screen Screen
	timing VisionTiming
	focusX float64
	focusY float64
	// attended holds the stimulus ids attention has been moved to.
	attended map[string]bool
}

// NewVision returns a vision module looking at screen from focus.
func NewVision(store *memory.Store, screen Screen, timing VisionTiming, focus [2]float64) *Vision {
	if screen == nil {
		screen = Layout{}
	}
	return &Vision{
		store:    store,
		screen:   screen,
		timing:   timing,
		focusX:   focus[0],
		focusY:   focus[1],
		attended: make(map[string]bool),
	}
}

func (v *Vision) Name() string { return "vision" }

// Focus returns the current focus position.
func (v *Vision) Focus() (float64, float64) { return v.focusX, v.focusY }

func (v *Vision) Request(now float64, req Request) Outcome {
	switch req.Type {
	case model.VisualLocationType.Name:
		return v.findLocation(now, req)
	case model.VisualType.Name:
		return v.attend(now, req)
	default:
		return failed(0, "VISION FAILED: unsupported request %s", req)
	}
}

type located struct {
	id string
	Item
}

func (v *Vision) findLocation(now float64, req Request) Outcome {
	var found []located
	for _, id := range v.screen.IDs() {
		it, _ := v.screen.Lookup(id)
		if v.admits(id, it, req.Args) {
			found = append(found, located{id: id, Item: it})
		}
	}
	if len(found) == 0 {
		return failed(v.timing.LocationTime, "NO LOCATION FOUND: %s", req)
	}

	less := v.ordering(req.Args)
	sort.SliceStable(found, func(i, j int) bool { return less(found[i], found[j]) })
	best := found[0]

	id, err := v.store.Create(model.VisualLocationType.Name, []model.Slot{
		{Name: "screen_x", Value: model.Sym(formatCoord(best.X))},
		{Name: "screen_y", Value: model.Sym(formatCoord(best.Y))},
		{Name: "stimulus", Value: model.Sym(best.id)},
	}, now+v.timing.LocationTime)
	if err != nil {
		return failed(v.timing.LocationTime, "NO LOCATION FOUND: %v", err)
	}
	c, _ := v.store.Get(id)
	return Outcome{Latency: v.timing.LocationTime, Chunk: id, Detail: "LOCATION FOUND: " + c.String()}
}

// admits applies the literal constraints; closest, lowest and highest are
// orderings and admit every item. attended True/False keeps the items that
// have or have not been attended.
func (v *Vision) admits(id string, it Item, args []Arg) bool {
	for _, a := range args {
		var ok bool
		switch a.Slot {
		case "stimulus":
			ok = a.Value.Symbol == id
		case "screen_x", "screen_y":
			if isOrdering(a.Value.Symbol) {
				continue
			}
			coord := it.X
			if a.Slot == "screen_y" {
				coord = it.Y
			}
			n, isNum := a.Value.Number()
			ok = isNum && n == coord
		case "attended":
			want, err := strconv.ParseBool(a.Value.Symbol)
			ok = err == nil && v.attended[id] == want
		default:
			continue
		}
		if ok == a.Negate {
			return false
		}
	}
	return true
}

func isOrdering(s string) bool {
	return s == "closest" || s == "lowest" || s == "highest"
}

// ordering returns the comparison implied by the first ordering value in
// args. Without one, items keep screen order.
func (v *Vision) ordering(args []Arg) func(a, b located) bool {
	for _, arg := range args {
		if arg.Negate || !isOrdering(arg.Value.Symbol) {
			continue
		}
		coord := func(l located) float64 {
			if arg.Slot == "screen_y" {
				return l.Y
			}
			return l.X
		}
		switch arg.Value.Symbol {
		case "closest":
			return func(a, b located) bool { return v.distance(a.Item) < v.distance(b.Item) }
		case "lowest":
			return func(a, b located) bool { return coord(a) < coord(b) }
		case "highest":
			return func(a, b located) bool { return coord(a) > coord(b) }
		}
	}
	return func(a, b located) bool { return false }
}

func (v *Vision) distance(it Item) float64 {
	return math.Hypot(it.X-v.focusX, it.Y-v.focusY)
}

func (v *Vision) attend(now float64, req Request) Outcome {
	if cmd, _ := req.Arg("cmd"); cmd.Symbol != "move_attention" {
		return failed(0, "VISION FAILED: unsupported command %s", cmd)
	}
	pos, _ := req.Arg("screen_pos")
	loc, ok := v.store.Get(pos.Ref)
	if !ok || loc.Type != model.VisualLocationType.Name {
		return failed(v.timing.EncodingTime, "VISION FAILED: screen_pos %s is not a location", pos)
	}
	stim, _ := loc.Get("stimulus")
	it, ok := v.screen.Lookup(stim.Symbol)
	if !ok {
		return failed(v.timing.EncodingTime, "VISION FAILED: nothing at %s", loc)
	}

	latency := v.timing.EncodingTime + v.timing.Eccentricity*v.distance(it)
	v.focusX, v.focusY = it.X, it.Y
	v.attended[stim.Symbol] = true

	id, err := v.store.Create(model.VisualType.Name, []model.Slot{
		{Name: "screen_pos", Value: model.Ref(loc.ID)},
		{Name: "value", Value: model.Sym(it.Text)},
	}, now+latency)
	if err != nil {
		return failed(latency, "VISION FAILED: %v", err)
	}
	c, _ := v.store.Get(id)
	return Outcome{Latency: latency, Chunk: id, Detail: "ENCODED VIS OBJECT: " + c.String()}
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
