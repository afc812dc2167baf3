package module

import (
	"github.com/maryam97/pyactr/internal/memory"
)

// Goal creates the requested chunk and places it in its buffer after a
// fixed delay. It serves both the goal buffer (delay 0) and imaginal.
type Goal struct {
	name  string
	store *memory.Store
	delay float64
}

// NewGoal returns a chunk-creating module.
func NewGoal(name string, store *memory.Store, delay float64) *Goal {
	return &Goal{name: name, store: store, delay: delay}
}

func (g *Goal) Name() string { return g.name }

func (g *Goal) Request(now float64, req Request) Outcome {
	slots, err := slotsOf(req.Args)
	if err != nil {
		return failed(g.delay, "CREATE FAILED: %v", err)
	}
	id, err := g.store.Create(req.Type, slots, now+g.delay)
	if err != nil {
		return failed(g.delay, "CREATE FAILED: %v", err)
	}
	c, _ := g.store.Get(id)
	return Outcome{Latency: g.delay, Chunk: id, Detail: "CREATED: " + c.String()}
}
