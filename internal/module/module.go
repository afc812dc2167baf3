// Package module implements the modules that serve buffer requests: goal
// and imaginal chunk creation, vision, the manual motor module, and
// declarative retrieval. A module computes the outcome and latency of a
// request; the simulation schedules the completion.
package module

import (
	"fmt"

	"github.com/maryam97/pyactr/internal/model"
)

// Arg is one resolved slot of a request.
type Arg struct {
	Slot   string      `json:"slot"`
	Value  model.Value `json:"value"`
	Negate bool        `json:"negate,omitempty"`
}

// Request is a module request issued through a buffer.
type Request struct {
	Buffer string `json:"buffer"`
	Type   string `json:"type"`
	Args   []Arg  `json:"args,omitempty"`
}

// Arg returns the first non-negated value given for slot.
func (r Request) Arg(slot string) (model.Value, bool) {
	for _, a := range r.Args {
		if a.Slot == slot && !a.Negate {
			return a.Value, true
		}
	}
	return model.Value{}, false
}

func (r Request) String() string {
	slots := make([]model.Slot, 0, len(r.Args))
	for _, a := range r.Args {
		v := a.Value
		if a.Negate {
			v = model.Sym("~" + v.String())
		}
		slots = append(slots, model.Slot{Name: a.Slot, Value: v})
	}
	return model.FormatSlots(r.Type, slots)
}

// Outcome is what a module reports for a request. The completion is due
// Latency seconds after the request.
type Outcome struct {
	Latency float64
	// Chunk is placed in the buffer on completion unless Failed.
	Chunk       model.ChunkID
	Failed      bool
	Key         rune
	Reinforce   bool
	Detail      string
	Activations []model.Activation
}

// Module serves requests for the buffers bound to it.
type Module interface {
	Name() string
	Request(now float64, req Request) Outcome
}

func failed(latency float64, format string, args ...any) Outcome {
	return Outcome{Latency: latency, Failed: true, Detail: fmt.Sprintf(format, args...)}
}

func slotsOf(args []Arg) ([]model.Slot, error) {
	slots := make([]model.Slot, 0, len(args))
	for _, a := range args {
		if a.Negate {
			return nil, fmt.Errorf("negated slot %s in chunk request", a.Slot)
		}
		slots = append(slots, model.Slot{Name: a.Slot, Value: a.Value})
	}
	return slots, nil
}
