package module

import (
	"github.com/maryam97/pyactr/internal/memory"
)

// Retrieval serves retrieval requests from declarative memory. Sources
// supplies the spreading-activation sources at request time.
type Retrieval struct {
	dm      *memory.Declarative
	sources func() []memory.Source
}

// NewRetrieval returns the retrieval module over dm.
func NewRetrieval(dm *memory.Declarative, sources func() []memory.Source) *Retrieval {
	if sources == nil {
		sources = func() []memory.Source { return nil }
	}
	return &Retrieval{dm: dm, sources: sources}
}

func (r *Retrieval) Name() string { return "retrieval" }

func (r *Retrieval) Request(now float64, req Request) Outcome {
	mreq := memory.Request{Type: req.Type}
	for _, a := range req.Args {
		mreq.Constraints = append(mreq.Constraints, memory.Constraint{Slot: a.Slot, Value: a.Value, Negate: a.Negate})
	}

	res, err := r.dm.Retrieve(mreq, now, r.sources())
	if err != nil {
		return Outcome{
			Latency:     res.Latency,
			Failed:      true,
			Detail:      "RETRIEVED: None",
			Activations: res.Candidates,
		}
	}
	return Outcome{
		Latency:     res.Latency,
		Chunk:       res.Chunk.ID,
		Reinforce:   true,
		Detail:      "RETRIEVED: " + res.Chunk.String(),
		Activations: res.Candidates,
	}
}
