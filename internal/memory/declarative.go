package memory

import (
	"fmt"
	"math"

	"github.com/maryam97/pyactr/internal/model"
)

// Params are the global retrieval parameters of declarative memory.
type Params struct {
	DecayRate             float64
	LatencyFactor         float64
	StrengthOfAssociation float64
	RetrievalThreshold    float64
	NoiseMagnitude        float64
	// FailureTime is the latency of a failed retrieval. Zero means
	// LatencyFactor * exp(-RetrievalThreshold).
	FailureTime float64
	MinLatency  float64
}

// Source is a chunk held in a spreading-activation source buffer.
type Source struct {
	Buffer string
	Weight float64
	Chunk  *Chunk
}

// Constraint restricts one slot of a retrieval request.
type Constraint struct {
	Slot   string
	Value  model.Value
	Negate bool
}

// Request names the chunk type to retrieve and the slot constraints it must satisfy.
type Request struct {
	Type        string
	Constraints []Constraint
}

// Result is the outcome of a retrieval attempt.
type Result struct {
	Chunk      *Chunk
	Activation float64
	Latency    float64
	Candidates []model.Activation
}

// OK reports whether a chunk was retrieved.
func (r Result) OK() bool { return r.Chunk != nil }

// Declarative is the declarative memory of one simulation.
type Declarative struct {
	store   *Store
	params  Params
	assoc   Associator
	noise   Noise
	members []model.ChunkID
	index   map[model.ChunkID]bool
}

// Option configures a Declarative.
type Option func(*Declarative)

// WithAssociator sets the similarity oracle used for spreading activation.
func WithAssociator(a Associator) Option {
	return func(d *Declarative) {
		if a != nil {
			d.assoc = a
		}
	}
}

// WithNoise sets the source of activation noise draws.
func WithNoise(n Noise) Option {
	return func(d *Declarative) { d.noise = n }
}

// NewDeclarative creates an empty declarative memory over store.
func NewDeclarative(store *Store, p Params, opts ...Option) *Declarative {
	d := &Declarative{
		store:  store,
		params: p,
		assoc:  Identity,
		index:  make(map[model.ChunkID]bool),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Params returns the retrieval parameters.
func (d *Declarative) Params() Params { return d.params }

// Store returns the backing chunk store.
func (d *Declarative) Store() *Store { return d.store }

// Add puts a chunk into declarative memory, recording the given presentations.
// A chunk added without presentations has base-level activation -Inf.
func (d *Declarative) Add(id model.ChunkID, presentedAt ...float64) error {
	c, ok := d.store.Get(id)
	if !ok {
		return fmt.Errorf("add: %w: %d", model.ErrUnknownChunk, id)
	}
	if !d.index[id] {
		d.index[id] = true
		d.members = append(d.members, id)
	}
	for _, t := range presentedAt {
		d.store.present(c, t)
	}
	return nil
}

// Contains reports whether the chunk is in declarative memory.
func (d *Declarative) Contains(id model.ChunkID) bool { return d.index[id] }

// Len is the number of chunks in declarative memory.
func (d *Declarative) Len() int { return len(d.members) }

// Present appends a presentation of a stored chunk at time now.
func (d *Declarative) Present(id model.ChunkID, now float64) error {
	if !d.index[id] {
		return fmt.Errorf("present: %w: %d not in declarative memory", model.ErrUnknownChunk, id)
	}
	c, _ := d.store.Get(id)
	d.store.present(c, now)
	return nil
}

// Harvest stores a chunk cleared from a buffer. If a chunk with the same
// content is already in memory, the two are merged: the existing chunk gets a
// presentation and its identity is returned.
func (d *Declarative) Harvest(id model.ChunkID, now float64) (model.ChunkID, error) {
	c, ok := d.store.Get(id)
	if !ok {
		return 0, fmt.Errorf("harvest: %w: %d", model.ErrUnknownChunk, id)
	}
	for _, mid := range d.members {
		m, _ := d.store.Get(mid)
		if m.SameContent(c) {
			d.store.present(m, now)
			return mid, nil
		}
	}
	return id, d.Add(id, now)
}

// BaseLevel computes ln(sum((now - t_j)^-d)) over past presentations.
func (d *Declarative) BaseLevel(c *Chunk, now float64) float64 {
	sum := 0.0
	for _, t := range c.history {
		age := now - t
		if age <= 0 {
			continue
		}
		sum += math.Pow(age, -d.params.DecayRate)
	}
	if sum == 0 {
		return math.Inf(-1)
	}
	return math.Log(sum)
}

// Spreading computes the activation a candidate receives from source buffers.
// Each source's weight is split evenly over its slot values.
func (d *Declarative) Spreading(c *Chunk, sources []Source) float64 {
	total := 0.0
	for _, src := range sources {
		if src.Chunk == nil || src.Weight == 0 {
			continue
		}
		values := src.Chunk.slots
		if len(values) == 0 {
			continue
		}
		wj := src.Weight / float64(len(values))
		for _, j := range values {
			total += wj * d.params.StrengthOfAssociation * d.associationTo(j.Value, c)
		}
	}
	return total
}

func (d *Declarative) associationTo(j model.Value, c *Chunk) float64 {
	if j.IsRef() {
		if j.Ref == c.ID {
			return 1
		}
		return 0
	}
	best := 0.0
	for _, s := range c.slots {
		if s.Value.IsRef() {
			continue
		}
		if a := clamp01(d.assoc.Association(j.Symbol, s.Value.Symbol)); a > best {
			best = a
		}
	}
	return best
}

// Activation computes the full activation breakdown of one candidate,
// drawing noise once.
func (d *Declarative) Activation(c *Chunk, now float64, sources []Source) model.Activation {
	a := model.Activation{
		Chunk:  c.ID,
		Base:   d.BaseLevel(c, now),
		Spread: d.Spreading(c, sources),
		Noise:  logistic(d.noise, d.params.NoiseMagnitude),
	}
	a.Total = a.Base + a.Spread + a.Noise
	return a
}

// Candidates returns the chunks of the requested type that satisfy every
// constraint, in the order they entered memory.
func (d *Declarative) Candidates(req Request) []*Chunk {
	var out []*Chunk
	for _, id := range d.members {
		c, _ := d.store.Get(id)
		if c.Type != req.Type {
			continue
		}
		if satisfies(c, req.Constraints) {
			out = append(out, c)
		}
	}
	return out
}

func satisfies(c *Chunk, constraints []Constraint) bool {
	for _, k := range constraints {
		v, _ := c.Get(k.Slot)
		if (v == k.Value) == k.Negate {
			return false
		}
	}
	return true
}

// Retrieve selects the candidate with maximal activation. If no candidate
// reaches the retrieval threshold, the returned error wraps
// model.ErrRetrievalFailure and the result carries the failure latency.
func (d *Declarative) Retrieve(req Request, now float64, sources []Source) (Result, error) {
	var res Result
	best := math.Inf(-1)
	for _, c := range d.Candidates(req) {
		a := d.Activation(c, now, sources)
		res.Candidates = append(res.Candidates, a)
		if res.Chunk == nil || a.Total > best {
			best = a.Total
			res.Chunk = c
		}
	}

	if res.Chunk == nil || best < d.params.RetrievalThreshold {
		res.Chunk = nil
		res.Activation = best
		res.Latency = d.failureLatency()
		return res, fmt.Errorf("%w: %s: best activation %.3f below threshold %.3f",
			model.ErrRetrievalFailure, req.Type, best, d.params.RetrievalThreshold)
	}

	res.Activation = best
	res.Latency = d.clampLatency(d.params.LatencyFactor * math.Exp(-best))
	return res, nil
}

func (d *Declarative) failureLatency() float64 {
	if d.params.FailureTime > 0 {
		return d.clampLatency(d.params.FailureTime)
	}
	return d.clampLatency(d.params.LatencyFactor * math.Exp(-d.params.RetrievalThreshold))
}

func (d *Declarative) clampLatency(l float64) float64 {
	floor := d.params.MinLatency
	if floor <= 0 {
		floor = 1e-6
	}
	if l < floor || l != l {
		return floor
	}
	return l
}
