// Package buffer implements the single-slot working-memory buffers that
// productions read and modules write.
package buffer

import (
	"fmt"

	"github.com/maryam97/pyactr/internal/model"
)

// Buffer holds at most one chunk and reports the state of its module.
type Buffer struct {
	name    string
	module  string
	harvest bool

	chunk      model.ChunkID
	state      model.BufferState
	pending    bool
	generation uint64
}

// New creates an empty, free buffer bound to module. A harvesting buffer
// hands its chunk to declarative memory when cleared.
func New(name, module string, harvest bool) *Buffer {
	return &Buffer{name: name, module: module, harvest: harvest, state: model.StateFree}
}

func (b *Buffer) Name() string                 { return b.name }
func (b *Buffer) Module() string               { return b.module }
func (b *Buffer) Harvest() bool                { return b.harvest }
func (b *Buffer) State() model.BufferState     { return b.state }
func (b *Buffer) Pending() bool                { return b.pending }
func (b *Buffer) Generation() uint64           { return b.generation }
func (b *Buffer) Empty() bool                  { return b.chunk == 0 }
func (b *Buffer) Chunk() (model.ChunkID, bool) { return b.chunk, b.chunk != 0 }

// Set places a chunk written by the issuing module. It fails with
// model.ErrBufferBusy while the module has an uncompleted request.
func (b *Buffer) Set(id model.ChunkID, issuingModule string) error {
	if issuingModule != b.module {
		return fmt.Errorf("%w: %s is bound to %s, not %s", model.ErrWrongModule, b.name, b.module, issuingModule)
	}
	if b.pending {
		return fmt.Errorf("%w: %s", model.ErrBufferBusy, b.name)
	}
	b.chunk = id
	return nil
}

// Replace swaps the chunk of a full buffer in place, as a production's
// modification action does.
func (b *Buffer) Replace(id model.ChunkID) error {
	if b.chunk == 0 {
		return fmt.Errorf("modify %s: buffer is empty", b.name)
	}
	b.chunk = id
	return nil
}

// Clear empties the buffer and returns the chunk it held. Completions of
// requests issued before the clear will no longer place their chunk.
func (b *Buffer) Clear() (model.ChunkID, bool) {
	prev := b.chunk
	b.chunk = 0
	b.generation++
	return prev, prev != 0
}

// BeginRequest marks the buffer busy for a new module request and returns
// the generation the completion must present.
func (b *Buffer) BeginRequest() (uint64, error) {
	if b.pending {
		return 0, fmt.Errorf("%w: %s", model.ErrBufferBusy, b.name)
	}
	b.pending = true
	b.state = model.StateBusy
	return b.generation, nil
}

// Complete finishes the pending request. The state becomes free, or error
// when failed; the chunk is placed only if the buffer was not cleared since
// the request began. It reports whether the chunk was placed.
func (b *Buffer) Complete(generation uint64, id model.ChunkID, failed bool) bool {
	b.pending = false
	if failed {
		b.state = model.StateError
	} else {
		b.state = model.StateFree
	}
	if failed || id == 0 || generation != b.generation {
		return false
	}
	b.chunk = id
	return true
}

// Registry holds the buffers of a simulation in declaration order.
type Registry struct {
	order  []*Buffer
	byName map[string]*Buffer
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Buffer)}
}

// Add registers a buffer. Names must be unique.
func (r *Registry) Add(b *Buffer) error {
	if _, ok := r.byName[b.name]; ok {
		return fmt.Errorf("buffer %q declared twice", b.name)
	}
	r.byName[b.name] = b
	r.order = append(r.order, b)
	return nil
}

// Get looks up a buffer by name.
func (r *Registry) Get(name string) (*Buffer, error) {
	b, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownBuffer, name)
	}
	return b, nil
}

// All returns the buffers in declaration order.
func (r *Registry) All() []*Buffer {
	out := make([]*Buffer, len(r.order))
	copy(out, r.order)
	return out
}
