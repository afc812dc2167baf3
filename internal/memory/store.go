// Package memory provides the chunk store and declarative memory: chunk
// creation against declared types, base-level and spreading activation,
// and threshold retrieval.
package memory

import (
	"fmt"
	"sort"

	"github.com/maryam97/pyactr/internal/model"
)

// Chunk is a typed record. Its slots never change after creation; only the
// presentation history and last-access time are updated.
type Chunk struct {
	ID        model.ChunkID `json:"id"`
	Type      string        `json:"type"`
	CreatedAt float64       `json:"created_at"`

	slots      []model.Slot
	history    []float64
	lastAccess float64
}

// Slots returns a copy of the chunk's slots in declaration order.
func (c *Chunk) Slots() []model.Slot {
	out := make([]model.Slot, len(c.slots))
	copy(out, c.slots)
	return out
}

// Get returns the value of a slot. Unset slots report false.
func (c *Chunk) Get(name string) (model.Value, bool) {
	for _, s := range c.slots {
		if s.Name == name {
			return s.Value, true
		}
	}
	return model.Value{}, false
}

// History returns the simulated times at which the chunk was presented.
func (c *Chunk) History() []float64 {
	out := make([]float64, len(c.history))
	copy(out, c.history)
	return out
}

// LastAccess is the time of the most recent presentation, or CreatedAt.
func (c *Chunk) LastAccess() float64 { return c.lastAccess }

// SameContent reports whether two chunks have the same type and slot values,
// ignoring slot order.
func (c *Chunk) SameContent(o *Chunk) bool {
	if c.Type != o.Type || len(c.slots) != len(o.slots) {
		return false
	}
	for _, s := range c.slots {
		v, ok := o.Get(s.Name)
		if !ok || v != s.Value {
			return false
		}
	}
	return true
}

func (c *Chunk) String() string { return model.FormatSlots(c.Type, c.slots) }

// Store owns every chunk of one simulation.
type Store struct {
	types  map[string]model.ChunkType
	chunks map[model.ChunkID]*Chunk
	next   model.ChunkID
}

// NewStore creates an empty store that accepts chunks of the given types.
func NewStore(types []model.ChunkType) *Store {
	s := &Store{
		types:  make(map[string]model.ChunkType, len(types)),
		chunks: make(map[model.ChunkID]*Chunk),
	}
	for _, t := range types {
		s.types[t.Name] = t
	}
	return s
}

// Type looks up a declared chunk type.
func (s *Store) Type(name string) (model.ChunkType, bool) {
	t, ok := s.types[name]
	return t, ok
}

// Create validates slots against the declared type and stores a new chunk.
// Zero-valued slots are treated as unset and dropped.
func (s *Store) Create(typeName string, slots []model.Slot, now float64) (model.ChunkID, error) {
	t, ok := s.types[typeName]
	if !ok {
		return 0, fmt.Errorf("%w: undeclared type %q", model.ErrTypeMismatch, typeName)
	}
	seen := make(map[string]bool, len(slots))
	kept := make([]model.Slot, 0, len(slots))
	for _, sl := range slots {
		if !t.Has(sl.Name) {
			return 0, fmt.Errorf("%w: type %q has no slot %q", model.ErrTypeMismatch, typeName, sl.Name)
		}
		if seen[sl.Name] {
			return 0, fmt.Errorf("%w: slot %q given twice", model.ErrTypeMismatch, sl.Name)
		}
		seen[sl.Name] = true
		if sl.Value.IsRef() {
			if _, ok := s.chunks[sl.Value.Ref]; !ok {
				return 0, fmt.Errorf("slot %q: %w: %d", sl.Name, model.ErrUnknownChunk, sl.Value.Ref)
			}
		}
		if !sl.Value.IsZero() {
			kept = append(kept, sl)
		}
	}

	s.next++
	c := &Chunk{ID: s.next, Type: typeName, CreatedAt: now, slots: kept, lastAccess: now}
	s.chunks[c.ID] = c
	return c.ID, nil
}

// Modify creates a new chunk that copies id with the given slots replaced.
func (s *Store) Modify(id model.ChunkID, changes []model.Slot, now float64) (model.ChunkID, error) {
	c, ok := s.chunks[id]
	if !ok {
		return 0, fmt.Errorf("%w: %d", model.ErrUnknownChunk, id)
	}
	t := s.types[c.Type]
	merged := make([]model.Slot, 0, len(t.Slots))
	changed := make(map[string]model.Value, len(changes))
	for _, ch := range changes {
		changed[ch.Name] = ch.Value
	}
	for _, name := range t.Slots {
		if v, ok := changed[name]; ok {
			merged = append(merged, model.Slot{Name: name, Value: v})
			delete(changed, name)
			continue
		}
		if v, ok := c.Get(name); ok {
			merged = append(merged, model.Slot{Name: name, Value: v})
		}
	}
	if len(changed) > 0 {
		names := make([]string, 0, len(changed))
		for n := range changed {
			names = append(names, n)
		}
		sort.Strings(names)
		return 0, fmt.Errorf("%w: type %q has no slot %q", model.ErrTypeMismatch, c.Type, names[0])
	}
	return s.Create(c.Type, merged, now)
}

// Get returns the chunk with the given identity.
func (s *Store) Get(id model.ChunkID) (*Chunk, bool) {
	c, ok := s.chunks[id]
	return c, ok
}

// Len is the number of chunks ever created in this store.
func (s *Store) Len() int { return len(s.chunks) }

func (s *Store) present(c *Chunk, at float64) {
	c.history = append(c.history, at)
	if at > c.lastAccess {
		c.lastAccess = at
	}
}
