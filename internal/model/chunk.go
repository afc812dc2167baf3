// Package model defines the core simulation data types shared by the
// memory, buffer, production, and scheduling layers.
package model

import (
	"strconv"
	"strings"
)

// ChunkID is the stable identity of a chunk within one simulation.
// The zero value means "no chunk".
type ChunkID uint64

// Value is a slot value: either an atomic symbol or a reference to another chunk.
type Value struct {
	Symbol string  `json:"symbol,omitempty"`
	Ref    ChunkID `json:"ref,omitempty"`
}

// Sym returns an atomic symbol value.
func Sym(s string) Value { return Value{Symbol: s} }

// Ref returns a value referring to the chunk with the given identity.
func Ref(id ChunkID) Value { return Value{Ref: id} }

// IsZero reports whether the value is unset.
func (v Value) IsZero() bool { return v.Symbol == "" && v.Ref == 0 }

// IsRef reports whether the value refers to a chunk.
func (v Value) IsRef() bool { return v.Ref != 0 }

// Number parses the symbol as a float.
func (v Value) Number() (float64, bool) {
	if v.IsRef() || v.Symbol == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.Symbol, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func (v Value) String() string {
	switch {
	case v.IsRef():
		return "#" + strconv.FormatUint(uint64(v.Ref), 10)
	case v.Symbol == "":
		return "None"
	default:
		return v.Symbol
	}
}

// Slot is one named slot of a chunk.
type Slot struct {
	Name  string `json:"name"`
	Value Value  `json:"value"`
}

// ChunkType declares the slot names a chunk of that type may carry.
type ChunkType struct {
	Name  string   `json:"name"`
	Slots []string `json:"slots"`
}

// Has reports whether the type declares the slot.
func (t ChunkType) Has(slot string) bool {
	for _, s := range t.Slots {
		if s == slot {
			return true
		}
	}
	return false
}

// FormatSlots renders slots as "type(a=x, b=y)".
func FormatSlots(typeName string, slots []Slot) string {
	var b strings.Builder
	b.WriteString(typeName)
	b.WriteByte('(')
	for i, s := range slots {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(s.Name)
		b.WriteByte('=')
		b.WriteString(s.Value.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Built-in chunk types used by the perceptual and motor modules.
var (
	VisualLocationType = ChunkType{Name: "_visuallocation", Slots: []string{"screen_x", "screen_y", "stimulus"}}
	VisualType         = ChunkType{Name: "_visual", Slots: []string{"cmd", "screen_pos", "value"}}
	ManualType         = ChunkType{Name: "_manual", Slots: []string{"cmd", "key"}}
)

// BufferState is the module state a buffer reports to productions.
type BufferState string

const (
	StateFree  BufferState = "free"
	StateBusy  BufferState = "busy"
	StateError BufferState = "error"
)

// ValidStates are the states a query clause may test.
var ValidStates = map[BufferState]bool{
	StateFree:  true,
	StateBusy:  true,
	StateError: true,
}
