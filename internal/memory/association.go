package memory

// Associator is the external similarity oracle: it returns the association
// strength between two concept identifiers. Values outside [0, 1] are clamped
// by the caller.
type Associator interface {
	Association(a, b string) float64
}

// AssociatorFunc adapts a function to the Associator interface.
type AssociatorFunc func(a, b string) float64

func (f AssociatorFunc) Association(a, b string) float64 { return f(a, b) }

// Identity associates a concept only with itself.
var Identity Associator = AssociatorFunc(func(a, b string) float64 {
	if a == b {
		return 1
	}
	return 0
})

// Table is a symmetric association table keyed by concept pair.
type Table map[string]map[string]float64

// Set records a symmetric association.
func (t Table) Set(a, b string, v float64) {
	if t[a] == nil {
		t[a] = make(map[string]float64)
	}
	if t[b] == nil {
		t[b] = make(map[string]float64)
	}
	t[a][b] = v
	t[b][a] = v
}

func (t Table) Association(a, b string) float64 {
	if a == b {
		return 1
	}
	return t[a][b]
}

func clamp01(v float64) float64 {
	switch {
	case v < 0 || v != v:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
