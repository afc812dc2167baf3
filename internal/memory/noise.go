package memory

import "math"

// Noise is a source of uniform draws in [0, 1). *rand.Rand satisfies it.
type Noise interface {
	Float64() float64
}

// logistic samples a logistic distribution with scale s.
func logistic(n Noise, s float64) float64 {
	if s == 0 || n == nil {
		return 0
	}
	u := n.Float64()
	for u == 0 {
		u = n.Float64()
	}
	return s * math.Log(u/(1-u))
}
