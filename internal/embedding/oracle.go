package embedding

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Oracle scores the association between two words as the cosine
// similarity of their embeddings. Vectors and scores are cached; a word
// the source cannot serve associates with nothing but itself.
type Oracle struct {
	source  Source
	timeout time.Duration
	log     *zap.Logger

	mu      sync.Mutex
	vectors map[string]Vector
	missing map[string]bool
	scores  map[[2]string]float64
}

// OracleOption configures an Oracle.
type OracleOption func(*Oracle)

// WithLogger logs embedding failures at Warn.
func WithLogger(l *zap.Logger) OracleOption {
	return func(o *Oracle) { o.log = l }
}

// WithTimeout bounds each vector lookup. The default is 30 seconds.
func WithTimeout(d time.Duration) OracleOption {
	return func(o *Oracle) { o.timeout = d }
}

// NewOracle returns an oracle over src.
func NewOracle(src Source, opts ...OracleOption) *Oracle {
	o := &Oracle{
		source:  src,
		timeout: 30 * time.Second,
		log:     zap.NewNop(),
		vectors: make(map[string]Vector),
		missing: make(map[string]bool),
		scores:  make(map[[2]string]float64),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Association returns the cosine similarity of a and b, or 1 when they are
// the same word.
func (o *Oracle) Association(a, b string) float64 {
	if a == b {
		return 1
	}
	key := [2]string{a, b}
	if b < a {
		key = [2]string{b, a}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if s, ok := o.scores[key]; ok {
		return s
	}
	va, vb := o.vector(a), o.vector(b)
	s := 0.0
	if va != nil && vb != nil {
		s = Cosine(va, vb)
	}
	o.scores[key] = s
	return s
}

// vector must be called with mu held.
func (o *Oracle) vector(word string) Vector {
	if v, ok := o.vectors[word]; ok {
		return v
	}
	if o.missing[word] {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()
	v, err := o.source.Vector(ctx, word)
	if err != nil || len(v) == 0 {
		o.log.Warn("no embedding", zap.String("word", word), zap.Error(err))
		o.missing[word] = true
		return nil
	}
	o.vectors[word] = v
	return v
}
