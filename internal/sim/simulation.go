package sim

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"go.uber.org/zap"

	"github.com/maryam97/pyactr/internal/buffer"
	"github.com/maryam97/pyactr/internal/memory"
	"github.com/maryam97/pyactr/internal/model"
	"github.com/maryam97/pyactr/internal/module"
	"github.com/maryam97/pyactr/internal/production"
	"github.com/maryam97/pyactr/internal/scheduler"
)

// Simulation is the mutable state of one trial: buffers, declarative
// memory, modules, the pending events and the simulated clock.
type Simulation struct {
	model   *Model
	log     *zap.Logger
	sched   *scheduler.Scheduler
	store   *memory.Store
	dm      *memory.Declarative
	buffers *buffer.Registry
	modules map[string]module.Module
	matcher *production.Matcher
	vision  *module.Vision

	firing   bool
	trace    []model.Event
	response *Extractor
}

// Option configures a Simulation.
type Option func(*options)

type options struct {
	log    *zap.Logger
	noise  memory.Noise
	assoc  memory.Associator
	screen module.Screen
}

// WithLogger sets the logger every applied event is reported to.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithNoise overrides the seeded noise source built from the configuration.
func WithNoise(n memory.Noise) Option {
	return func(o *options) { o.noise = n }
}

// WithAssociator sets the similarity oracle for spreading activation.
func WithAssociator(a memory.Associator) Option {
	return func(o *options) { o.assoc = a }
}

// WithScreen sets what the vision module looks at.
func WithScreen(s module.Screen) Option {
	return func(o *options) { o.screen = s }
}

// New builds a fresh simulation of m at time zero.
func New(m *Model, opts ...Option) (*Simulation, error) {
	cfg := m.cfg
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.noise == nil && cfg.NoiseMagnitude > 0 {
		o.noise = rand.New(rand.NewPCG(cfg.NoiseSeed, cfg.NoiseSeed))
	}
	if o.assoc == nil && len(cfg.Associations) > 0 {
		t := memory.Table{}
		for _, a := range cfg.Associations {
			t.Set(a.A, a.B, a.Strength)
		}
		o.assoc = t
	}

	s := &Simulation{
		model:    m,
		log:      o.log,
		sched:    scheduler.New(),
		store:    memory.NewStore(m.types),
		buffers:  buffer.NewRegistry(),
		matcher:  production.NewMatcher(m.productions),
		response: NewExtractor(),
	}
	s.dm = memory.NewDeclarative(s.store, memory.Params{
		DecayRate:             cfg.DecayRate,
		LatencyFactor:         cfg.LatencyFactor,
		StrengthOfAssociation: cfg.StrengthOfAssociation,
		RetrievalThreshold:    cfg.RetrievalThreshold,
		NoiseMagnitude:        cfg.NoiseMagnitude,
		FailureTime:           cfg.RetrievalFailureTime,
		MinLatency:            cfg.MinRetrievalLatency,
	}, memory.WithAssociator(o.assoc), memory.WithNoise(o.noise))

	for _, spec := range m.buffers {
		if err := s.buffers.Add(buffer.New(spec.Name, spec.Module, spec.Harvest)); err != nil {
			return nil, err
		}
	}

	s.vision = module.NewVision(s.store, o.screen, module.VisionTiming{
		LocationTime: cfg.VisualLocationTime,
		EncodingTime: cfg.VisualEncodingTime,
		Eccentricity: cfg.EccentricityFactor,
	}, cfg.FocusPosition)
	s.modules = map[string]module.Module{
		ModuleGoal:      module.NewGoal(ModuleGoal, s.store, 0),
		ModuleImaginal:  module.NewGoal(ModuleImaginal, s.store, cfg.ImaginalDelay),
		ModuleRetrieval: module.NewRetrieval(s.dm, s.sources),
		ModuleVision:    s.vision,
		ModuleMotor: module.NewMotor(module.MotorTiming{
			Preparation: cfg.Motor.Preparation,
			Initiation:  cfg.Motor.Initiation,
			Execution:   cfg.Motor.Execution,
		}, cfg.MotorPrepared),
	}
	return s, nil
}

// Now returns the current simulated time in seconds.
func (s *Simulation) Now() float64 { return s.sched.Now() }

// Declarative returns the simulation's declarative memory.
func (s *Simulation) Declarative() *memory.Declarative { return s.dm }

// Chunk looks up a chunk by identity.
func (s *Simulation) Chunk(id model.ChunkID) (*memory.Chunk, bool) { return s.store.Get(id) }

// CreateChunk stores a new chunk at the current time. It fails with
// model.ErrTypeMismatch when a slot is not declared for the type.
func (s *Simulation) CreateChunk(typeName string, slots ...model.Slot) (model.ChunkID, error) {
	return s.store.Create(typeName, slots, s.Now())
}

// ReadBuffer returns the chunk held by a buffer.
func (s *Simulation) ReadBuffer(name string) (model.ChunkID, bool) {
	b, err := s.buffers.Get(name)
	if err != nil {
		return 0, false
	}
	return b.Chunk()
}

// BufferState returns the module state reported by a buffer.
func (s *Simulation) BufferState(name string) (model.BufferState, error) {
	b, err := s.buffers.Get(name)
	if err != nil {
		return "", err
	}
	return b.State(), nil
}

// SetBuffer places a chunk in a buffer on behalf of its module. It fails
// with model.ErrBufferBusy while the module has a pending request.
func (s *Simulation) SetBuffer(name string, id model.ChunkID, issuingModule string) error {
	b, err := s.buffers.Get(name)
	if err != nil {
		return err
	}
	c, ok := s.store.Get(id)
	if !ok {
		return fmt.Errorf("set %s: %w: %d", name, model.ErrUnknownChunk, id)
	}
	if err := b.Set(id, issuingModule); err != nil {
		return err
	}
	s.emit(model.EventBufferChanged, b, "SET: "+c.String())
	return nil
}

// ClearBuffer empties a buffer. A request already in flight still
// completes, but its chunk is discarded.
func (s *Simulation) ClearBuffer(name string) error {
	b, err := s.buffers.Get(name)
	if err != nil {
		return err
	}
	s.clear(b)
	return nil
}

func (s *Simulation) clear(b *buffer.Buffer) {
	id, held := b.Clear()
	if held && b.Harvest() {
		if _, err := s.dm.Harvest(id, s.Now()); err != nil {
			s.log.Warn("harvest failed", zap.String("buffer", b.Name()), zap.Error(err))
		}
	}
	s.emit(model.EventBufferChanged, b, "CLEARED")
}

// Request issues a module request through a buffer. The buffer is cleared,
// becomes busy immediately, and a completion is scheduled after the
// module's latency. It fails with model.ErrBufferBusy while a previous
// request through the buffer is pending.
func (s *Simulation) Request(name string, req module.Request) error {
	b, err := s.buffers.Get(name)
	if err != nil {
		return err
	}
	if b.Pending() {
		return fmt.Errorf("request %s: %w", name, model.ErrBufferBusy)
	}
	s.clear(b)
	gen, err := b.BeginRequest()
	if err != nil {
		return err
	}

	req.Buffer = name
	out := s.modules[b.Module()].Request(s.Now(), req)
	s.emit(model.EventRequestIssued, b, "REQUESTED: "+req.String())
	_, err = s.sched.After(out.Latency, model.Event{
		Kind:   model.EventCompletion,
		Buffer: name,
		Module: b.Module(),
		Detail: out.Detail,
		Completion: &model.Completion{
			Chunk:       out.Chunk,
			Failed:      out.Failed,
			Key:         out.Key,
			Reinforce:   out.Reinforce,
			Generation:  gen,
			Activations: out.Activations,
		},
	})
	return err
}

func (s *Simulation) emit(kind model.EventKind, b *buffer.Buffer, detail string) {
	if _, err := s.sched.After(0, model.Event{Kind: kind, Buffer: b.Name(), Module: b.Module(), Detail: detail}); err != nil {
		s.log.Warn("schedule failed", zap.String("buffer", b.Name()), zap.Error(err))
	}
}

// sources returns the chunks held in spreading-activation source buffers,
// in buffer-name order.
func (s *Simulation) sources() []memory.Source {
	weights := s.model.cfg.BufferSpreadingActivation
	names := make([]string, 0, len(weights))
	for n := range weights {
		names = append(names, n)
	}
	sort.Strings(names)

	var out []memory.Source
	for _, n := range names {
		b, err := s.buffers.Get(n)
		if err != nil {
			continue
		}
		id, ok := b.Chunk()
		if !ok {
			continue
		}
		c, _ := s.store.Get(id)
		out = append(out, memory.Source{Buffer: n, Weight: weights[n], Chunk: c})
	}
	return out
}

// Step applies the earliest pending event and returns it as applied. When
// buffers have settled and no firing is pending, the matcher then selects
// the next production. Step fails with model.ErrEmptyQueue when nothing is
// left to do.
func (s *Simulation) Step() (model.Event, error) {
	e, err := s.sched.Next()
	if err != nil {
		return e, err
	}
	e = s.apply(e)
	s.trace = append(s.trace, e)
	s.response.Observe(e)
	s.logEvent(e)

	if !s.firing && s.sched.Settled() {
		s.cycle()
	}
	return e, nil
}

func (s *Simulation) apply(e model.Event) model.Event {
	switch e.Kind {
	case model.EventCompletion:
		b, err := s.buffers.Get(e.Buffer)
		if err != nil {
			s.log.Warn("completion for unknown buffer", zap.String("buffer", e.Buffer))
			return e
		}
		c := e.Completion
		placed := b.Complete(c.Generation, c.Chunk, c.Failed)
		if !placed && !c.Failed && c.Chunk != 0 {
			s.log.Debug("stale completion discarded", zap.String("buffer", e.Buffer), zap.Uint64("chunk", uint64(c.Chunk)))
		}
		if c.Reinforce && !c.Failed {
			if err := s.dm.Present(c.Chunk, e.Time); err != nil {
				s.log.Warn("reinforce failed", zap.Error(err))
			}
		}
	case model.EventProductionFired:
		s.firing = false
		if err := s.fire(e.Firing); err != nil {
			f := *e.Firing
			f.Rejected = true
			e.Firing = &f
			e.Detail += " (rejected: " + err.Error() + ")"
			s.log.Warn("firing rejected", zap.String("production", f.Production), zap.Error(err))
		}
	}
	return e
}

func (s *Simulation) logEvent(e model.Event) {
	if ce := s.log.Check(zap.DebugLevel, "event"); ce != nil {
		ce.Write(
			zap.Float64("time", e.Time),
			zap.String("kind", e.Kind.String()),
			zap.String("buffer", e.Buffer),
			zap.String("detail", e.Detail),
		)
	}
	if e.Completion == nil {
		return
	}
	for _, a := range e.Completion.Activations {
		s.log.Debug("activation",
			zap.Uint64("chunk", uint64(a.Chunk)),
			zap.Float64("base", a.Base),
			zap.Float64("spread", a.Spread),
			zap.Float64("noise", a.Noise),
			zap.Float64("total", a.Total),
		)
	}
}

// Run steps until a response is observed, the queue empties, or the next
// event lies beyond max_time.
func (s *Simulation) Run(ctx context.Context) (model.TrialResult, error) {
	limit := s.model.cfg.MaxTime
	for !s.response.Done() {
		if err := ctx.Err(); err != nil {
			return model.TrialResult{}, err
		}
		if next, ok := s.sched.Peek(); ok && next.Time > limit {
			s.log.Debug("time limit reached", zap.Float64("max_time", limit))
			break
		}
		if _, err := s.Step(); err != nil {
			if errors.Is(err, model.ErrEmptyQueue) {
				break
			}
			return model.TrialResult{}, err
		}
	}
	r, _ := s.response.Result()
	return r, nil
}

// Response returns the trial's response once one has been observed.
func (s *Simulation) Response() (model.TrialResult, bool) { return s.response.Result() }

// Trace returns the events applied so far, in order.
func (s *Simulation) Trace() []model.Event {
	out := make([]model.Event, len(s.trace))
	copy(out, s.trace)
	return out
}

// snapshot exposes the buffers to the matcher.
type snapshot struct{ s *Simulation }

func (v snapshot) State(name string) model.BufferState {
	b, err := v.s.buffers.Get(name)
	if err != nil {
		return ""
	}
	return b.State()
}

func (v snapshot) Chunk(name string) (*memory.Chunk, bool) {
	id, ok := v.s.ReadBuffer(name)
	if !ok {
		return nil, false
	}
	return v.s.store.Get(id)
}
