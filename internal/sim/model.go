// Package sim runs productions against buffers on a discrete-event
// timeline. A Model is parsed and validated once and is then shared,
// read-only, by every Simulation (one trial) built from it.
package sim

import (
	"fmt"
	"maps"
	"slices"

	"github.com/maryam97/pyactr/internal/config"
	"github.com/maryam97/pyactr/internal/model"
	"github.com/maryam97/pyactr/internal/production"
)

// Module names. A buffer's Module must be one of these.
const (
	ModuleGoal      = "goal"
	ModuleImaginal  = "imaginal"
	ModuleRetrieval = "retrieval"
	ModuleVision    = "vision"
	ModuleMotor     = "motor"
)

// BufferSpec declares a buffer and the module that writes it. A harvesting
// buffer hands its chunk to declarative memory when cleared.
type BufferSpec struct {
	Name    string `json:"name"`
	Module  string `json:"module"`
	Harvest bool   `json:"harvest,omitempty"`
}

// DefaultBuffers are the buffers of a model with goal, imaginal, retrieval,
// vision and manual modules.
func DefaultBuffers() []BufferSpec {
	return []BufferSpec{
		{Name: "goal", Module: ModuleGoal, Harvest: true},
		{Name: "imaginal", Module: ModuleImaginal, Harvest: true},
		{Name: "retrieval", Module: ModuleRetrieval},
		{Name: "visual_location", Module: ModuleVision, Harvest: true},
		{Name: "visual", Module: ModuleVision, Harvest: true},
		{Name: "manual", Module: ModuleMotor},
	}
}

var knownModules = map[string]bool{
	ModuleGoal:      true,
	ModuleImaginal:  true,
	ModuleRetrieval: true,
	ModuleVision:    true,
	ModuleMotor:     true,
}

// Model is the immutable part of a simulation: configuration, chunk
// types, buffers and productions in registration order.
type Model struct {
	cfg         config.Config
	policy      production.Policy
	types       []model.ChunkType
	buffers     []BufferSpec
	productions []*production.Production
}

// ModelOption configures a Model.
type ModelOption func(*Model)

// WithBuffers replaces the default buffer set.
func WithBuffers(specs []BufferSpec) ModelOption {
	return func(m *Model) { m.buffers = specs }
}

// NewModel validates the rules against the declared types and buffers.
// The built-in perceptual and motor chunk types are always declared.
func NewModel(cfg config.Config, types []model.ChunkType, rules []*production.Production, opts ...ModelOption) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := production.ParsePolicy(cfg.ConflictResolution)
	if err != nil {
		return nil, err
	}

	m := &Model{cfg: cfg, policy: policy, buffers: DefaultBuffers()}
	for _, o := range opts {
		o(m)
	}

	m.types = append(m.types, model.VisualLocationType, model.VisualType, model.ManualType)
	declared := map[string]bool{}
	for _, t := range m.types {
		declared[t.Name] = true
	}
	for _, t := range types {
		if declared[t.Name] {
			return nil, fmt.Errorf("chunk type %q declared twice", t.Name)
		}
		declared[t.Name] = true
		m.types = append(m.types, t)
	}

	buffers := map[string]bool{}
	for _, b := range m.buffers {
		if !knownModules[b.Module] {
			return nil, fmt.Errorf("buffer %q: unknown module %q", b.Name, b.Module)
		}
		if buffers[b.Name] {
			return nil, fmt.Errorf("buffer %q declared twice", b.Name)
		}
		buffers[b.Name] = true
	}
	for _, name := range slices.Sorted(maps.Keys(cfg.BufferSpreadingActivation)) {
		if !buffers[name] {
			return nil, fmt.Errorf("buffer_spreading_activation names unknown buffer %q", name)
		}
	}

	names := map[string]bool{}
	for i, r := range rules {
		if names[r.Name] {
			return nil, &model.RuleParseError{Rule: r.Name, Line: 1, Reason: "duplicate rule name"}
		}
		names[r.Name] = true
		if err := checkRule(r, buffers, declared); err != nil {
			return nil, err
		}
		p := *r
		p.Index = i
		m.productions = append(m.productions, &p)
	}
	return m, nil
}

func checkRule(p *production.Production, buffers, types map[string]bool) error {
	fail := func(clause string, line int, reason string) error {
		return &model.RuleParseError{Rule: p.Name, Clause: clause, Line: line, Reason: reason}
	}
	for _, c := range p.Conditions {
		header := "=" + c.Buffer + ">"
		if c.Kind == production.Query {
			header = "?" + c.Buffer + ">"
		}
		if !buffers[c.Buffer] {
			return fail(header, c.Line, "unknown buffer "+c.Buffer)
		}
		if c.Type != "" && !types[c.Type] {
			return fail(header, c.Line, "unknown chunk type "+c.Type)
		}
	}
	for _, a := range p.Actions {
		header := map[production.ActionKind]string{production.Modify: "=", production.Request: "+", production.Clear: "~"}[a.Kind] + a.Buffer + ">"
		if !buffers[a.Buffer] {
			return fail(header, a.Line, "unknown buffer "+a.Buffer)
		}
		if a.Type != "" && !types[a.Type] {
			return fail(header, a.Line, "unknown chunk type "+a.Type)
		}
	}
	return nil
}

// Config returns the model's configuration.
func (m *Model) Config() config.Config { return m.cfg }

// Policy returns the conflict-resolution policy.
func (m *Model) Policy() production.Policy { return m.policy }

// Types returns every declared chunk type, built-ins first.
func (m *Model) Types() []model.ChunkType {
	out := make([]model.ChunkType, len(m.types))
	copy(out, m.types)
	return out
}

// Buffers returns the buffer declarations.
func (m *Model) Buffers() []BufferSpec {
	out := make([]BufferSpec, len(m.buffers))
	copy(out, m.buffers)
	return out
}

// Productions returns the rules in registration order.
func (m *Model) Productions() []*production.Production {
	out := make([]*production.Production, len(m.productions))
	copy(out, m.productions)
	return out
}
