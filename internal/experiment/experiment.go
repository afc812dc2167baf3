// Package experiment runs the semantic-priming lexical decision task: for
// each prime/target pair a fresh simulation sees the target on screen with
// the prime held in imaginal, and answers J (word) or F (not a word).
package experiment

import (
	"context"
	_ "embed"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/maryam97/pyactr/internal/config"
	"github.com/maryam97/pyactr/internal/memory"
	"github.com/maryam97/pyactr/internal/model"
	"github.com/maryam97/pyactr/internal/module"
	"github.com/maryam97/pyactr/internal/production"
	"github.com/maryam97/pyactr/internal/sim"
)

//go:embed priming.rules
var primingRules string

// Keys of the two responses.
const (
	KeyWord    = "J"
	KeyNonword = "F"
)

// Types are the chunk types of the priming model.
var Types = []model.ChunkType{
	{Name: "goal", Slots: []string{"state"}},
	{Name: "meaning", Slots: []string{"word"}},
}

// TargetPosition is where the target is shown.
var TargetPosition = [2]float64{150, 150}

// Rules returns the text of the priming productions.
func Rules() string { return primingRules }

// NewModel builds the priming model with the given parameters.
func NewModel(cfg config.Config) (*sim.Model, error) {
	rules, err := production.ParseRules(primingRules)
	if err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	return sim.NewModel(cfg, Types, rules)
}

// Trial is the outcome of one prime/target pair.
type Trial struct {
	Seq          int           `json:"seq"`
	Prime        string        `json:"prime"`
	Target       string        `json:"target"`
	Nonword      bool          `json:"nonword,omitempty"`
	Key          string        `json:"key,omitempty"`
	ReactionTime float64       `json:"reaction_time"`
	Correct      bool          `json:"correct"`
	Trace        []model.Event `json:"trace,omitempty"`
}

// RTMillis is the reaction time in milliseconds.
func (t Trial) RTMillis() float64 { return t.ReactionTime * 1000 }

// Summary aggregates the trials of one run. MeanRT averages the trials
// that produced a response.
type Summary struct {
	Trials    []Trial `json:"trials"`
	Accuracy  float64 `json:"accuracy"`
	MeanRT    float64 `json:"mean_rt"`
	Responses int     `json:"responses"`
}

// Runner runs trials of one model.
type Runner struct {
	Model      *sim.Model
	Log        *zap.Logger
	Associator memory.Associator
	// KeepTrace stores each trial's applied events in the result.
	KeepTrace bool
}

// NewRunner returns a runner that logs nowhere.
func NewRunner(m *sim.Model) *Runner {
	return &Runner{Model: m, Log: zap.NewNop()}
}

func (r *Runner) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

// Trial simulates one pair. Each trial draws noise from its own stream,
// seeded by noise_seed and the trial's sequence number.
func (r *Runner) Trial(ctx context.Context, seq int, pair config.Pair) (Trial, error) {
	cfg := r.Model.Config()
	opts := []sim.Option{
		sim.WithLogger(r.logger().With(zap.Int("trial", seq))),
		sim.WithScreen(module.Layout{"1": {Text: pair.Target, X: TargetPosition[0], Y: TargetPosition[1]}}),
		sim.WithAssociator(r.Associator),
	}
	if cfg.NoiseMagnitude > 0 {
		opts = append(opts, sim.WithNoise(rand.New(rand.NewPCG(cfg.NoiseSeed, uint64(seq)))))
	}
	s, err := sim.New(r.Model, opts...)
	if err != nil {
		return Trial{}, err
	}
	if err := setup(s, pair); err != nil {
		return Trial{}, fmt.Errorf("trial %d setup: %w", seq, err)
	}

	res, err := s.Run(ctx)
	if err != nil {
		return Trial{}, fmt.Errorf("trial %d: %w", seq, err)
	}
	t := Trial{
		Seq:          seq,
		Prime:        pair.Prime,
		Target:       pair.Target,
		Nonword:      pair.Nonword,
		Key:          res.Key,
		ReactionTime: res.ReactionTime,
	}
	if pair.Nonword {
		t.Correct = res.Key == KeyNonword
	} else {
		t.Correct = res.Key == KeyWord
	}
	if r.KeepTrace {
		t.Trace = s.Trace()
	}
	r.logger().Info("trial done",
		zap.Int("trial", seq),
		zap.String("prime", pair.Prime),
		zap.String("target", pair.Target),
		zap.String("key", res.Key),
		zap.Float64("rt_ms", t.RTMillis()),
		zap.Bool("correct", t.Correct),
	)
	return t, nil
}

// setup stores the prime and, for word targets, the target meaning at time
// zero, puts the start goal in goal and the prime in imaginal.
func setup(s *sim.Simulation, pair config.Pair) error {
	dm := s.Declarative()
	prime, err := s.CreateChunk("meaning", model.Slot{Name: "word", Value: model.Sym(pair.Prime)})
	if err != nil {
		return err
	}
	if err := dm.Add(prime, 0); err != nil {
		return err
	}
	if !pair.Nonword && pair.Target != pair.Prime {
		target, err := s.CreateChunk("meaning", model.Slot{Name: "word", Value: model.Sym(pair.Target)})
		if err != nil {
			return err
		}
		if err := dm.Add(target, 0); err != nil {
			return err
		}
	}

	goal, err := s.CreateChunk("goal", model.Slot{Name: "state", Value: model.Sym("start")})
	if err != nil {
		return err
	}
	if err := s.SetBuffer("goal", goal, sim.ModuleGoal); err != nil {
		return err
	}
	return s.SetBuffer("imaginal", prime, sim.ModuleImaginal)
}

// Run simulates every pair in order.
func (r *Runner) Run(ctx context.Context, pairs []config.Pair) (Summary, error) {
	var sum Summary
	correct := 0
	rtTotal := 0.0
	for i, p := range pairs {
		t, err := r.Trial(ctx, i+1, p)
		if err != nil {
			return sum, err
		}
		if t.Correct {
			correct++
		}
		if t.Key != "" {
			sum.Responses++
			rtTotal += t.ReactionTime
		}
		sum.Trials = append(sum.Trials, t)
	}
	if len(pairs) > 0 {
		sum.Accuracy = float64(correct) / float64(len(pairs))
	}
	if sum.Responses > 0 {
		sum.MeanRT = rtTotal / float64(sum.Responses)
	}
	return sum, nil
}
