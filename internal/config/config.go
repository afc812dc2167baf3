// Package config loads simulation parameters from YAML.
package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Motor holds manual-module timing in seconds.
type Motor struct {
	Preparation float64 `yaml:"preparation" json:"preparation"`
	Initiation  float64 `yaml:"initiation" json:"initiation"`
	Execution   float64 `yaml:"execution" json:"execution"`
}

// Pair is one prime/target stimulus pair of an experiment.
type Pair struct {
	Prime   string `yaml:"prime" json:"prime"`
	Target  string `yaml:"target" json:"target"`
	Nonword bool   `yaml:"nonword,omitempty" json:"nonword,omitempty"`
}

// Association is one entry of a static concept association table.
type Association struct {
	A        string  `yaml:"a" json:"a"`
	B        string  `yaml:"b" json:"b"`
	Strength float64 `yaml:"strength" json:"strength"`
}

// Config is the full configuration surface of a simulation.
type Config struct {
	DecayRate                 float64            `yaml:"decay_rate" json:"decay_rate"`
	LatencyFactor             float64            `yaml:"latency_factor" json:"latency_factor"`
	StrengthOfAssociation     float64            `yaml:"strength_of_association" json:"strength_of_association"`
	RetrievalThreshold        float64            `yaml:"retrieval_threshold" json:"retrieval_threshold"`
	NoiseMagnitude            float64            `yaml:"noise_magnitude" json:"noise_magnitude"`
	NoiseSeed                 uint64             `yaml:"noise_seed" json:"noise_seed"`
	BufferSpreadingActivation map[string]float64 `yaml:"buffer_spreading_activation" json:"buffer_spreading_activation"`
	MotorPrepared             bool               `yaml:"motor_prepared" json:"motor_prepared"`
	ConflictResolution        string             `yaml:"conflict_resolution" json:"conflict_resolution"`

	RuleFiringTime       float64    `yaml:"rule_firing_time" json:"rule_firing_time"`
	RetrievalFailureTime float64    `yaml:"retrieval_failure_time" json:"retrieval_failure_time"`
	MinRetrievalLatency  float64    `yaml:"min_retrieval_latency" json:"min_retrieval_latency"`
	VisualLocationTime   float64    `yaml:"visual_location_time" json:"visual_location_time"`
	VisualEncodingTime   float64    `yaml:"visual_encoding_time" json:"visual_encoding_time"`
	EccentricityFactor   float64    `yaml:"eccentricity_factor" json:"eccentricity_factor"`
	FocusPosition        [2]float64 `yaml:"focus_position,flow" json:"focus_position"`
	ImaginalDelay        float64    `yaml:"imaginal_delay" json:"imaginal_delay"`
	Motor                Motor      `yaml:"motor" json:"motor"`
	StrictHarvesting     bool       `yaml:"strict_harvesting" json:"strict_harvesting"`
	MaxTime              float64    `yaml:"max_time" json:"max_time"`

	Associations []Association `yaml:"associations,omitempty" json:"associations,omitempty"`
	// Vectors is a path to a word-vector table used as the association oracle.
	Vectors string `yaml:"vectors,omitempty" json:"vectors,omitempty"`
	Pairs   []Pair `yaml:"pairs,omitempty" json:"pairs,omitempty"`
}

// Default returns the parameters of the semantic priming experiment.
func Default() Config {
	return Config{
		DecayRate:                 0.5,
		LatencyFactor:             0.63,
		StrengthOfAssociation:     1.6,
		RetrievalThreshold:        -2,
		NoiseMagnitude:            0,
		NoiseSeed:                 1,
		BufferSpreadingActivation: map[string]float64{"imaginal": 1},
		MotorPrepared:             true,
		ConflictResolution:        "rule-order",
		RuleFiringTime:            0.05,
		MinRetrievalLatency:       0.001,
		VisualLocationTime:        0,
		VisualEncodingTime:        0.085,
		ImaginalDelay:             0.2,
		Motor: Motor{
			Preparation: 0.25,
			Initiation:  0.05,
			Execution:   0.05,
		},
		MaxTime: 30,
		Pairs: []Pair{
			{Prime: "body", Target: "abdomen"},
			{Prime: "ability", Target: "capability"},
		},
	}
}

// Load reads a YAML file over the defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result. A
// buffer_spreading_activation mapping replaces the default one.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	spreading := cfg.BufferSpreadingActivation
	cfg.BufferSpreadingActivation = nil

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if cfg.BufferSpreadingActivation == nil {
		cfg.BufferSpreadingActivation = spreading
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects parameter combinations the engine cannot run.
func (c Config) Validate() error {
	nonNegative := map[string]float64{
		"decay_rate":              c.DecayRate,
		"strength_of_association": c.StrengthOfAssociation,
		"latency_factor":          c.LatencyFactor,
		"noise_magnitude":         c.NoiseMagnitude,
		"retrieval_failure_time":  c.RetrievalFailureTime,
		"min_retrieval_latency":   c.MinRetrievalLatency,
		"visual_location_time":    c.VisualLocationTime,
		"visual_encoding_time":    c.VisualEncodingTime,
		"eccentricity_factor":     c.EccentricityFactor,
		"imaginal_delay":          c.ImaginalDelay,
		"motor.preparation":       c.Motor.Preparation,
		"motor.initiation":        c.Motor.Initiation,
		"motor.execution":         c.Motor.Execution,
	}
	for _, name := range sortedKeys(nonNegative) {
		if v := nonNegative[name]; v < 0 || math.IsNaN(v) {
			return fmt.Errorf("invalid config: %s must not be negative (got %v)", name, v)
		}
	}
	if math.IsNaN(c.RetrievalThreshold) {
		return fmt.Errorf("invalid config: retrieval_threshold must be a number")
	}
	for _, name := range sortedKeys(c.BufferSpreadingActivation) {
		if name == "" {
			return fmt.Errorf("invalid config: buffer_spreading_activation has an empty buffer name")
		}
		if w := c.BufferSpreadingActivation[name]; w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("invalid config: buffer_spreading_activation weight of %s must be a non-negative number (got %v)", name, w)
		}
	}
	if !(c.RuleFiringTime > 0) {
		return fmt.Errorf("invalid config: rule_firing_time must be positive (got %v)", c.RuleFiringTime)
	}
	if !(c.MaxTime > 0) {
		return fmt.Errorf("invalid config: max_time must be positive (got %v)", c.MaxTime)
	}
	switch c.ConflictResolution {
	case "", "rule-order", "utility":
	default:
		return fmt.Errorf("invalid config: conflict_resolution %q (valid: rule-order, utility)", c.ConflictResolution)
	}
	for _, p := range c.Pairs {
		if p.Prime == "" || p.Target == "" {
			return fmt.Errorf("invalid config: pair %+v needs prime and target", p)
		}
	}
	return nil
}
