package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.LatencyFactor != 0.63 || cfg.StrengthOfAssociation != 1.6 || cfg.RetrievalThreshold != -2 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.BufferSpreadingActivation["imaginal"] != 1 {
		t.Errorf("expected imaginal spreading weight 1, got %v", cfg.BufferSpreadingActivation)
	}
	if len(cfg.Pairs) != 2 {
		t.Errorf("expected 2 default pairs, got %d", len(cfg.Pairs))
	}
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
strength_of_association: 3
noise_magnitude: 0.25
noise_seed: 42
buffer_spreading_activation:
  goal: 0.5
motor:
  preparation: 0.3
pairs:
  - prime: doctor
    target: nurse
  - prime: doctor
    target: blark
    nonword: true
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.StrengthOfAssociation != 3 || cfg.NoiseMagnitude != 0.25 || cfg.NoiseSeed != 42 {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if _, ok := cfg.BufferSpreadingActivation["imaginal"]; ok {
		t.Error("expected spreading map to replace the default")
	}
	if cfg.BufferSpreadingActivation["goal"] != 0.5 {
		t.Errorf("expected goal weight 0.5, got %v", cfg.BufferSpreadingActivation)
	}
	if cfg.Motor.Preparation != 0.3 || cfg.Motor.Initiation != 0.05 {
		t.Errorf("expected partial motor override, got %+v", cfg.Motor)
	}
	if cfg.LatencyFactor != 0.63 {
		t.Errorf("expected untouched default latency_factor, got %v", cfg.LatencyFactor)
	}
	if len(cfg.Pairs) != 2 || !cfg.Pairs[1].Nonword || cfg.Pairs[0].Target != "nurse" {
		t.Errorf("unexpected pairs: %+v", cfg.Pairs)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"negative decay", "decay_rate: -1", "decay_rate"},
		{"zero firing time", "rule_firing_time: 0", "rule_firing_time"},
		{"bad mode", "conflict_resolution: random", "conflict_resolution"},
		{"zero max time", "max_time: 0", "max_time"},
		{"incomplete pair", "pairs:\n  - prime: a", "pair"},
		{"bad yaml", "decay_rate: [", "parse config"},
		{"negative mas", "strength_of_association: -1", "strength_of_association"},
		{"nan mas", "strength_of_association: .nan", "strength_of_association"},
		{"nan threshold", "retrieval_threshold: .nan", "retrieval_threshold"},
		{"negative spreading weight", "buffer_spreading_activation:\n  imaginal: -1", "imaginal"},
		{"nan max time", "max_time: .nan", "max_time"},
		{"nan spreading weight", "buffer_spreading_activation:\n  imaginal: .nan", "imaginal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sim.yaml")
	if err := os.WriteFile(path, []byte("retrieval_threshold: -1.5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RetrievalThreshold != -1.5 {
		t.Errorf("expected -1.5, got %v", cfg.RetrievalThreshold)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
