package cli

import (
	"github.com/spf13/cobra"

	"github.com/maryam97/pyactr/internal/config"
)

func addParamFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("mas", 0, "Strength of association (overrides config)")
	cmd.Flags().Float64("noise", 0, "Activation noise magnitude (overrides config)")
	cmd.Flags().Uint64("seed", 0, "Noise seed (overrides config)")
	cmd.Flags().String("conflict", "", "Conflict resolution: rule-order or utility")
}

// applyParamFlags copies explicitly set parameter flags over cfg.
func applyParamFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	if f.Changed("mas") {
		cfg.StrengthOfAssociation, _ = f.GetFloat64("mas")
	}
	if f.Changed("noise") {
		cfg.NoiseMagnitude, _ = f.GetFloat64("noise")
	}
	if f.Changed("seed") {
		cfg.NoiseSeed, _ = f.GetUint64("seed")
	}
	if f.Changed("conflict") {
		cfg.ConflictResolution, _ = f.GetString("conflict")
	}
	return cfg.Validate()
}
