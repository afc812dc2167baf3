package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/maryam97/pyactr/internal/config"
	"github.com/maryam97/pyactr/internal/experiment"
	"github.com/maryam97/pyactr/internal/memory"
)

// SimulateTool handles the simulate_trial MCP tool.
type SimulateTool struct {
	base  config.Config
	assoc memory.Associator
	log   *zap.Logger
}

// NewSimulateTool creates a SimulateTool.
func NewSimulateTool(base config.Config, assoc memory.Associator, log *zap.Logger) *SimulateTool {
	return &SimulateTool{base: base, assoc: assoc, log: log}
}

// Definition returns the MCP tool definition for simulate_trial.
func (t *SimulateTool) Definition() mcp.Tool {
	return mcp.NewTool("simulate_trial",
		mcp.WithDescription(
			"Simulate one semantic priming lexical decision trial. The prime is held in mind "+
				"while the target is read; the model answers J for a word or F for a nonword. "+
				"Returns the key, reaction time and whether the answer was correct.",
		),
		mcp.WithString("prime",
			mcp.Required(),
			mcp.Description("Prime word held in imaginal"),
		),
		mcp.WithString("target",
			mcp.Required(),
			mcp.Description("Target letter string shown on screen"),
		),
		mcp.WithBoolean("nonword",
			mcp.Description("The target is not a word (not stored in memory)"),
		),
		mcp.WithNumber("mas",
			mcp.Description("Strength of association (default from config)"),
		),
		mcp.WithNumber("noise",
			mcp.Description("Activation noise magnitude; 0 is deterministic"),
		),
		mcp.WithNumber("seed",
			mcp.Description("Noise seed"),
		),
		mcp.WithBoolean("trace",
			mcp.Description("Include the event trace"),
		),
	)
}

// Handle processes the simulate_trial tool call.
func (t *SimulateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	prime := req.GetString("prime", "")
	target := req.GetString("target", "")
	if prime == "" || target == "" {
		return mcp.NewToolResultError("'prime' and 'target' are required"), nil
	}

	cfg := t.base
	if v, ok := floatArg(req, "mas"); ok {
		cfg.StrengthOfAssociation = v
	}
	if v, ok := floatArg(req, "noise"); ok {
		cfg.NoiseMagnitude = v
	}
	if v, ok := floatArg(req, "seed"); ok {
		if v < 0 {
			return mcp.NewToolResultError("'seed' must not be negative"), nil
		}
		cfg.NoiseSeed = uint64(v)
	}
	if err := cfg.Validate(); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	m, err := experiment.NewModel(cfg)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("build model: %v", err)), nil
	}
	r := experiment.NewRunner(m)
	r.Log = t.log
	r.Associator = t.assoc
	r.KeepTrace = boolArg(req, "trace", false)

	trial, err := r.Trial(ctx, 1, config.Pair{Prime: prime, Target: target, Nonword: boolArg(req, "nonword", false)})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("simulation failed: %v", err)), nil
	}

	var b strings.Builder
	if trial.Key == "" {
		fmt.Fprintf(&b, "No response within %gs.\n", cfg.MaxTime)
	} else {
		fmt.Fprintf(&b, "Key %s after %.1f ms (correct: %v)\n", trial.Key, trial.RTMillis(), trial.Correct)
	}
	fmt.Fprintf(&b, "prime=%s target=%s nonword=%v mas=%g noise=%g\n",
		prime, target, trial.Nonword, cfg.StrengthOfAssociation, cfg.NoiseMagnitude)
	if len(trial.Trace) > 0 {
		b.WriteString("\n")
		for _, e := range trial.Trace {
			fmt.Fprintln(&b, e)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}
