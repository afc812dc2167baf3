package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maryam97/pyactr/internal/experiment"
	"github.com/maryam97/pyactr/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the priming experiment",
		Long:  "Simulate every prime/target pair and print the summary. Pairs come from the config unless given with --pair.",
		Run:   runRun,
	}

	addParamFlags(cmd)
	cmd.Flags().StringArrayP("pair", "p", nil, "Prime/target pair as prime:target or prime:target:nonword (repeatable)")
	cmd.Flags().Bool("save", false, "Store the run with its traces")
	cmd.Flags().StringP("note", "n", "", "Note stored with the run")

	RootCmd.AddCommand(cmd)
}

func runRun(cmd *cobra.Command, args []string) {
	pairFlags, _ := cmd.Flags().GetStringArray("pair")
	save, _ := cmd.Flags().GetBool("save")
	note, _ := cmd.Flags().GetString("note")

	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	if len(pairFlags) > 0 {
		cfg.Pairs = nil
		for _, p := range pairFlags {
			pair, err := parsePair(p)
			if err != nil {
				exitErr("parse pair", err)
			}
			cfg.Pairs = append(cfg.Pairs, pair)
		}
	}
	if err := applyParamFlags(cmd, &cfg); err != nil {
		exitErr("config", err)
	}

	log := newLogger()
	defer log.Sync()

	m, err := experiment.NewModel(cfg)
	if err != nil {
		exitErr("build model", err)
	}
	r := experiment.NewRunner(m)
	r.Log = log
	r.KeepTrace = save
	if r.Associator, err = associator(cfg, log); err != nil {
		exitErr("association oracle", err)
	}

	sum, err := r.Run(cmd.Context(), cfg.Pairs)
	if err != nil {
		exitErr("run", err)
	}

	var runID string
	if save {
		s, err := openStore()
		if err != nil {
			exitErr("open store", err)
		}
		defer s.Close()
		run, err := s.SaveRun(cmd.Context(), store.SaveParams{Note: note, Config: cfg, Summary: sum})
		if err != nil {
			exitErr("save run", err)
		}
		runID = run.ID
		for i := range sum.Trials {
			sum.Trials[i].Trace = nil
		}
	}

	if formatFlag == "text" {
		printSummary(sum)
		if runID != "" {
			fmt.Printf("saved as %s\n", runID)
		}
		return
	}

	out := struct {
		RunID string `json:"run_id,omitempty"`
		experiment.Summary
	}{runID, sum}
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}

func printSummary(sum experiment.Summary) {
	for _, t := range sum.Trials {
		printTrial(t)
	}
	fmt.Printf("accuracy %.2f  mean RT %.1f ms  (%d/%d responded)\n",
		sum.Accuracy, sum.MeanRT*1000, sum.Responses, len(sum.Trials))
}

func printTrial(t experiment.Trial) {
	key := t.Key
	if key == "" {
		key = "-"
	}
	kind := "word"
	if t.Nonword {
		kind = "nonword"
	}
	fmt.Printf("%3d  %-12s %-12s %-8s key %s  %7.1f ms  correct=%v\n",
		t.Seq, t.Prime, t.Target, kind, key, t.RTMillis(), t.Correct)
}
