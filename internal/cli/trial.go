package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maryam97/pyactr/internal/config"
	"github.com/maryam97/pyactr/internal/experiment"
)

func init() {
	cmd := &cobra.Command{
		Use:   "trial <prime> <target>",
		Short: "Simulate a single trial",
		Args:  cobra.ExactArgs(2),
		Run:   runTrial,
	}

	addParamFlags(cmd)
	cmd.Flags().Bool("nonword", false, "The target is not a word")
	cmd.Flags().Bool("trace", false, "Include the event trace")

	RootCmd.AddCommand(cmd)
}

func runTrial(cmd *cobra.Command, args []string) {
	nonword, _ := cmd.Flags().GetBool("nonword")
	trace, _ := cmd.Flags().GetBool("trace")

	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
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
	r.KeepTrace = trace
	if r.Associator, err = associator(cfg, log); err != nil {
		exitErr("association oracle", err)
	}

	t, err := r.Trial(cmd.Context(), 1, config.Pair{Prime: args[0], Target: args[1], Nonword: nonword})
	if err != nil {
		exitErr("trial", err)
	}

	if formatFlag == "text" {
		for _, e := range t.Trace {
			fmt.Println(e)
		}
		printTrial(t)
		return
	}
	b, _ := json.MarshalIndent(t, "", "  ")
	fmt.Println(string(b))
}
