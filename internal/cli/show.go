package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a stored run and its trials",
		Args:  cobra.ExactArgs(1),
		Run:   runShow,
	}

	RootCmd.AddCommand(cmd)
}

func runShow(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	run, err := s.GetRun(cmd.Context(), args[0])
	if err != nil {
		exitErr("show", err)
	}

	if formatFlag == "text" {
		fmt.Printf("run %s  %s  %s\n", run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"), run.Note)
		for _, t := range run.Trials {
			fmt.Printf("  trial %s  (%d events)\n", t.ID, t.EventCount)
			printTrial(t.Trial)
		}
		fmt.Printf("accuracy %.2f  mean RT %.1f ms  (%d/%d responded)\n",
			run.Accuracy, run.MeanRT*1000, run.Responses, run.TrialCount)
		return
	}

	b, _ := json.MarshalIndent(run, "", "  ")
	fmt.Println(string(b))
}
