package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maryam97/pyactr/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored runs",
		Run:   runRuns,
	}

	cmd.Flags().StringP("note", "n", "", "Filter by note substring")
	cmd.Flags().IntP("limit", "l", 20, "Max results")
	cmd.Flags().Bool("ids-only", false, "Only output run IDs")

	RootCmd.AddCommand(cmd)
}

func runRuns(cmd *cobra.Command, args []string) {
	note, _ := cmd.Flags().GetString("note")
	limit, _ := cmd.Flags().GetInt("limit")
	idsOnly, _ := cmd.Flags().GetBool("ids-only")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	runs, err := s.ListRuns(cmd.Context(), store.ListParams{Note: note, Limit: limit})
	if err != nil {
		exitErr("list", err)
	}

	if idsOnly {
		for _, r := range runs {
			fmt.Println(r.ID)
		}
		return
	}
	if formatFlag == "text" {
		for _, r := range runs {
			fmt.Printf("%s  %s  trials %d  accuracy %.2f  mean RT %.1f ms  %s\n",
				r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.TrialCount, r.Accuracy, r.MeanRT*1000, r.Note)
		}
		return
	}

	if runs == nil {
		runs = []store.Run{}
	}
	b, _ := json.MarshalIndent(runs, "", "  ")
	fmt.Println(string(b))
}
