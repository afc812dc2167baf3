package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maryam97/pyactr/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "search [phrase]",
		Short: "Search stored traces",
		Long:  "Full-text search over the details of stored events, e.g. \"RETRIEVED: None\" or a rule name.",
		Args:  cobra.MinimumNArgs(1),
		Run:   runSearch,
	}

	cmd.Flags().String("run", "", "Only events of this run")
	cmd.Flags().StringP("kind", "k", "", "Filter by event kind")
	cmd.Flags().IntP("limit", "l", 20, "Max results")

	RootCmd.AddCommand(cmd)
}

func runSearch(cmd *cobra.Command, args []string) {
	runID, _ := cmd.Flags().GetString("run")
	kind, _ := cmd.Flags().GetString("kind")
	limit, _ := cmd.Flags().GetInt("limit")
	query := strings.Join(args, " ")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	hits, err := s.SearchEvents(cmd.Context(), store.SearchParams{
		Query: query,
		RunID: runID,
		Kind:  kind,
		Limit: limit,
	})
	if err != nil {
		exitErr("search", err)
	}

	if formatFlag == "text" {
		for _, h := range hits {
			fmt.Printf("%s trial %d  %s\n", h.RunID, h.Trial, h.Event)
		}
		return
	}
	if len(hits) == 0 {
		fmt.Println("[]")
		return
	}

	b, _ := json.MarshalIndent(hits, "", "  ")
	fmt.Println(string(b))
}
