package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/maryam97/pyactr/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize stored runs, trials and trace events",
		Run:   runStats,
	}

	RootCmd.AddCommand(cmd)
}

func runStats(cmd *cobra.Command, args []string) {
	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	st, err := s.Stats(cmd.Context(), getDBPath())
	if err != nil {
		exitErr("stats", err)
	}
	writeStats(os.Stdout, st, formatFlag)
}

// writeStats prints st as indented JSON, or as a short report for
// --format text with one line per event kind.
func writeStats(w io.Writer, st *store.Stats, format string) {
	if format != "text" {
		b, _ := json.MarshalIndent(st, "", "  ")
		fmt.Fprintln(w, string(b))
		return
	}
	fmt.Fprintf(w, "results   %s (%.1f KiB)\n", st.DBPath, float64(st.DBSizeBytes)/1024)
	fmt.Fprintf(w, "runs      %d\n", st.Runs)
	fmt.Fprintf(w, "trials    %d (%d responded)\n", st.Trials, st.Responded)
	fmt.Fprintf(w, "events    %d\n", st.Events)
	for _, k := range st.Kinds {
		fmt.Fprintf(w, "  %-21s %d\n", k.Kind, k.Count)
	}
}
