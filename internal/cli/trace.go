package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maryam97/pyactr/internal/model"
	"github.com/maryam97/pyactr/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "trace <trial-id>",
		Short: "Print the stored event trace of a trial",
		Args:  cobra.ExactArgs(1),
		Run:   runTrace,
	}

	cmd.Flags().StringSliceP("kind", "k", nil, "Only these event kinds (module-request-issued, module-completion, production-fired, buffer-state-changed)")

	RootCmd.AddCommand(cmd)
}

func runTrace(cmd *cobra.Command, args []string) {
	kindNames, _ := cmd.Flags().GetStringSlice("kind")

	var kinds []model.EventKind
	for _, name := range kindNames {
		k, ok := model.ParseEventKind(name)
		if !ok {
			exitErr("parse kind", fmt.Errorf("unknown event kind %q", name))
		}
		kinds = append(kinds, k)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	events, err := s.Trace(cmd.Context(), store.TraceParams{TrialID: args[0], Kinds: kinds})
	if err != nil {
		exitErr("trace", err)
	}

	if formatFlag == "text" {
		for _, e := range events {
			fmt.Println(e)
		}
		return
	}
	if events == nil {
		events = []model.Event{}
	}
	b, _ := json.MarshalIndent(events, "", "  ")
	fmt.Println(string(b))
}
