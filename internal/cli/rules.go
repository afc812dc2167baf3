package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/maryam97/pyactr/internal/experiment"
	"github.com/maryam97/pyactr/internal/production"
)

func init() {
	cmd := &cobra.Command{
		Use:   "rules [file]",
		Short: "Print or check production rules",
		Long:  "Without arguments, print the built-in priming rules. With a file, parse it and report the rules it defines.",
		Args:  cobra.MaximumNArgs(1),
		Run:   runRules,
	}

	RootCmd.AddCommand(cmd)
}

func runRules(cmd *cobra.Command, args []string) {
	text := experiment.Rules()
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			exitErr("read rules", err)
		}
		text = string(data)
	} else if formatFlag == "text" {
		fmt.Print(text)
		return
	}

	rules, err := production.ParseRules(text)
	if err != nil {
		exitErr("parse rules", err)
	}

	type ruleInfo struct {
		Name       string   `json:"name"`
		Utility    float64  `json:"utility"`
		Conditions int      `json:"conditions"`
		Actions    int      `json:"actions"`
		Buffers    []string `json:"buffers"`
	}
	out := make([]ruleInfo, 0, len(rules))
	for _, r := range rules {
		info := ruleInfo{Name: r.Name, Utility: r.Utility, Conditions: len(r.Conditions), Actions: len(r.Actions)}
		seen := map[string]bool{}
		for _, c := range r.Conditions {
			if !seen[c.Buffer] {
				seen[c.Buffer] = true
				info.Buffers = append(info.Buffers, c.Buffer)
			}
		}
		for _, a := range r.Actions {
			if !seen[a.Buffer] {
				seen[a.Buffer] = true
				info.Buffers = append(info.Buffers, a.Buffer)
			}
		}
		out = append(out, info)
	}

	if formatFlag == "text" {
		for _, r := range out {
			fmt.Printf("%-20s utility %g  %d conditions  %d actions  %v\n", r.Name, r.Utility, r.Conditions, r.Actions, r.Buffers)
		}
		return
	}
	b, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(b))
}
