package cli

import (
	"github.com/spf13/cobra"

	"github.com/maryam97/pyactr/internal/server"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve simulation tools over MCP (stdio)",
		Long:  "Run a Model Context Protocol server on stdin/stdout exposing simulate_trial and list_runs.",
		Run:   runServe,
	}

	addParamFlags(cmd)

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig()
	if err != nil {
		exitErr("load config", err)
	}
	if err := applyParamFlags(cmd, &cfg); err != nil {
		exitErr("config", err)
	}

	// stdout carries the protocol; the development logger writes to stderr.
	log := newLogger()
	defer log.Sync()

	assoc, err := associator(cfg, log)
	if err != nil {
		exitErr("association oracle", err)
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	srv := server.New(server.Deps{Config: cfg, Runs: s, Associator: assoc, Log: log})
	if err := server.Serve(srv); err != nil {
		exitErr("serve", err)
	}
}
