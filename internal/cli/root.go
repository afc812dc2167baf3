// Package cli implements the actr-sim CLI commands.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/maryam97/pyactr/internal/config"
	"github.com/maryam97/pyactr/internal/embedding"
	"github.com/maryam97/pyactr/internal/memory"
	"github.com/maryam97/pyactr/internal/store"
)

var (
	dbPath     string
	formatFlag string
	configPath string
	verbose    bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "actr-sim",
	Short: "Production-rule cognitive simulation",
	Long:  "Simulates the semantic priming lexical decision task with a production-rule cognitive model. Runs are stored in SQLite.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $ACTR_SIM_DB or ~/.actr-sim/results.db)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML parameter file (default: built-in priming parameters)")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every simulation event to stderr")
}

func getDBPath() string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("ACTR_SIM_DB"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".actr-sim", "results.db")
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(getDBPath())
}

func loadConfig() (config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	return config.Load(configPath)
}

func newLogger() *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	log, err := zap.NewDevelopment()
	if err != nil {
		exitErr("create logger", err)
	}
	return log
}

// associator picks the association oracle: a word vector file from the
// config, then an embedding provider from the environment. Nil leaves the
// config's association table in charge.
func associator(cfg config.Config, log *zap.Logger) (memory.Associator, error) {
	if cfg.Vectors != "" {
		tab, err := embedding.LoadVectors(cfg.Vectors)
		if err != nil {
			return nil, err
		}
		return embedding.NewOracle(tab, embedding.WithLogger(log)), nil
	}
	src, err := embedding.FromEnv()
	if err != nil || src == nil {
		return nil, err
	}
	return embedding.NewOracle(src, embedding.WithLogger(log)), nil
}

// parsePair reads "prime:target" or "prime:target:nonword".
func parsePair(s string) (config.Pair, error) {
	parts := strings.Split(s, ":")
	switch {
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return config.Pair{Prime: parts[0], Target: parts[1]}, nil
	case len(parts) == 3 && parts[0] != "" && parts[1] != "" && parts[2] == "nonword":
		return config.Pair{Prime: parts[0], Target: parts[1], Nonword: true}, nil
	default:
		return config.Pair{}, fmt.Errorf("invalid pair %q (want prime:target or prime:target:nonword)", s)
	}
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
