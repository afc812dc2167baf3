package main

import (
	"os"

	"github.com/maryam97/pyactr/internal/cli"
)

func main() {
	if err := cli.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
