// Package main is the entrypoint for the contractscan CLI.
package main

import (
	"os"

	"github.com/kiranshivaraju/contractscan/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
