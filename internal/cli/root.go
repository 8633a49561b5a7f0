// Package cli implements the contractscan command-line tool.
package cli

import (
	"context"
	"os"

	"github.com/kiranshivaraju/contractscan/internal/ai"
	"github.com/kiranshivaraju/contractscan/internal/config"
	"github.com/kiranshivaraju/contractscan/internal/logging"
	"github.com/spf13/cobra"
)

var (
	Version = "dev"
	Commit  = "none"
)

// newClient builds the model client from configuration. Tests replace it.
var newClient = func(ctx context.Context, cfg *config.Config) (*ai.Client, error) {
	return ai.NewFromConfig(ctx, cfg.AI)
}

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:     "contractscan",
	Version: Version,
	Short:   "Analyze contracts for legal risk with Gemini",
	Long: `contractscan extracts the text of a PDF or TXT contract, asks Gemini for a
structured risk analysis under Iranian civil law and prints the report.`,
	SilenceUsage: true,
}

// Execute runs RootCmd. Called once by main.main.
func Execute() error {
	return RootCmd.Execute()
}

// loadConfig loads configuration and installs a logger on stderr so that
// command output on stdout stays machine-readable.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Init(os.Stderr, cfg.Log)
	return cfg, nil
}
