package cli

import (
	"fmt"

	"github.com/kiranshivaraju/contractscan/internal/prompt"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "contractscan %s (commit %s, prompt %s)\n", Version, Commit, prompt.Version)
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}
