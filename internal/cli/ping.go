package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the configured model answers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		client, err := newClient(cmd.Context(), cfg)
		if err != nil {
			return fmt.Errorf("create AI client: %w", err)
		}

		reply, err := client.Ping(cmd.Context())
		if err != nil {
			return fmt.Errorf("ping %s via %s: %w", cfg.AI.Model, client.Name(), err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s (%s via %s)\n", strings.TrimSpace(reply), cfg.AI.Model, client.Name())
		return nil
	},
}

func init() {
	RootCmd.AddCommand(pingCmd)
}
