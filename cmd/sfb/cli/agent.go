package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/WyvernIXTL/staggered-file-backup/internal/agent"
	"github.com/WyvernIXTL/staggered-file-backup/internal/config"
)

func NewAgentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Run backups continuously",
		Long: `Run as a long-lived agent that backs up the configured source file on a
cron schedule, on file changes, or both (backup.schedule / backup.watch).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			agent := agent.NewAgent(cfg)
			if err := agent.Serve(context.Background()); err != nil {
				return err
			}

			return nil
		},
	}

	return cmd
}
