package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/WyvernIXTL/staggered-file-backup/internal/config"
	"github.com/WyvernIXTL/staggered-file-backup/pkg/backup"
	"github.com/WyvernIXTL/staggered-file-backup/pkg/log"
)

func NewRunCommand() *cobra.Command {
	var nowFlag string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Create a backup and prune old copies",
		Long: `Copy the source file into the target directory as a new timestamped
backup, then delete every older copy the retention policy no longer covers.

Only one process may operate on a target directory at a time.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			source := resolvePath(cmd, "source", cfg.Backup.Source)
			target := resolvePath(cmd, "target", cfg.Backup.Target)
			if source == "" || target == "" {
				return fmt.Errorf("both a source file and a target directory are required")
			}

			now, err := parseNow(nowFlag)
			if err != nil {
				return err
			}

			logger := log.NewLoggerService("sfb", cfg.Log)
			runner := backup.NewRunner(logger)

			report, err := runner.Run(cmd.Context(), backup.RunOptions{
				Source: source,
				Target: target,
				Policy: resolvePolicy(cmd, cfg.Backup.Keep),
				Now:    now,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Backup written: %s\n", report.BackupPath)
			fmt.Printf("Kept %d, deleted %d\n", len(report.Kept), len(report.Deleted))
			for id, reason := range report.FailedDeletes {
				fmt.Printf("Failed to delete %s: %s\n", id, reason)
			}

			return nil
		},
	}

	cmd.Flags().StringP("source", "s", "", "source file to back up")
	cmd.Flags().StringP("target", "t", "", "target directory for backups")
	cmd.Flags().StringVar(&nowFlag, "now", "", "override the current time (RFC 3339, for testing)")
	addPolicyFlags(cmd)

	return cmd
}
