package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/WyvernIXTL/staggered-file-backup/internal/config"
	"github.com/WyvernIXTL/staggered-file-backup/pkg/backup"
	"github.com/WyvernIXTL/staggered-file-backup/pkg/log"
)

func NewPruneCommand() *cobra.Command {
	var nowFlag string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Apply the retention policy without creating a new backup",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			target := resolvePath(cmd, "target", cfg.Backup.Target)
			if target == "" {
				return fmt.Errorf("a target directory is required")
			}

			now, err := parseNow(nowFlag)
			if err != nil {
				return err
			}

			logger := log.NewLoggerService("sfb", cfg.Log)
			runner := backup.NewRunner(logger)

			report, err := runner.Prune(cmd.Context(), backup.PruneOptions{
				Target: target,
				Policy: resolvePolicy(cmd, cfg.Backup.Keep),
				Now:    now,
				DryRun: dryRun,
			})
			if err != nil {
				return err
			}

			if report.DryRun {
				fmt.Printf("Would keep %d, would delete %d\n", len(report.Kept), len(report.Deleted))
			} else {
				fmt.Printf("Kept %d, deleted %d\n", len(report.Kept), len(report.Deleted))
			}
			for id, reason := range report.FailedDeletes {
				fmt.Printf("Failed to delete %s: %s\n", id, reason)
			}

			return nil
		},
	}

	cmd.Flags().StringP("target", "t", "", "target directory for backups")
	cmd.Flags().StringVar(&nowFlag, "now", "", "override the current time (RFC 3339, for testing)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be deleted without deleting")
	addPolicyFlags(cmd)

	return cmd
}
