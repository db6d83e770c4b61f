package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/WyvernIXTL/staggered-file-backup/internal/config"
	"github.com/WyvernIXTL/staggered-file-backup/pkg/backup"
	"github.com/WyvernIXTL/staggered-file-backup/pkg/log"
)

func NewVerifyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that store and target directory agree",
		Long: `Cross-check the metadata store against the target directory: every
record must have a backing file matching its recorded checksum, and every
file must have a record. Exits non-zero when any divergence is found.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			target := resolvePath(cmd, "target", cfg.Backup.Target)
			if target == "" {
				return fmt.Errorf("a target directory is required")
			}

			logger := log.NewLoggerService("sfb", cfg.Log)
			runner := backup.NewRunner(logger)

			report, err := runner.Verify(cmd.Context(), target)
			if err != nil {
				return err
			}

			for _, id := range report.MissingFiles {
				fmt.Printf("Missing file for record: %s\n", id)
			}
			for _, name := range report.UnknownFiles {
				fmt.Printf("File without record: %s\n", name)
			}
			for _, id := range report.DigestMismatches {
				fmt.Printf("Checksum mismatch: %s\n", id)
			}

			if !report.OK() {
				return fmt.Errorf("target directory and metadata store diverged")
			}

			fmt.Printf("%d backup(s) verified\n", report.Records)
			return nil
		},
	}

	cmd.Flags().StringP("target", "t", "", "target directory for backups")

	return cmd
}
