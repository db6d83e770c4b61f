package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/WyvernIXTL/staggered-file-backup/internal/config"
	"github.com/WyvernIXTL/staggered-file-backup/pkg/db/store"
)

func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List known backups in a target directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			target := resolvePath(cmd, "target", cfg.Backup.Target)
			if target == "" {
				return fmt.Errorf("a target directory is required")
			}

			st, err := store.Open(cmd.Context(), target)
			if err != nil {
				return err
			}
			defer st.Close()

			records, err := st.ListAll(cmd.Context())
			if err != nil {
				return err
			}

			sort.Slice(records, func(i, j int) bool {
				if records[i].CreatedAt.Equal(records[j].CreatedAt) {
					return records[i].ID < records[j].ID
				}
				return records[i].CreatedAt.After(records[j].CreatedAt)
			})

			fmt.Printf("%-36s  %-20s  %s\n", "ID", "CREATED", "PATH")
			for _, record := range records {
				fmt.Printf("%-36s  %-20s  %s\n",
					record.ID,
					record.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
					record.RelativePath)
			}
			fmt.Printf("%d backup(s)\n", len(records))

			return nil
		},
	}

	cmd.Flags().StringP("target", "t", "", "target directory for backups")

	return cmd
}
