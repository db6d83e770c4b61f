package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/WyvernIXTL/staggered-file-backup/internal/config"
	"github.com/WyvernIXTL/staggered-file-backup/pkg/backup/retention"
)

func addPolicyFlags(cmd *cobra.Command) {
	defaults := config.GetDefault().Backup.Keep

	cmd.Flags().Uint("keep-yearly", defaults.Yearly, "number of yearly backups to keep (0 disables the tier)")
	cmd.Flags().Uint("keep-monthly", defaults.Monthly, "number of monthly backups to keep (0 disables the tier)")
	cmd.Flags().Uint("keep-daily", defaults.Daily, "number of daily backups to keep (0 disables the tier)")
	cmd.Flags().Uint("keep-latest", defaults.Latest, "number of newest backups to keep unconditionally")
}

// resolvePolicy starts from the configured quotas and applies every policy
// flag that was set explicitly on the command line.
func resolvePolicy(cmd *cobra.Command, keep config.KeepConfig) retention.Policy {
	policy := retention.Policy{
		Yearly:  keep.Yearly,
		Monthly: keep.Monthly,
		Daily:   keep.Daily,
		Latest:  keep.Latest,
	}

	if cmd.Flags().Changed("keep-yearly") {
		policy.Yearly, _ = cmd.Flags().GetUint("keep-yearly")
	}
	if cmd.Flags().Changed("keep-monthly") {
		policy.Monthly, _ = cmd.Flags().GetUint("keep-monthly")
	}
	if cmd.Flags().Changed("keep-daily") {
		policy.Daily, _ = cmd.Flags().GetUint("keep-daily")
	}
	if cmd.Flags().Changed("keep-latest") {
		policy.Latest, _ = cmd.Flags().GetUint("keep-latest")
	}

	return policy
}

// parseNow parses the optional --now override (RFC 3339). An empty value
// yields the zero time, which the runner replaces with its clock.
func parseNow(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}

	now, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now value %q (expected RFC 3339): %w", value, err)
	}
	return now, nil
}

// resolvePath prefers an explicitly set flag over the configured value.
func resolvePath(cmd *cobra.Command, flag, configured string) string {
	if cmd.Flags().Changed(flag) {
		value, _ := cmd.Flags().GetString(flag)
		return value
	}
	return configured
}
