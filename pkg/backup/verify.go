package backup

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/WyvernIXTL/staggered-file-backup/pkg/db/store"
)

// Verify cross-checks the metadata store against the target directory:
// every record must have a backing file with the recorded digest, and every
// file must have a record. The metadata database and its SQLite sidecars
// are exempt.
func (r *Runner) Verify(ctx context.Context, target string) (*VerifyReport, error) {
	st, err := store.Open(ctx, target)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	records, err := st.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	report := &VerifyReport{Records: len(records)}

	known := make(map[string]bool, len(records))
	for _, record := range records {
		known[record.RelativePath] = true

		path := filepath.Join(target, record.RelativePath)
		if _, err := os.Stat(path); err != nil {
			r.log.Error("Record %s has no backing file: %s", record.ID, record.RelativePath)
			report.MissingFiles = append(report.MissingFiles, record.ID)
			continue
		}

		digest, err := FileSHA256(path)
		if err != nil || digest != record.SHA256 {
			r.log.Error("Digest mismatch for %s (%s)", record.RelativePath, record.ID)
			report.DigestMismatches = append(report.DigestMismatches, record.ID)
		}
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if entry.IsDir() || known[entry.Name()] || isStoreFile(entry.Name()) {
			continue
		}
		r.log.Warn("File without record: %s", entry.Name())
		report.UnknownFiles = append(report.UnknownFiles, entry.Name())
	}

	sort.Strings(report.MissingFiles)
	sort.Strings(report.UnknownFiles)
	sort.Strings(report.DigestMismatches)
	return report, nil
}

func isStoreFile(name string) bool {
	return strings.HasPrefix(name, store.DatabaseName)
}
