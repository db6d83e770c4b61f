package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/WyvernIXTL/staggered-file-backup/pkg/backup/retention"
	"github.com/WyvernIXTL/staggered-file-backup/pkg/db/models"
	"github.com/WyvernIXTL/staggered-file-backup/pkg/db/store"
	"github.com/WyvernIXTL/staggered-file-backup/pkg/log"
)

// Runner orchestrates one backup invocation: register the new copy, then
// prune everything the retention classifier marks DELETE.
//
// A runner owns no cross-invocation state; the metadata store is opened and
// closed around each call. Concurrent invocations against the same target
// directory are not supported (single active process per target directory).
type Runner struct {
	FS    Filesystem
	NewID IDProvider
	Clock Clock

	log log.LoggerService
}

func NewRunner(logger log.LoggerService) *Runner {
	return &Runner{
		FS:    NewOSFilesystem(),
		NewID: defaultIDProvider,
		Clock: defaultClock,
		log:   logger,
	}
}

type RunOptions struct {
	Source string
	Target string
	Policy retention.Policy

	// Now overrides the runner clock when non-zero.
	Now time.Time
}

type PruneOptions struct {
	Target string
	Policy retention.Policy
	Now    time.Time
	DryRun bool
}

// Run copies the source file into the target directory, records it in the
// metadata store and applies the retention policy over the updated set.
//
// Copy and metadata failures abort before any pruning; pruning never runs
// against a state the new backup failed to join. Per-record delete failures
// are non-fatal and reported in the returned Report.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (*Report, error) {
	now := opts.Now
	if now.IsZero() {
		now = r.Clock()
	}
	now = now.UTC()

	st, err := store.Open(ctx, opts.Target)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	r.log.Info("Source file: %s", opts.Source)
	sourceDigest, err := FileSHA256(opts.Source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCopyFailed, err)
	}
	r.log.Debug("Source sha256: %s", sourceDigest)

	id := r.NewID()
	relativePath := TargetFileName(now, id, filepath.Base(opts.Source))
	destPath := filepath.Join(opts.Target, relativePath)

	r.log.Info("Copying '%s' to '%s'", opts.Source, destPath)
	if err := r.FS.Copy(opts.Source, destPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCopyFailed, err)
	}

	copyDigest, err := FileSHA256(destPath)
	if err != nil || copyDigest != sourceDigest {
		if removeErr := r.FS.RemoveFile(destPath); removeErr != nil {
			r.log.Error("Failed to remove unverified copy %s: %v", destPath, removeErr)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: failed to verify copy: %v", ErrCopyFailed, err)
		}
		return nil, fmt.Errorf("%w: digest mismatch after copy (source %s, copy %s)", ErrCopyFailed, sourceDigest, copyDigest)
	}

	record := &models.BackupRecord{
		ID:           id,
		RelativePath: relativePath,
		CreatedAt:    now,
		SHA256:       sourceDigest,
		KeepYearly:   opts.Policy.Yearly,
		KeepMonthly:  opts.Policy.Monthly,
		KeepDaily:    opts.Policy.Daily,
		KeepLatest:   opts.Policy.Latest,
	}

	if err := st.Insert(ctx, record); err != nil {
		// Compensate: store and filesystem must never diverge, so the
		// orphaned copy goes before the error surfaces.
		if removeErr := r.FS.RemoveFile(destPath); removeErr != nil {
			r.log.Error("Failed to remove orphaned copy %s: %v", destPath, removeErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrMetadataWrite, err)
	}

	report, err := r.applyRetention(ctx, st, opts.Target, opts.Policy, now, false)
	if err != nil {
		return nil, err
	}

	report.BackupPath = destPath
	report.NewID = id
	report.SHA256 = sourceDigest
	return report, nil
}

// Prune applies the retention policy without creating a new backup copy.
func (r *Runner) Prune(ctx context.Context, opts PruneOptions) (*Report, error) {
	now := opts.Now
	if now.IsZero() {
		now = r.Clock()
	}
	now = now.UTC()

	st, err := store.Open(ctx, opts.Target)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	return r.applyRetention(ctx, st, opts.Target, opts.Policy, now, opts.DryRun)
}

func (r *Runner) applyRetention(ctx context.Context, st store.MetadataStore, target string, policy retention.Policy, now time.Time, dryRun bool) (*Report, error) {
	records, err := st.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list backup records: %w", err)
	}

	verdicts := retention.Classify(now, records, policy)

	// Stable report and delete order: newest first, id as tie-break.
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})

	report := &Report{
		FailedDeletes: make(map[string]string),
		DryRun:        dryRun,
	}

	for _, record := range records {
		if verdicts[record.ID] == retention.Keep {
			r.log.Debug("KEEP %s (%s)", record.RelativePath, record.ID)
			report.Kept = append(report.Kept, record.ID)
			continue
		}

		if dryRun {
			r.log.Info("Would delete %s (%s)", record.RelativePath, record.ID)
			report.Deleted = append(report.Deleted, record.ID)
			continue
		}

		path := filepath.Join(target, record.RelativePath)
		r.log.Info("Deleting %s (%s)", record.RelativePath, record.ID)

		// File first, row second: a failed file removal keeps the row so
		// the store never claims less than what is on disk. A file that is
		// already gone (crash between file removal and row removal on a
		// previous run) heals here instead of failing forever.
		if err := r.FS.RemoveFile(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			r.log.Error("Failed to delete %s: %v", path, err)
			report.FailedDeletes[record.ID] = err.Error()
			continue
		}

		if err := st.Remove(ctx, record.ID); err != nil {
			r.log.Error("Failed to remove record %s: %v", record.ID, err)
			report.FailedDeletes[record.ID] = err.Error()
			continue
		}

		report.Deleted = append(report.Deleted, record.ID)
	}

	return report, nil
}
