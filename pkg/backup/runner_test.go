package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/WyvernIXTL/staggered-file-backup/pkg/backup/retention"
	"github.com/WyvernIXTL/staggered-file-backup/pkg/db/store"
	"github.com/WyvernIXTL/staggered-file-backup/pkg/log"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any)      {}
func (nopLogger) Info(msg string, args ...any)       {}
func (nopLogger) Warn(msg string, args ...any)       {}
func (nopLogger) Error(msg string, args ...any)      {}
func (nopLogger) Fatal(msg string, args ...any)      {}
func (n nopLogger) Named(name string) log.LoggerService { return n }

// faultFS wraps the real filesystem and injects failures.
type faultFS struct {
	*OSFilesystem

	failCopy    bool
	failRemove  map[string]bool
	removeCalls []string
}

func newFaultFS() *faultFS {
	return &faultFS{
		OSFilesystem: NewOSFilesystem(),
		failRemove:   make(map[string]bool),
	}
}

func (f *faultFS) Copy(sourcePath, destPath string) error {
	if f.failCopy {
		return fmt.Errorf("injected copy failure")
	}
	return f.OSFilesystem.Copy(sourcePath, destPath)
}

func (f *faultFS) RemoveFile(path string) error {
	f.removeCalls = append(f.removeCalls, path)
	if f.failRemove[filepath.Base(path)] {
		return fmt.Errorf("injected remove failure")
	}
	return f.OSFilesystem.RemoveFile(path)
}

type testEnv struct {
	runner *Runner
	fs     *faultFS
	source string
	target string
	nextID int
	now    time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	source := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(source, []byte("important notes"), 0644); err != nil {
		t.Fatal(err)
	}

	env := &testEnv{
		fs:     newFaultFS(),
		source: source,
		target: filepath.Join(dir, "backups"),
		now:    time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
	}

	runner := NewRunner(nopLogger{})
	runner.FS = env.fs
	runner.NewID = func() string {
		env.nextID++
		return fmt.Sprintf("00000000-0000-0000-0000-%012d", env.nextID)
	}
	runner.Clock = func() time.Time { return env.now }
	env.runner = runner

	return env
}

func (env *testEnv) run(t *testing.T, policy retention.Policy) *Report {
	t.Helper()
	report, err := env.runner.Run(context.Background(), RunOptions{
		Source: env.source,
		Target: env.target,
		Policy: policy,
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return report
}

func (env *testEnv) storeCount(t *testing.T) int {
	t.Helper()
	st, err := store.Open(context.Background(), env.target)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	records, err := st.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	return len(records)
}

// checkLockstep asserts that every record has a backing file and every
// backup file has a record.
func (env *testEnv) checkLockstep(t *testing.T) {
	t.Helper()

	st, err := store.Open(context.Background(), env.target)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer st.Close()

	records, err := st.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}

	known := make(map[string]bool)
	for _, record := range records {
		known[record.RelativePath] = true
		if _, err := os.Stat(filepath.Join(env.target, record.RelativePath)); err != nil {
			t.Errorf("Record %s has no backing file: %v", record.ID, err)
		}
	}

	entries, err := os.ReadDir(env.target)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), store.DatabaseName) {
			continue
		}
		if !known[entry.Name()] {
			t.Errorf("File %s has no record", entry.Name())
		}
	}
}

func TestRun_CreatesBackupAndRecord(t *testing.T) {
	env := newTestEnv(t)

	report := env.run(t, retention.Policy{Latest: 5})

	if report.NewID == "" || report.BackupPath == "" {
		t.Fatalf("Expected new backup in report, got %+v", report)
	}
	data, err := os.ReadFile(report.BackupPath)
	if err != nil {
		t.Fatalf("Backup file unreadable: %v", err)
	}
	if string(data) != "important notes" {
		t.Errorf("Backup content mismatch: %q", data)
	}

	digest, err := FileSHA256(env.source)
	if err != nil {
		t.Fatal(err)
	}
	if report.SHA256 != digest {
		t.Errorf("Expected digest %s, got %s", digest, report.SHA256)
	}

	if count := env.storeCount(t); count != 1 {
		t.Errorf("Expected 1 record, got %d", count)
	}
	env.checkLockstep(t)
}

func TestRun_CopyFailedLeavesStoreUnchanged(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, retention.Policy{Latest: 5})

	env.fs.failCopy = true
	env.now = env.now.Add(time.Hour)

	_, err := env.runner.Run(context.Background(), RunOptions{
		Source: env.source,
		Target: env.target,
		Policy: retention.Policy{Latest: 5},
	})
	if !errors.Is(err, ErrCopyFailed) {
		t.Fatalf("Expected ErrCopyFailed, got %v", err)
	}

	if count := env.storeCount(t); count != 1 {
		t.Errorf("Expected store unchanged at 1 record, got %d", count)
	}
	env.checkLockstep(t)
}

func TestRun_UnreadableSourceIsCopyFailed(t *testing.T) {
	env := newTestEnv(t)
	env.source = filepath.Join(t.TempDir(), "does-not-exist.txt")

	_, err := env.runner.Run(context.Background(), RunOptions{
		Source: env.source,
		Target: env.target,
		Policy: retention.Policy{Latest: 5},
	})
	if !errors.Is(err, ErrCopyFailed) {
		t.Fatalf("Expected ErrCopyFailed, got %v", err)
	}
	if count := env.storeCount(t); count != 0 {
		t.Errorf("Expected empty store, got %d records", count)
	}
}

func TestRun_MetadataWriteFailedRemovesOrphan(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, retention.Policy{Latest: 5})

	// Same id on the next run forces a duplicate-identity insert failure
	// after a successful copy.
	env.nextID = 0
	env.now = env.now.Add(time.Hour)

	_, err := env.runner.Run(context.Background(), RunOptions{
		Source: env.source,
		Target: env.target,
		Policy: retention.Policy{Latest: 5},
	})
	if !errors.Is(err, ErrMetadataWrite) {
		t.Fatalf("Expected ErrMetadataWrite, got %v", err)
	}

	if count := env.storeCount(t); count != 1 {
		t.Errorf("Expected store unchanged at 1 record, got %d", count)
	}
	// The orphaned copy must be compensated away.
	env.checkLockstep(t)
}

func TestRun_DeleteFailedKeepsRecordAndFile(t *testing.T) {
	env := newTestEnv(t)

	first := env.run(t, retention.Policy{Latest: 5})
	firstName := filepath.Base(first.BackupPath)

	// Next day, latest-only policy of 1: the first backup is marked DELETE
	// but its file refuses to go.
	env.now = env.now.Add(24 * time.Hour)
	env.fs.failRemove[firstName] = true

	report := env.run(t, retention.Policy{Latest: 1})

	if reason, ok := report.FailedDeletes[first.NewID]; !ok {
		t.Fatalf("Expected failed delete for %s, got %+v", first.NewID, report)
	} else if reason == "" {
		t.Error("Expected a failure reason")
	}
	for _, id := range report.Deleted {
		if id == first.NewID {
			t.Error("Failed delete must not be reported as deleted")
		}
	}

	// Row stays while the file is present.
	if count := env.storeCount(t); count != 2 {
		t.Errorf("Expected 2 records (failed delete kept), got %d", count)
	}
	env.checkLockstep(t)
}

func TestRun_AllZeroPolicyDeletesEverything(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, retention.Policy{Latest: 5})
	env.now = env.now.Add(time.Hour)

	report := env.run(t, retention.Policy{})

	if len(report.Kept) != 0 {
		t.Errorf("Expected nothing kept, got %v", report.Kept)
	}
	if len(report.Deleted) != 2 {
		t.Errorf("Expected both records deleted, got %v", report.Deleted)
	}
	if count := env.storeCount(t); count != 0 {
		t.Errorf("Expected empty store, got %d records", count)
	}
	env.checkLockstep(t)
}

func TestRun_StaggeredPruning(t *testing.T) {
	env := newTestEnv(t)
	policy := retention.Policy{Yearly: 1, Monthly: 1, Daily: 2, Latest: 1}

	times := []time.Time{
		time.Date(2025, 7, 20, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 7, 15, 12, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 23, 11, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 24, 11, 0, 0, 0, time.UTC),
		time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
	}
	var report *Report
	for _, at := range times {
		env.now = at
		report = env.run(t, policy)
	}

	// Five records cover latest, two daily days, the monthly and the
	// yearly slot; the 2025 backup falls out once 2026 owns the single
	// yearly slot.
	if len(report.Kept) != 5 {
		t.Errorf("Expected 5 kept records, got %d (%v)", len(report.Kept), report.Kept)
	}
	if count := env.storeCount(t); count != 5 {
		t.Errorf("Expected 5 records after pruning, got %d", count)
	}
	env.checkLockstep(t)
}

func TestPrune_DryRunTouchesNothing(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, retention.Policy{Latest: 5})
	env.now = env.now.Add(time.Hour)
	env.run(t, retention.Policy{Latest: 5})

	report, err := env.runner.Prune(context.Background(), PruneOptions{
		Target: env.target,
		Policy: retention.Policy{},
		DryRun: true,
	})
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}

	if !report.DryRun {
		t.Error("Expected dry-run report")
	}
	if len(report.Deleted) != 2 {
		t.Errorf("Expected 2 records reported for deletion, got %v", report.Deleted)
	}
	if count := env.storeCount(t); count != 2 {
		t.Errorf("Dry run must not touch the store, got %d records", count)
	}
	env.checkLockstep(t)
}

func TestPrune_Deletes(t *testing.T) {
	env := newTestEnv(t)
	env.run(t, retention.Policy{Latest: 5})
	env.now = env.now.Add(time.Hour)
	env.run(t, retention.Policy{Latest: 5})

	report, err := env.runner.Prune(context.Background(), PruneOptions{
		Target: env.target,
		Policy: retention.Policy{Latest: 1},
	})
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}

	if len(report.Kept) != 1 || len(report.Deleted) != 1 {
		t.Errorf("Expected 1 kept and 1 deleted, got %+v", report)
	}
	if count := env.storeCount(t); count != 1 {
		t.Errorf("Expected 1 record, got %d", count)
	}
	env.checkLockstep(t)
}

func TestVerify(t *testing.T) {
	env := newTestEnv(t)
	first := env.run(t, retention.Policy{Latest: 5})
	env.now = env.now.Add(time.Hour)
	second := env.run(t, retention.Policy{Latest: 5})

	report, err := env.runner.Verify(context.Background(), env.target)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if !report.OK() || report.Records != 2 {
		t.Fatalf("Expected clean verification of 2 records, got %+v", report)
	}

	// Remove one backing file, corrupt the other, drop in a stray file.
	if err := os.Remove(first.BackupPath); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second.BackupPath, []byte("tampered"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(env.target, "stray.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	report, err = env.runner.Verify(context.Background(), env.target)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if len(report.MissingFiles) != 1 || report.MissingFiles[0] != first.NewID {
		t.Errorf("Expected missing file for %s, got %v", first.NewID, report.MissingFiles)
	}
	if len(report.DigestMismatches) != 1 || report.DigestMismatches[0] != second.NewID {
		t.Errorf("Expected digest mismatch for %s, got %v", second.NewID, report.DigestMismatches)
	}
	if len(report.UnknownFiles) != 1 || report.UnknownFiles[0] != "stray.txt" {
		t.Errorf("Expected stray.txt as unknown, got %v", report.UnknownFiles)
	}
	if report.OK() {
		t.Error("Expected verification to fail")
	}
}

func TestTargetFileName(t *testing.T) {
	at := time.Date(2026, 8, 24, 12, 30, 45, 0, time.UTC)

	name := TargetFileName(at, "abc-123", "notes.txt")

	if name != "2026-08-24_12-30-45_abc-123_notes.txt" {
		t.Errorf("Unexpected target file name: %s", name)
	}
}
