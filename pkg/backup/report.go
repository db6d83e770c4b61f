package backup

// Report summarizes one orchestrator invocation. Delete failures are
// non-fatal and carried per id; the metadata row of a failed delete is left
// intact so store and filesystem stay in lockstep.
type Report struct {
	// New backup copy, empty for prune-only invocations.
	BackupPath string
	NewID      string
	SHA256     string

	Kept          []string
	Deleted       []string
	FailedDeletes map[string]string

	// DryRun reports what would be deleted without touching anything.
	DryRun bool
}

// VerifyReport lists every divergence between the metadata store and the
// target directory.
type VerifyReport struct {
	// Records whose backing file is missing.
	MissingFiles []string
	// Files in the target directory with no record.
	UnknownFiles []string
	// Records whose backing file no longer matches its stored digest.
	DigestMismatches []string

	Records int
}

func (r *VerifyReport) OK() bool {
	return len(r.MissingFiles) == 0 && len(r.UnknownFiles) == 0 && len(r.DigestMismatches) == 0
}
