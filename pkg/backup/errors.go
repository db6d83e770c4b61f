package backup

import "errors"

var (
	// ErrCopyFailed marks a copy that did not complete fully. No metadata
	// is written for a failed copy.
	ErrCopyFailed = errors.New("backup copy failed")

	// ErrMetadataWrite marks a store insert that failed after the copy
	// succeeded. The orphaned copy is removed before this surfaces.
	ErrMetadataWrite = errors.New("backup metadata write failed")
)
