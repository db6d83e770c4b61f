package store

import "errors"

var (
	// ErrInit marks a store that could not be opened, pinged or migrated
	// (unwritable target directory, incompatible schema version).
	ErrInit = errors.New("metadata store initialization failed")

	// ErrDuplicateIdentity marks an insert whose id or relative path
	// already exists.
	ErrDuplicateIdentity = errors.New("duplicate backup identity")

	// ErrNotFound marks a removal of an id that is not in the store.
	ErrNotFound = errors.New("backup record not found")
)
