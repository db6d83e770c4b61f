package backup

import (
	"fmt"
	"io"
	"os"
)

// Filesystem is the collaborator executing file operations for the
// orchestrator. Implementations must not report partial copies as success.
type Filesystem interface {
	Copy(sourcePath, destPath string) error
	RemoveFile(path string) error
	CreateDirIfAbsent(path string) error
}

// OSFilesystem implements Filesystem on the local filesystem.
type OSFilesystem struct{}

func NewOSFilesystem() *OSFilesystem {
	return &OSFilesystem{}
}

func (fs *OSFilesystem) Copy(sourcePath, destPath string) error {
	source, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer source.Close()

	dest, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("failed to create target file: %w", err)
	}

	if _, err := io.Copy(dest, source); err != nil {
		dest.Close()
		os.Remove(destPath)
		return fmt.Errorf("failed to copy file contents: %w", err)
	}

	// Flush to disk so a reported success is durable.
	if err := dest.Sync(); err != nil {
		dest.Close()
		os.Remove(destPath)
		return fmt.Errorf("failed to sync target file: %w", err)
	}

	if err := dest.Close(); err != nil {
		os.Remove(destPath)
		return fmt.Errorf("failed to close target file: %w", err)
	}

	return nil
}

func (fs *OSFilesystem) RemoveFile(path string) error {
	return os.Remove(path)
}

func (fs *OSFilesystem) CreateDirIfAbsent(path string) error {
	return os.MkdirAll(path, 0755)
}
