package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"
)

// TargetFileName builds the relative path of a new backup copy. The UTC
// timestamp keeps directory listings chronological, the id guarantees
// uniqueness, the basename keeps the file recognizable.
func TargetFileName(createdAt time.Time, id, sourceBase string) string {
	return fmt.Sprintf("%s_%s_%s", createdAt.UTC().Format("2006-01-02_15-04-05"), id, sourceBase)
}

// FileSHA256 returns the hex SHA-256 digest of a file's contents.
func FileSHA256(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to hash file contents: %w", err)
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}
