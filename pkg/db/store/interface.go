package store

import (
	"context"

	"github.com/WyvernIXTL/staggered-file-backup/pkg/db/models"
)

// MetadataStore is the durable bookkeeping of which backup copies exist.
// All mutations are durable before the call returns; the orchestrator
// treats store state as ground truth for the target directory.
type MetadataStore interface {
	// Lifecycle
	Connect(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error
	Health(ctx context.Context) error

	// Record operations
	Insert(ctx context.Context, record *models.BackupRecord) error
	Get(ctx context.Context, id string) (*models.BackupRecord, error)
	ListAll(ctx context.Context) ([]models.BackupRecord, error)
	Remove(ctx context.Context, id string) error
}
