package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/WyvernIXTL/staggered-file-backup/pkg/db/migrations"
	"github.com/WyvernIXTL/staggered-file-backup/pkg/db/models"
)

// DatabaseName is the metadata store file inside the target directory.
// The .keepme suffix signals that the file must never be pruned.
const DatabaseName = "staggered-file-backup.keepme"

// SQLiteStore implements MetadataStore using SQLite
type SQLiteStore struct {
	db   *gorm.DB
	path string
}

// DB returns the underlying GORM database instance
func (s *SQLiteStore) DB() *gorm.DB {
	return s.db
}

// SQLiteConfig holds SQLite-specific configuration
type SQLiteConfig struct {
	Path     string
	LogLevel logger.LogLevel
}

// NewSQLiteStore creates a new SQLite-backed metadata store
func NewSQLiteStore(cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	// Default to silent logging
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logger.Silent
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: logger.Default.LogMode(cfg.LogLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	return &SQLiteStore{
		db:   db,
		path: cfg.Path,
	}, nil
}

// Open creates the target directory if absent, opens the metadata store
// inside it and brings the schema up to date. Any failure is wrapped in
// ErrInit; no partial state is left behind on a fresh directory.
func Open(ctx context.Context, targetDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(targetDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: failed to create target directory: %v", ErrInit, err)
	}

	s, err := NewSQLiteStore(SQLiteConfig{
		Path: filepath.Join(targetDir, DatabaseName),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInit, err)
	}

	if err := s.Connect(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: %v", ErrInit, err)
	}

	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: %v", ErrInit, err)
	}

	return s, nil
}

// Connect initializes the database connection
func (s *SQLiteStore) Connect(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(1) // SQLite only supports 1 writer
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.Close()
}

// Migrate runs database migrations
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	return migrations.NewMigrator(s.db).Migrate(ctx)
}

// Health checks database connectivity
func (s *SQLiteStore) Health(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database instance: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Insert durably persists a new record. The id and the relative path must
// both be unused; a clash on either reports ErrDuplicateIdentity.
func (s *SQLiteStore) Insert(ctx context.Context, record *models.BackupRecord) error {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&models.BackupRecord{}).
		Where("id = ? OR relative_path = ?", record.ID, record.RelativePath).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("failed to check for existing record: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%w: id=%s path=%s", ErrDuplicateIdentity, record.ID, record.RelativePath)
	}

	return s.db.WithContext(ctx).Create(record).Error
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.BackupRecord, error) {
	var record models.BackupRecord
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id=%s", ErrNotFound, id)
		}
		return nil, err
	}
	return &record, nil
}

// ListAll returns every known record in no particular order. Callers sort.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]models.BackupRecord, error) {
	var records []models.BackupRecord
	err := s.db.WithContext(ctx).Find(&records).Error
	return records, err
}

// Remove deletes a record. Removal of an absent id reports ErrNotFound;
// callers needing idempotence must check existence first.
func (s *SQLiteStore) Remove(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Delete(&models.BackupRecord{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: id=%s", ErrNotFound, id)
	}
	return nil
}
