package models

import (
	"time"
)

// BackupRecord is one stored backup copy of the source file.
//
// The four Keep* columns snapshot the retention quotas that were in effect
// when this record was inserted. They are historical bookkeeping and are
// never mutated; classification always runs with the quotas of the current
// invocation.
type BackupRecord struct {
	ID           string `gorm:"primaryKey;type:text"`
	RelativePath string `gorm:"type:text;not null;uniqueIndex"`

	// Timestamp of the backup event this copy represents, stored in UTC.
	CreatedAt time.Time `gorm:"not null;index"`

	// Hex SHA-256 digest of the copied bytes.
	SHA256 string `gorm:"type:text;not null"`

	// Retention quotas active at insertion time. 0 disables a tier.
	KeepYearly  uint `gorm:"not null"`
	KeepMonthly uint `gorm:"not null"`
	KeepDaily   uint `gorm:"not null"`
	KeepLatest  uint `gorm:"not null"`
}

func (BackupRecord) TableName() string {
	return "backup_records"
}
