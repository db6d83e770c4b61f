// Package retention implements the staggered (grandfather-father-son)
// retention rule: dense recent history, one representative per older
// calendar bucket.
package retention

import (
	"sort"
	"time"

	"github.com/WyvernIXTL/staggered-file-backup/pkg/db/models"
)

// Policy holds the per-tier quotas for one classification run.
// A quota of 0 disables its tier entirely.
type Policy struct {
	Yearly  uint
	Monthly uint
	Daily   uint
	Latest  uint
}

// Verdict is the classification result for one record.
type Verdict int

const (
	Delete Verdict = iota
	Keep
)

func (v Verdict) String() string {
	if v == Keep {
		return "KEEP"
	}
	return "DELETE"
}

// Classify partitions records into KEEP and DELETE.
//
// Tiers are evaluated in the fixed order latest, daily, monthly, yearly.
// The latest tier keeps the Latest newest records unconditionally. Each
// calendar tier then buckets the records not kept so far by UTC day, month
// or year, and keeps the newest record in each of the quota's most recent
// distinct buckets. Ties on identical timestamps resolve to the smallest id.
//
// The function is pure and deterministic; now is accepted as a parameter so
// callers control the notion of current time (classification itself derives
// only from record timestamps).
func Classify(now time.Time, records []models.BackupRecord, policy Policy) map[string]Verdict {
	sorted := make([]models.BackupRecord, len(records))
	copy(sorted, records)
	sortNewestFirst(sorted)

	kept := make(map[string]bool, len(sorted))

	// Latest tier: unconditional, guards against quota misconfiguration
	// wiping all recent copies.
	for i := 0; i < len(sorted) && i < int(policy.Latest); i++ {
		kept[sorted[i].ID] = true
	}

	keepBucketed(sorted, kept, policy.Daily, func(t time.Time) string {
		return t.UTC().Format("2006-01-02")
	})
	keepBucketed(sorted, kept, policy.Monthly, func(t time.Time) string {
		return t.UTC().Format("2006-01")
	})
	keepBucketed(sorted, kept, policy.Yearly, func(t time.Time) string {
		return t.UTC().Format("2006")
	})

	verdicts := make(map[string]Verdict, len(sorted))
	for _, record := range sorted {
		if kept[record.ID] {
			verdicts[record.ID] = Keep
		} else {
			verdicts[record.ID] = Delete
		}
	}
	return verdicts
}

// keepBucketed runs one calendar tier: among records not yet kept, keep the
// newest record of each of the quota most recent distinct buckets. Records
// are already sorted newest first with id as tie-break, so the first record
// seen per bucket is its representative and buckets appear most recent
// first.
func keepBucketed(sorted []models.BackupRecord, kept map[string]bool, quota uint, bucket func(time.Time) string) {
	if quota == 0 {
		return
	}

	seen := make(map[string]bool)
	for _, record := range sorted {
		if kept[record.ID] {
			continue
		}

		key := bucket(record.CreatedAt)
		if seen[key] {
			continue
		}
		if uint(len(seen)) == quota {
			break
		}

		seen[key] = true
		kept[record.ID] = true
	}
}

func sortNewestFirst(records []models.BackupRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt.Equal(records[j].CreatedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
}
