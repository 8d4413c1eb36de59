package registry

import "time"

// Bucket is one administrative record: which buckets exist, where
// each one's catalog and blob store live, and when it was created and
// last opened. This is bookkeeping only — per-file metadata lives in
// that bucket's own pkg/catalog database, never here.
type Bucket struct {
	ID           string     `gorm:"primaryKey;size:36" json:"id"`
	Name         string     `gorm:"uniqueIndex;not null;size:63" json:"name"`
	StorageRoot  string     `gorm:"not null;size:1024" json:"storage_root"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	LastOpenedAt *time.Time `json:"last_opened_at,omitempty"`
}

// TableName returns the table name for Bucket.
func (Bucket) TableName() string { return "buckets" }

// AllModels returns every GORM model the registry owns, for SQLite's
// AutoMigrate path.
func AllModels() []any {
	return []any{&Bucket{}}
}
