package model

import "time"

// SchemaMigration records an applied migration step so each version runs
// at most once per store.
type SchemaMigration struct {
	Version   int       `gorm:"primaryKey"`
	AppliedAt time.Time `gorm:"not null"`
}
