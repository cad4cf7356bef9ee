package db

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"dongle-tracker-backend/internal/model"
)

// A migration is one additive schema step. Steps are applied in order,
// each at most once per store (recorded in schema_migrations), and every
// step is individually idempotent so a half-applied store recovers on the
// next start. No step ever drops or rewrites existing rows.
type migration struct {
	version int
	name    string
	apply   func(db *gorm.DB) error
}

var migrations = []migration{
	{
		version: 1,
		name:    "create base tables",
		apply: func(db *gorm.DB) error {
			return db.AutoMigrate(&model.Dongle{}, &model.Assignment{}, &model.DongleEdit{})
		},
	},
	{
		// Ownership tracking arrived after the first release; stores
		// created before it lack these columns.
		version: 2,
		name:    "add dongle ownership columns",
		apply: func(db *gorm.DB) error {
			if err := addColumnIfMissing(db, &model.Dongle{}, "default_owner", "DefaultOwner"); err != nil {
				return err
			}
			return addColumnIfMissing(db, &model.Dongle{}, "state", "State")
		},
	},
	{
		version: 3,
		name:    "add assignment notes",
		apply: func(db *gorm.DB) error {
			return addColumnIfMissing(db, &model.Assignment{}, "notes", "Notes")
		},
	},
}

// Migrate applies any pending migration steps. Running it repeatedly is a
// no-op once the store is current.
func Migrate(db *gorm.DB, log *logrus.Logger) error {
	if err := db.AutoMigrate(&model.SchemaMigration{}); err != nil {
		return fmt.Errorf("failed to prepare schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var applied int64
		if err := db.Model(&model.SchemaMigration{}).
			Where("version = ?", m.version).
			Count(&applied).Error; err != nil {
			return fmt.Errorf("failed to read schema_migrations: %w", err)
		}
		if applied > 0 {
			continue
		}

		log.WithFields(logrus.Fields{"version": m.version, "name": m.name}).
			Info("applying schema migration")
		if err := m.apply(db); err != nil {
			return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
		}
		record := model.SchemaMigration{Version: m.version, AppliedAt: time.Now().UTC()}
		if err := db.Create(&record).Error; err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.version, err)
		}
	}
	return nil
}

func addColumnIfMissing(db *gorm.DB, table any, column, field string) error {
	if db.Migrator().HasColumn(table, column) {
		return nil
	}
	if err := db.Migrator().AddColumn(table, field); err != nil {
		return fmt.Errorf("failed to add column %s: %w", column, err)
	}
	return nil
}
