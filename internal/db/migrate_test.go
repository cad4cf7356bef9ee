package db

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"dongle-tracker-backend/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	return gormDB
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func columnNames(t *testing.T, gormDB *gorm.DB, table any) []string {
	t.Helper()
	cols, err := gormDB.Migrator().ColumnTypes(table)
	require.NoError(t, err)
	names := make([]string, 0, len(cols))
	for _, c := range cols {
		names = append(names, c.Name())
	}
	return names
}

func TestMigrate_Idempotent(t *testing.T) {
	gormDB := newTestDB(t)

	require.NoError(t, Migrate(gormDB, quietLogger()))

	dongle := model.Dongle{ID: "HAL-001", Version: "23.05", State: model.StateWorking, DefaultOwner: "Pool"}
	require.NoError(t, gormDB.Create(&dongle).Error)

	before := columnNames(t, gormDB, &model.Dongle{})

	// A second run must add nothing and lose nothing.
	require.NoError(t, Migrate(gormDB, quietLogger()))

	after := columnNames(t, gormDB, &model.Dongle{})
	assert.Equal(t, before, after, "no duplicate columns")

	var count int64
	require.NoError(t, gormDB.Model(&model.Dongle{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var applied int64
	require.NoError(t, gormDB.Model(&model.SchemaMigration{}).Count(&applied).Error)
	assert.EqualValues(t, len(migrations), applied, "each version recorded once")
}

func TestMigrate_UpgradesLegacyStore(t *testing.T) {
	gormDB := newTestDB(t)

	// A store created before ownership tracking, lacking the columns
	// later versions added.
	require.NoError(t, gormDB.Exec(
		`CREATE TABLE dongles (id text PRIMARY KEY, version text, notes text, created_at datetime, updated_at datetime)`,
	).Error)
	require.NoError(t, gormDB.Exec(
		`INSERT INTO dongles (id, version, notes) VALUES ('HAL-OLD', '19.11', 'survivor')`,
	).Error)

	require.NoError(t, Migrate(gormDB, quietLogger()))

	cols := columnNames(t, gormDB, &model.Dongle{})
	assert.Contains(t, cols, "default_owner")
	assert.Contains(t, cols, "state")

	// Existing rows are preserved, not reinterpreted.
	var dongle model.Dongle
	require.NoError(t, gormDB.Where("id = ?", "HAL-OLD").First(&dongle).Error)
	assert.Equal(t, "19.11", dongle.Version)
	assert.Equal(t, "survivor", dongle.Notes)
}

func TestMigrate_AppliesAllVersionsInOrder(t *testing.T) {
	gormDB := newTestDB(t)

	require.NoError(t, Migrate(gormDB, quietLogger()))

	var records []model.SchemaMigration
	require.NoError(t, gormDB.Order("version").Find(&records).Error)
	require.Len(t, records, len(migrations))
	for i, m := range migrations {
		assert.Equal(t, m.version, records[i].Version)
		assert.False(t, records[i].AppliedAt.IsZero())
	}
}
