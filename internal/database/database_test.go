package database

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/jobsworth/internal/config"
	"gorm.io/gorm/logger"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDialector(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres", "sqlite", "SQLite"} {
		d, err := Dialector(&config.Config{DBDriver: driver, DBName: ":memory:"})
		require.NoError(t, err, driver)
		assert.NotNil(t, d)
	}

	_, err := Dialector(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, GormLogLevel("debug"))
	assert.Equal(t, logger.Warn, GormLogLevel("info"))
	assert.Equal(t, logger.Error, GormLogLevel("error"))
	assert.Equal(t, logger.Silent, GormLogLevel("silent"))
}

func TestConnectAndMigrateSQLite(t *testing.T) {
	cfg := &config.Config{DBDriver: "sqlite", DBName: ":memory:", LogLevel: "silent"}

	db, err := Connect(cfg, discardLogger())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection keeps every query on the same in-memory database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, Migrate(db, discardLogger()))
	assert.True(t, db.Migrator().HasTable("dependencies"))
	assert.True(t, db.Migrator().HasIndex("tasks", "tasks_project_completed_index"))

	// running again must skip the existing indexes
	require.NoError(t, Migrate(db, discardLogger()))
}
