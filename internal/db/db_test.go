package db_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gitforge-admin/gitforge-admin/internal/config"
	"github.com/gitforge-admin/gitforge-admin/internal/db"
	"github.com/gitforge-admin/gitforge-admin/internal/db/models"
)

func TestOpenSQLite(t *testing.T) {
	cfg := &config.Config{DB: config.DB{
		GormEngine: config.EngineSQLite,
		Name:       filepath.Join(t.TempDir(), "forge.db"),
	}}

	gdb, err := db.Open(cfg)
	require.NoError(t, err)

	for _, m := range models.All() {
		assert.True(t, gdb.Migrator().HasTable(m), "missing table for %T", m)
	}

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestOpenNilConfig(t *testing.T) {
	_, err := db.Open(nil)
	require.ErrorIs(t, err, db.ErrNilConfig)
}
