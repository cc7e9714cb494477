package database

import (
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/010_later.sql":    {Data: []byte("SELECT 1;")},
		"m/002_first.sql":    {Data: []byte("SELECT 2;")},
		"m/README.md":        {Data: []byte("ignored")},
		"m/nested/003_x.sql": {Data: []byte("SELECT 3;")},
	}

	migrations, err := LoadMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, Migration{Version: 2, Name: "first", SQL: "SELECT 2;"}, migrations[0])
	assert.Equal(t, 10, migrations[1].Version)
}

func TestLoadMigrations_BadFilename(t *testing.T) {
	fsys := fstest.MapFS{"m/schema.sql": {Data: []byte("SELECT 1;")}}

	_, err := LoadMigrations(fsys, "m")
	assert.Error(t, err)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	logger := zap.NewNop()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "m.db"), MaxOpenConns: 1, MaxIdleConns: 1}, logger)
	require.NoError(t, err)
	defer db.Close()

	migrator := NewMigrator(db, logger)
	require.NoError(t, migrator.RunMigrations(Migrations, "migrations"))
	require.NoError(t, migrator.RunMigrations(Migrations, "migrations"))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 1, count)

	var tables int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name LIKE 'workflow_%'",
	).Scan(&tables))
	assert.Equal(t, 5, tables)
}
