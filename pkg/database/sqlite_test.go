package database

import (
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDSN(t *testing.T) {
	dsn := DSN("data/workflow.db")

	assert.True(t, strings.HasPrefix(dsn, "file:data/workflow.db?"))
	for _, param := range []string{"_journal_mode=WAL", "_busy_timeout=5000", "_foreign_keys=on", "_txlock=immediate"} {
		assert.Contains(t, dsn, param)
	}
}

func TestNew_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "nested", "workflow.db")

	db, err := New(Config{Path: path, MaxOpenConns: 1, MaxIdleConns: 1}, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	assert.Equal(t, path, db.Path())
	assert.FileExists(t, path)
}

func TestRunInTx(t *testing.T) {
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "tx.db"), MaxOpenConns: 1, MaxIdleConns: 1}, zap.NewNop())
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("CREATE TABLE items (name TEXT NOT NULL)")
	require.NoError(t, err)

	insert := func(tx *sql.Tx) error {
		_, err := tx.Exec("INSERT INTO items (name) VALUES ('a')")
		return err
	}

	require.NoError(t, db.RunInTx(insert))

	failure := errors.New("abort")
	err = db.RunInTx(func(tx *sql.Tx) error {
		require.NoError(t, insert(tx))
		return failure
	})
	assert.ErrorIs(t, err, failure)

	assert.Panics(t, func() {
		_ = db.RunInTx(func(tx *sql.Tx) error {
			require.NoError(t, insert(tx))
			panic("boom")
		})
	})

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM items").Scan(&count))
	assert.Equal(t, 1, count, "only the committed insert survives")
}
