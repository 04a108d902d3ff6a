package database

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"002_seed.sql":           {Data: []byte("INSERT INTO t VALUES (1);")},
		"001_initial_schema.sql": {Data: []byte("CREATE TABLE t (id INTEGER);")},
		"README.md":              {Data: []byte("ignored")},
	}

	migrations, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "initial_schema", migrations[0].Name)
	assert.Equal(t, 2, migrations[1].Version)
}

func TestLoadMigrations_InvalidName(t *testing.T) {
	_, err := LoadMigrations(fstest.MapFS{"schema.sql": {Data: []byte("")}})
	assert.Error(t, err)

	_, err = LoadMigrations(fstest.MapFS{
		"001_a.sql": {Data: []byte("")},
		"001_b.sql": {Data: []byte("")},
	})
	assert.Error(t, err)
}

func TestMigrator_RunMigrationsFS(t *testing.T) {
	logger := zap.NewNop()
	db, err := New(Config{Path: filepath.Join(t.TempDir(), "test.db"), MaxOpenConns: 1}, logger)
	require.NoError(t, err)
	defer db.Close()

	fsys := fstest.MapFS{
		"001_initial_schema.sql": {Data: []byte("CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT);")},
		"002_seed.sql":           {Data: []byte("INSERT INTO items (name) VALUES ('a'); INSERT INTO items (name) VALUES ('b');")},
	}

	ctx := context.Background()
	m := NewMigrator(db, logger)
	require.NoError(t, m.RunMigrationsFS(ctx, fsys))
	// Applied migrations are skipped on the second run
	require.NoError(t, m.RunMigrationsFS(ctx, fsys))

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM items").Scan(&count))
	assert.Equal(t, 2, count)

	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 2, count)
}
