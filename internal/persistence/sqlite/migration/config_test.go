package migration

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteConfig_DSNWithPragmas(t *testing.T) {
	t.Parallel()

	cfg := DefaultSQLiteConfig("data/assistant.db")
	dsn := cfg.DSNWithPragmas()
	assert.Equal(t,
		"data/assistant.db?_pragma=busy_timeout%285000%29&_pragma=foreign_keys%281%29&_pragma=journal_mode%28WAL%29&_pragma=synchronous%28NORMAL%29",
		dsn)

	mem := memoryConfig().DSNWithPragmas()
	assert.Contains(t, mem, "file::memory:?")

	bare := SQLiteConfig{DSN: "x.db"}
	assert.Equal(t, "x.db", bare.DSNWithPragmas())
}

func TestConnectionManager_ValidateConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*SQLiteConfig)
	}{
		{"empty dsn", func(c *SQLiteConfig) { c.DSN = "" }},
		{"negative timeout", func(c *SQLiteConfig) { c.BusyTimeout = -time.Second }},
		{"journal mode", func(c *SQLiteConfig) { c.JournalMode = "FAST" }},
		{"synchronous", func(c *SQLiteConfig) { c.Synchronous = "SOMETIMES" }},
		{"open conns", func(c *SQLiteConfig) { c.MaxOpenConns = -1 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := DefaultSQLiteConfig("x.db")
			tc.mutate(&cfg)
			assert.Error(t, NewConnectionManager(cfg).ValidateConfig())
		})
	}
}

func TestConnectionManager_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "assistant.db")

	db, err := NewConnectionManager(fileConfig(path)).GetConnection(context.Background())
	require.NoError(t, err)
	defer db.Close()

	_, err = os.Stat(path)
	require.NoError(t, err)

	var fk int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)

	var mode string
	require.NoError(t, db.QueryRow(`PRAGMA journal_mode`).Scan(&mode))
	assert.Equal(t, "wal", mode)
}
