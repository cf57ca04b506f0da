package testfixtures

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/example/pocket-assistant/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	*sqlite.Storage

	Path    string
	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. The clock, when non-nil, stamps created rows. The
// helper registers Close with tb.
func NewSQLiteHarness(tb testing.TB, clock *Clock) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "assistant.db")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	storage, err := sqlite.Open(context.Background(), path,
		sqlite.WithClock(clock.NowFunc()),
		sqlite.WithLogger(logger),
	)
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}

	if err := storage.Migrate(context.Background()); err != nil {
		_ = storage.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Storage: storage,
		Path:    path,
		cleanup: func() {
			_ = storage.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
