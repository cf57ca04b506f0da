package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/pocket-assistant/internal/persistence"
)

func newTestStorage(t *testing.T, now time.Time) *Storage {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "assistant.db")
	storage, err := Open(context.Background(), dsn, WithClock(func() time.Time { return now }))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = storage.Close()
	})

	require.NoError(t, storage.Migrate(context.Background()))
	return storage
}

func TestStorageMigrate(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t, time.Now())

	require.NoError(t, storage.Migrate(ctx), "second run applies nothing")
	require.NoError(t, storage.Ping(ctx))

	status, err := storage.MigrationStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, status.PendingCount)
	assert.Len(t, status.AppliedMigrations, 2)
	assert.Equal(t, "002", status.CurrentVersion)
}

func TestStorageStoresUTCText(t *testing.T) {
	ctx := context.Background()
	lisbon, err := time.LoadLocation("Europe/Lisbon")
	require.NoError(t, err)
	storage := newTestStorage(t, time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC))

	start := time.Date(2024, time.May, 1, 14, 30, 15, 500, lisbon)
	meeting, err := storage.CreateMeeting(ctx, persistence.NewMeeting{Title: "Revisão", Start: start, RemindEnabled: true})
	require.NoError(t, err)

	var raw string
	require.NoError(t, storage.DB().QueryRowContext(ctx, `SELECT start_at FROM meetings WHERE id = ?`, meeting.ID).Scan(&raw))
	assert.Equal(t, "2024-05-01T13:30:15Z", raw)
	assert.True(t, meeting.Start.Equal(start.Truncate(time.Second)))
	assert.Equal(t, time.UTC, meeting.Start.Location())
}

func TestMarkRemindedConcurrent(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t, time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC))

	meeting, err := storage.CreateMeeting(ctx, persistence.NewMeeting{
		Title:         "Standup",
		Start:         time.Date(2024, time.May, 1, 10, 0, 0, 0, time.UTC),
		RemindEnabled: true,
	})
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			marked, err := storage.MarkReminded(ctx, meeting.ID)
			if err == nil && marked {
				winners.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())

	_, err = storage.MarkReminded(ctx, 999)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestCompleteTaskTransaction(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t, time.Date(2024, time.May, 1, 9, 0, 0, 0, time.UTC))

	task, err := storage.CreateTask(ctx, persistence.NewTask{Title: "Enviar fatura"})
	require.NoError(t, err)

	done, err := storage.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, persistence.TaskDone, done.Status)

	again, err := storage.CompleteTask(ctx, task.ID)
	require.ErrorIs(t, err, persistence.ErrConflict)
	assert.Equal(t, task.ID, again.ID, "the current row comes back with the conflict")

	_, err = storage.CompleteTask(ctx, 404)
	require.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestErrorMapper(t *testing.T) {
	ctx := context.Background()
	storage := newTestStorage(t, time.Now())
	mapper := NewErrorMapper()

	_, err := storage.DB().ExecContext(ctx, `INSERT INTO expenses (amount_cents, category, occurred_at, created_at) VALUES (-1, 'x', 'a', 'b')`)
	require.Error(t, err)
	assert.ErrorIs(t, mapper.MapError(err), persistence.ErrConstraintViolation)

	assert.NoError(t, mapper.MapError(nil))
	plain := errors.New("plain")
	assert.Equal(t, plain, mapper.MapError(plain))
}
