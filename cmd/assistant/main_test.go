package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/pocket-assistant/internal/config"
	"github.com/example/pocket-assistant/internal/parser"
	"github.com/example/pocket-assistant/internal/testfixtures"
)

var commandEnv = []string{
	config.FileEnv,
	"ASSISTANT_HTTP_PORT",
	"PORT",
	"ASSISTANT_SQLITE_DSN",
	"TZ",
	"ASSISTANT_TIMEZONE",
	"OWNER_NUMBER",
	"MORNING_DIGEST_HOUR",
	"MORNING_DIGEST_MINUTE",
	"LOG_LEVEL",
	"WHATSAPP_TOKEN",
	"WHATSAPP_PHONE_NUMBER_ID",
	"GOOGLE_CALENDAR_CREDENTIALS",
	"ASSISTANT_TLS_DOMAIN",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range commandEnv {
		t.Setenv(key, "")
	}
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestChatCommand(t *testing.T) {
	clearEnv(t)

	input := strings.Join([]string{
		"nova tarefa pagar renda amanhã às 10h",
		"",
		"minhas tarefas",
		"despesa 7,30 transporte metro",
		"xyz",
	}, "\n")
	stdout, _, err := execute(t, input, "chat", "--memory", "--no-timers")
	require.NoError(t, err)

	assert.Contains(t, stdout, "✅ Tarefa criada (#1): pagar renda")
	assert.Contains(t, stdout, "#1: pagar renda")
	assert.Contains(t, stdout, "7,30 €")
	assert.NotContains(t, stdout, "> ", "no prompt without a terminal")
}

func TestMigrateCommand(t *testing.T) {
	clearEnv(t)
	t.Setenv("ASSISTANT_SQLITE_DSN", filepath.Join(t.TempDir(), "assistant.db"))

	stdout, _, err := execute(t, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, stdout, "schema version")
	assert.Contains(t, stdout, "0 pending")

	stdout, _, err = execute(t, "", "migrate")
	require.NoError(t, err, "migrating twice is a no-op")
	assert.Contains(t, stdout, "0 pending")
}

func TestConfigurationErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "chatty")

	_, stderr, err := execute(t, "", "chat", "--memory")
	require.Error(t, err)
	assert.Contains(t, stderr, "configuration error")
	assert.Contains(t, stderr, "LOG_LEVEL")
}

func TestConfigFlag(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "assistant.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: nonsense\n"), 0o600))

	_, stderr, err := execute(t, "", "--config", path, "migrate")
	require.Error(t, err)
	assert.Contains(t, stderr, "LOG_LEVEL")
}

type recordingSetter struct {
	mu    sync.Mutex
	times []parser.DigestTime
}

func (r *recordingSetter) SetDigestTime(_ context.Context, t parser.DigestTime) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.times = append(r.times, t)
	return nil
}

func (r *recordingSetter) last() (parser.DigestTime, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.times) == 0 {
		return parser.DigestTime{}, false
	}
	return r.times[len(r.times)-1], true
}

func TestWatchDigestTime(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "assistant.yaml")
	require.NoError(t, os.WriteFile(path, []byte("digest_time: \"08:00\"\n"), 0o600))
	cfg, err := config.LoadFile(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	setter := &recordingSetter{}
	done := make(chan error, 1)
	go func() {
		done <- watchDigestTime(ctx, cfg, setter, testfixtures.DiscardLogger())
	}()

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("digest_time: \"07:15\"\n"), 0o600))

	assert.Eventually(t, func() bool {
		got, ok := setter.last()
		return ok && got == parser.DigestTime{Hour: 7, Minute: 15}
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}
