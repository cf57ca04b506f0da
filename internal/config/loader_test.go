package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	FileEnv,
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
	"WHATSAPP_VERIFY_TOKEN",
	"WHATSAPP_APP_SECRET",
	"WHATSAPP_API_VERSION",
	"GOOGLE_CALENDAR_CREDENTIALS",
	"GOOGLE_CALENDAR_ID",
	"ASSISTANT_TLS_DOMAIN",
	"ASSISTANT_TLS_CACHE_DIR",
}

// clearEnv blanks every variable the loader reads. t.Setenv restores the
// previous values when the test ends.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
}

func TestLoader_ParseEnvironment(t *testing.T) {
	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		clearEnv(t)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 3000, cfg.HTTPPort)
		assert.Equal(t, "data/assistant.db", cfg.SQLiteDSN)
		assert.Equal(t, "Europe/Lisbon", cfg.Location.String())
		assert.Equal(t, 8, cfg.DigestHour)
		assert.Equal(t, 0, cfg.DigestMinute)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.False(t, cfg.WhatsApp.Enabled())
		assert.False(t, cfg.Calendar.Enabled())
		assert.False(t, cfg.TLS.Enabled())
		assert.Equal(t, "primary", cfg.Calendar.CalendarID)
	})

	t.Run("reads overrides", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PORT", "8081")
		t.Setenv("ASSISTANT_SQLITE_DSN", "/tmp/a.db")
		t.Setenv("TZ", "UTC")
		t.Setenv("OWNER_NUMBER", "351912345678")
		t.Setenv("MORNING_DIGEST_HOUR", "7")
		t.Setenv("MORNING_DIGEST_MINUTE", "5")
		t.Setenv("WHATSAPP_TOKEN", "tok")
		t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "123")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8081, cfg.HTTPPort)
		assert.Equal(t, "/tmp/a.db", cfg.SQLiteDSN)
		assert.Equal(t, time.UTC.String(), cfg.Location.String())
		assert.Equal(t, "351912345678", cfg.OwnerNumber)
		assert.Equal(t, 7, cfg.DigestHour)
		assert.Equal(t, 5, cfg.DigestMinute)
		assert.True(t, cfg.WhatsApp.Enabled())
	})

	t.Run("aggregates invalid values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("ASSISTANT_HTTP_PORT", "abc")
		t.Setenv("TZ", "Mars/Olympus")
		t.Setenv("MORNING_DIGEST_HOUR", "25")
		t.Setenv("LOG_LEVEL", "chatty")

		_, err := Load()
		require.Error(t, err)
		msg := err.Error()
		for _, key := range []string{"ASSISTANT_HTTP_PORT", "TZ", "MORNING_DIGEST_HOUR", "LOG_LEVEL"} {
			assert.Contains(t, msg, key)
		}
	})

	t.Run("requires whatsapp credentials in pairs", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("WHATSAPP_TOKEN", "tok")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "missing required environment variables: WHATSAPP_PHONE_NUMBER_ID")
	})
}

func TestLoader_YAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "assistant.yaml")
	content := strings.Join([]string{
		"http_port: 9090",
		"timezone: UTC",
		"digest_time: \"07:30\"",
		"owner_number: \"351900000000\"",
		"calendar:",
		"  credentials_file: /etc/assistant/sa.json",
		"  calendar_id: team@example.com",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv(FileEnv, path)
	t.Setenv("PORT", "9191")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.HTTPPort, "environment overrides the file")
	assert.Equal(t, 7, cfg.DigestHour)
	assert.Equal(t, 30, cfg.DigestMinute)
	assert.Equal(t, "351900000000", cfg.OwnerNumber)
	assert.True(t, cfg.Calendar.Enabled())
	assert.Equal(t, "team@example.com", cfg.Calendar.CalendarID)
	assert.Equal(t, path, cfg.File)
}

func TestParseDigestTime(t *testing.T) {
	t.Parallel()

	for hour := 0; hour < 24; hour++ {
		for _, minute := range []int{0, 1, 30, 59} {
			value := time.Date(2024, 1, 1, hour, minute, 0, 0, time.UTC).Format("15:04")
			h, m, ok := ParseDigestTime(value)
			require.True(t, ok, value)
			assert.Equal(t, hour, h)
			assert.Equal(t, minute, m)
		}
	}
	for _, bad := range []string{"24:00", "12:60", "7", "ab:cd", ""} {
		_, _, ok := ParseDigestTime(bad)
		assert.False(t, ok, bad)
	}
}

func TestWatchReloadsOnWrite(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "assistant.yaml")
	require.NoError(t, os.WriteFile(path, []byte("digest_time: \"08:00\"\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan Config, 16)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg Config) {
			select {
			case changes <- cfg:
			default:
			}
		}, nil)
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("digest_time: \"06:45\"\n"), 0o600))

	// A truncating write can surface an intermediate event with the old or
	// empty content, so wait for the final value.
	deadline := time.After(5 * time.Second)
	for reloaded := false; !reloaded; {
		select {
		case cfg := <-changes:
			reloaded = cfg.DigestHour == 6 && cfg.DigestMinute == 45
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}

	cancel()
	require.NoError(t, <-done)
}
