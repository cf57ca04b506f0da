package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"github.com/example/pocket-assistant/internal/logging"
	"github.com/example/pocket-assistant/internal/parser"
)

// FileEnv names the environment variable pointing at an optional YAML file.
const FileEnv = "ASSISTANT_CONFIG_FILE"

// Config captures the assistant's runtime configuration.
type Config struct {
	HTTPPort    int    `yaml:"http_port"`
	SQLiteDSN   string `yaml:"sqlite_dsn"`
	Timezone    string `yaml:"timezone"`
	OwnerNumber string `yaml:"owner_number"`
	DigestTime  string `yaml:"digest_time"`
	LogLevel    string `yaml:"log_level"`

	WhatsApp WhatsAppConfig `yaml:"whatsapp"`
	Calendar CalendarConfig `yaml:"calendar"`
	TLS      TLSConfig      `yaml:"tls"`

	// Resolved values.
	Location     *time.Location `yaml:"-"`
	DigestHour   int            `yaml:"-"`
	DigestMinute int            `yaml:"-"`
	File         string         `yaml:"-"`
}

// WhatsAppConfig holds Cloud API credentials.
type WhatsAppConfig struct {
	Token         string `yaml:"token"`
	PhoneNumberID string `yaml:"phone_number_id"`
	VerifyToken   string `yaml:"verify_token"`
	AppSecret     string `yaml:"app_secret"`
	APIVersion    string `yaml:"api_version"`
}

// Enabled reports whether outbound messaging is configured.
func (w WhatsAppConfig) Enabled() bool {
	return w.Token != "" && w.PhoneNumberID != ""
}

// CalendarConfig points at a Google service account used to mirror meetings.
type CalendarConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	CalendarID      string `yaml:"calendar_id"`
}

// Enabled reports whether the calendar mirror should be constructed.
func (c CalendarConfig) Enabled() bool {
	return c.CredentialsFile != ""
}

// TLSConfig enables ACME managed certificates for the HTTP listener.
type TLSConfig struct {
	Domain   string `yaml:"domain"`
	CacheDir string `yaml:"cache_dir"`
}

// Enabled reports whether the server should terminate TLS itself.
func (t TLSConfig) Enabled() bool {
	return t.Domain != ""
}

func defaults() Config {
	return Config{
		HTTPPort:   3000,
		SQLiteDSN:  "data/assistant.db",
		Timezone:   "Europe/Lisbon",
		DigestTime: "08:00",
		LogLevel:   "info",
		WhatsApp:   WhatsAppConfig{APIVersion: "v21.0"},
		Calendar:   CalendarConfig{CalendarID: "primary"},
		TLS:        TLSConfig{CacheDir: "data/certs"},
	}
}

// Load parses configuration from the YAML file named by ASSISTANT_CONFIG_FILE
// (when set) overlaid with the current process environment.
func Load() (Config, error) {
	return LoadFile(strings.TrimSpace(os.Getenv(FileEnv)))
}

// LoadFile is Load with an explicit YAML path. An empty path skips the file
// layer. Every missing or invalid variable is reported in a single error.
func LoadFile(path string) (Config, error) {
	cfg := defaults()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
		cfg.File = path
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 2)

	portValue := firstEnv("ASSISTANT_HTTP_PORT", "PORT")
	if portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil {
			invalid = append(invalid, "ASSISTANT_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		invalid = appendOnce(invalid, "ASSISTANT_HTTP_PORT")
	}

	if dsn := firstEnv("ASSISTANT_SQLITE_DSN"); dsn != "" {
		cfg.SQLiteDSN = dsn
	}
	if strings.TrimSpace(cfg.SQLiteDSN) == "" {
		missing = append(missing, "ASSISTANT_SQLITE_DSN")
	}

	if tz := firstEnv("TZ", "ASSISTANT_TIMEZONE"); tz != "" {
		cfg.Timezone = tz
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		invalid = append(invalid, "TZ")
	} else {
		cfg.Location = loc
	}

	if owner := firstEnv("OWNER_NUMBER"); owner != "" {
		cfg.OwnerNumber = owner
	}

	hourValue, minuteValue := firstEnv("MORNING_DIGEST_HOUR"), firstEnv("MORNING_DIGEST_MINUTE")
	if hourValue != "" || minuteValue != "" {
		if hourValue == "" {
			hourValue = "8"
		}
		if minuteValue == "" {
			minuteValue = "0"
		}
		cfg.DigestTime = hourValue + ":" + leftPad(minuteValue)
	}
	if hour, minute, ok := ParseDigestTime(cfg.DigestTime); ok {
		cfg.DigestHour, cfg.DigestMinute = hour, minute
	} else {
		invalid = append(invalid, "MORNING_DIGEST_HOUR/MORNING_DIGEST_MINUTE")
	}

	if level := firstEnv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		invalid = append(invalid, "LOG_LEVEL")
	}

	overlay(&cfg.WhatsApp.Token, "WHATSAPP_TOKEN")
	overlay(&cfg.WhatsApp.PhoneNumberID, "WHATSAPP_PHONE_NUMBER_ID")
	overlay(&cfg.WhatsApp.VerifyToken, "WHATSAPP_VERIFY_TOKEN")
	overlay(&cfg.WhatsApp.AppSecret, "WHATSAPP_APP_SECRET")
	overlay(&cfg.WhatsApp.APIVersion, "WHATSAPP_API_VERSION")
	if cfg.WhatsApp.Token != "" && cfg.WhatsApp.PhoneNumberID == "" {
		missing = append(missing, "WHATSAPP_PHONE_NUMBER_ID")
	}
	if cfg.WhatsApp.PhoneNumberID != "" && cfg.WhatsApp.Token == "" {
		missing = append(missing, "WHATSAPP_TOKEN")
	}

	overlay(&cfg.Calendar.CredentialsFile, "GOOGLE_CALENDAR_CREDENTIALS")
	overlay(&cfg.Calendar.CalendarID, "GOOGLE_CALENDAR_ID")

	overlay(&cfg.TLS.Domain, "ASSISTANT_TLS_DOMAIN")
	overlay(&cfg.TLS.CacheDir, "ASSISTANT_TLS_CACHE_DIR")

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", ")))
	}
	if len(invalid) > 0 {
		errs = append(errs, fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", ")))
	}
	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}

	return cfg, nil
}

// ParseDigestTime validates an HH:MM string.
func ParseDigestTime(value string) (hour, minute int, ok bool) {
	t, err := parser.ParseDigestTime(value)
	if err != nil {
		return 0, 0, false
	}
	return t.Hour, t.Minute, true
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

func overlay(dst *string, key string) {
	if value := firstEnv(key); value != "" {
		*dst = value
	}
}

func appendOnce(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}

func leftPad(minute string) string {
	if len(minute) == 1 {
		return "0" + minute
	}
	return minute
}
