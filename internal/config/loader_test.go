package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"SCHEDULER_LOG_LEVEL",
	"SCHEDULER_LOG_FORMAT",
	"SCHEDULER_TIMEZONE",
	"SCHEDULER_DB_PATH",
	"SCHEDULER_DB_BUSY_TIMEOUT",
	"SCHEDULER_AUDIT_SINK",
	"SCHEDULER_AUDIT_PATH",
	"SCHEDULER_REFRESH_CRON",
	"SCHEDULER_REFRESH_WATCH",
}

// clearEnv blanks every variable the loader reads; empty values are ignored.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)
}

func TestLoad_FileWithExpansion(t *testing.T) {
	clearEnv(t)
	t.Setenv("SCHEDULER_TEST_DIR", "/var/lib/scheduler")

	path := writeConfig(t, `
app:
  log_level: debug
  log_format: json
  timezone: UTC
database:
  path: ${SCHEDULER_TEST_DIR}/data.db
  busy_timeout: 2s
audit:
  sink: database
refresh:
  cron: "*/5 * * * *"
  watch: true
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/scheduler/data.db", cfg.Database.Path)
	assert.Equal(t, 2*time.Second, cfg.Database.BusyTimeout)
	assert.Equal(t, AuditSinkDatabase, cfg.Audit.Sink)
	assert.Equal(t, "*/5 * * * *", cfg.Refresh.Cron)
	assert.True(t, cfg.Refresh.Watch)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "database:\n  path: from-file.db\n")

	t.Setenv("SCHEDULER_DB_PATH", "from-env.db")
	t.Setenv("SCHEDULER_DB_BUSY_TIMEOUT", "250ms")
	t.Setenv("SCHEDULER_REFRESH_WATCH", "true")
	t.Setenv("SCHEDULER_LOG_LEVEL", "WARN")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.Database.Path)
	assert.Equal(t, 250*time.Millisecond, cfg.Database.BusyTimeout)
	assert.True(t, cfg.Refresh.Watch)
	assert.Equal(t, slog.LevelWarn, cfg.LogLevel())
}

func TestLoad_Errors(t *testing.T) {
	t.Run("invalid environment values are aggregated", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SCHEDULER_DB_BUSY_TIMEOUT", "soon")
		t.Setenv("SCHEDULER_REFRESH_WATCH", "maybe")

		_, err := Load("")
		require.Error(t, err)
		assert.Equal(t, "環境変数の値が不正です: SCHEDULER_DB_BUSY_TIMEOUT, SCHEDULER_REFRESH_WATCH", err.Error())
	})

	t.Run("missing required values", func(t *testing.T) {
		clearEnv(t)
		path := writeConfig(t, "database:\n  path: \"\"\naudit:\n  path: \"\"\n")

		_, err := Load(path)
		require.Error(t, err)
		assert.Equal(t, "必須の設定値がありません: SCHEDULER_DB_PATH, SCHEDULER_AUDIT_PATH", err.Error())
	})

	t.Run("validation rejects unknown values", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("SCHEDULER_AUDIT_SINK", "syslog")
		t.Setenv("SCHEDULER_TIMEZONE", "Mars/Olympus")
		t.Setenv("SCHEDULER_REFRESH_CRON", "every minute")

		_, err := Load("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "audit")
		assert.Contains(t, err.Error(), "app")
		assert.Contains(t, err.Error(), "refresh")
	})

	t.Run("unreadable file", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		clearEnv(t)
		_, err := Load(writeConfig(t, "app: [unterminated"))
		require.Error(t, err)
	})
}
