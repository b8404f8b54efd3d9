package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Audit sinks.
const (
	AuditSinkFile     = "file"
	AuditSinkDatabase = "database"
)

// Config captures file and environment driven configuration for the scheduler.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Audit    AuditConfig    `yaml:"audit"`
	Refresh  RefreshConfig  `yaml:"refresh"`
}

// AppConfig holds process level settings.
type AppConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	// Timezone is an IANA name or "Local"; calendar windows resolve in it.
	Timezone string `yaml:"timezone"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	Path        string        `yaml:"path"`
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// AuditConfig selects where successful logins are recorded.
type AuditConfig struct {
	Sink string `yaml:"sink"`
	Path string `yaml:"path"`
}

// RefreshConfig controls background cache refreshes. An empty Cron disables
// the periodic refresh.
type RefreshConfig struct {
	Cron  string `yaml:"cron"`
	Watch bool   `yaml:"watch"`
}

// Default returns the configuration used when nothing else is supplied.
func Default() Config {
	return Config{
		App: AppConfig{
			LogLevel:  "info",
			LogFormat: "text",
			Timezone:  "Local",
		},
		Database: DatabaseConfig{
			Path:        "scheduler.db",
			BusyTimeout: 5 * time.Second,
		},
		Audit: AuditConfig{
			Sink: AuditSinkFile,
			Path: "login_audit.log",
		},
		Refresh: RefreshConfig{
			Cron:  "",
			Watch: false,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at path
// and SCHEDULER_* environment variables, in that order of precedence.
//
// Environment references such as ${HOME} inside the file are expanded before
// parsing. Missing and malformed environment values are reported together
// with localized messages.
func Load(path string) (Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("設定ファイルを読み込めません %s: %w", path, err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return Config{}, fmt.Errorf("設定ファイルの形式が不正です %s: %w", path, err)
		}
	}

	missing := make([]string, 0, 2)
	invalid := make([]string, 0, 2)

	stringEnv("SCHEDULER_LOG_LEVEL", &cfg.App.LogLevel)
	stringEnv("SCHEDULER_LOG_FORMAT", &cfg.App.LogFormat)
	stringEnv("SCHEDULER_TIMEZONE", &cfg.App.Timezone)
	stringEnv("SCHEDULER_DB_PATH", &cfg.Database.Path)
	stringEnv("SCHEDULER_AUDIT_SINK", &cfg.Audit.Sink)
	stringEnv("SCHEDULER_AUDIT_PATH", &cfg.Audit.Path)
	stringEnv("SCHEDULER_REFRESH_CRON", &cfg.Refresh.Cron)

	if value := strings.TrimSpace(os.Getenv("SCHEDULER_DB_BUSY_TIMEOUT")); value != "" {
		timeout, err := time.ParseDuration(value)
		if err != nil || timeout < 0 {
			invalid = append(invalid, "SCHEDULER_DB_BUSY_TIMEOUT")
		} else {
			cfg.Database.BusyTimeout = timeout
		}
	}

	if value := strings.TrimSpace(os.Getenv("SCHEDULER_REFRESH_WATCH")); value != "" {
		watch, err := strconv.ParseBool(value)
		if err != nil {
			invalid = append(invalid, "SCHEDULER_REFRESH_WATCH")
		} else {
			cfg.Refresh.Watch = watch
		}
	}

	if strings.TrimSpace(cfg.Database.Path) == "" {
		missing = append(missing, "SCHEDULER_DB_PATH")
	}
	if cfg.Audit.Sink == AuditSinkFile && strings.TrimSpace(cfg.Audit.Path) == "" {
		missing = append(missing, "SCHEDULER_AUDIT_PATH")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("必須の設定値がありません: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("設定の検証に失敗しました: %w", err)
	}
	return cfg, nil
}

func stringEnv(key string, target *string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*target = value
	}
}

// Validate checks value ranges and formats.
func (c *Config) Validate() error {
	return validation.Errors{
		"app":      c.App.Validate(),
		"database": c.Database.Validate(),
		"audit":    c.Audit.Validate(),
		"refresh":  c.Refresh.Validate(),
	}.Filter()
}

// Validate validates the application configuration.
func (c *AppConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.Required, validation.By(func(any) error {
			_, err := parseLevel(c.LogLevel)
			return err
		})),
		validation.Field(&c.LogFormat, validation.Required, validation.In("text", "json")),
		validation.Field(&c.Timezone, validation.Required, validation.By(func(any) error {
			_, err := time.LoadLocation(c.Timezone)
			return err
		})),
	)
}

// Validate validates the database configuration.
func (c *DatabaseConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.BusyTimeout, validation.Min(time.Duration(0))),
	)
}

// Validate validates the audit configuration.
func (c *AuditConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Sink, validation.Required, validation.In(AuditSinkFile, AuditSinkDatabase)),
		validation.Field(&c.Path, validation.When(c.Sink == AuditSinkFile, validation.Required)),
	)
}

// Validate validates the refresh configuration.
func (c *RefreshConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Cron, validation.By(func(any) error {
			if c.Cron == "" {
				return nil
			}
			_, err := cron.ParseStandard(c.Cron)
			return err
		})),
	)
}

// Location resolves App.Timezone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.App.Timezone)
}

// LogLevel resolves App.LogLevel.
func (c Config) LogLevel() slog.Level {
	level, err := parseLevel(c.App.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(value string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelInfo, errors.New("must be one of debug, info, warn, error")
	}
	return level, nil
}
