package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "REMINDERS_"

type Config struct {
	DatabasePath   string `koanf:"database_path"`
	StorageBackend string `koanf:"storage_backend"` // sqlite, s3 or memory

	S3Bucket    string `koanf:"s3_bucket"`
	S3Region    string `koanf:"s3_region"`
	S3Endpoint  string `koanf:"s3_endpoint"`
	S3Prefix    string `koanf:"s3_prefix"`
	S3PathStyle bool   `koanf:"s3_path_style"`

	TimezoneName string         `koanf:"timezone"`
	Timezone     *time.Location `koanf:"-"`

	TelegramToken   string `koanf:"telegram_token"`
	OwnerTelegramID int64  `koanf:"owner_telegram_id"`
	WebhookURL      string `koanf:"webhook_url"`
	ServerPort      string `koanf:"server_port"`
	APIUsername     string `koanf:"api_username"`
	APIPassword     string `koanf:"api_password"`
	APIURL          string `koanf:"api_url"` // advertised to `remind`; default http://localhost:<server_port>

	CalDAVURL      string `koanf:"caldav_url"`
	CalDAVUsername string `koanf:"caldav_username"`
	CalDAVPassword string `koanf:"caldav_password"`
	CalDAVCalendar string `koanf:"caldav_calendar"`

	LogFile string `koanf:"log_file"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"database_path":   "./data/reminders.db",
		"storage_backend": "sqlite",
		"s3_region":       "us-east-1",
		"s3_prefix":       "reminders",
		"timezone":        "Local",
		"server_port":     "8080",
		"log_file":        "./data/remind.log",
	}
}

// Load layers defaults, the YAML file named by REMINDERS_CONFIG (if any) and
// REMINDERS_* environment variables, in that order.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := expandPath(os.Getenv(envPrefix + "CONFIG")); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	tz, err := time.LoadLocation(cfg.TimezoneName)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone: %w", err)
	}
	cfg.Timezone = tz

	cfg.DatabasePath = expandPath(cfg.DatabasePath)
	cfg.LogFile = expandPath(cfg.LogFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StorageBackend {
	case "sqlite":
		if c.DatabasePath == "" {
			return fmt.Errorf("database_path is required for sqlite storage")
		}
	case "s3":
		if c.S3Bucket == "" {
			return fmt.Errorf("s3_bucket is required for s3 storage")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown storage_backend: %s (supported: sqlite, s3, memory)", c.StorageBackend)
	}
	return nil
}

// TelegramEnabled reports whether notifications can go to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.OwnerTelegramID != 0
}

func (c *Config) APIEnabled() bool {
	return c.APIUsername != "" && c.APIPassword != ""
}

// CalDAVEnabled needs credentials only; without caldav_calendar the first
// calendar found on the server is used.
// AdvertisedAPIURL is where other processes send writes while the daemon
// owns the store. Empty when the API is off.
func (c *Config) AdvertisedAPIURL() string {
	if !c.APIEnabled() {
		return ""
	}
	if c.APIURL != "" {
		return strings.TrimRight(c.APIURL, "/")
	}
	return "http://localhost:" + c.ServerPort
}

func (c *Config) CalDAVEnabled() bool {
	return c.CalDAVUsername != "" && c.CalDAVPassword != ""
}

func (c *Config) IsAllowedUser(telegramID int64) bool {
	return telegramID == c.OwnerTelegramID
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
