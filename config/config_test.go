package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REMINDERS_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.StorageBackend)
	require.Equal(t, "./data/reminders.db", cfg.DatabasePath)
	require.Equal(t, "8080", cfg.ServerPort)
	require.NotNil(t, cfg.Timezone)
	require.False(t, cfg.TelegramEnabled())
	require.False(t, cfg.APIEnabled())
	require.False(t, cfg.CalDAVEnabled())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("REMINDERS_CONFIG", "")
	t.Setenv("REMINDERS_TIMEZONE", "Europe/Moscow")
	t.Setenv("REMINDERS_SERVER_PORT", "9090")
	t.Setenv("REMINDERS_TELEGRAM_TOKEN", "token")
	t.Setenv("REMINDERS_OWNER_TELEGRAM_ID", "42")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "Europe/Moscow", cfg.Timezone.String())
	require.Equal(t, "9090", cfg.ServerPort)
	require.Equal(t, int64(42), cfg.OwnerTelegramID)
	require.True(t, cfg.TelegramEnabled())
	require.True(t, cfg.IsAllowedUser(42))
	require.False(t, cfg.IsAllowedUser(7))
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reminders.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage_backend: memory\nserver_port: \"7000\"\napi_username: me\napi_password: secret\n"), 0o600))

	t.Setenv("REMINDERS_CONFIG", path)
	t.Setenv("REMINDERS_SERVER_PORT", "7001")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "memory", cfg.StorageBackend)
	require.Equal(t, "7001", cfg.ServerPort)
	require.True(t, cfg.APIEnabled())
	require.Equal(t, "http://localhost:7001", cfg.AdvertisedAPIURL())
}

func TestAdvertisedAPIURL(t *testing.T) {
	cfg := &Config{ServerPort: "8080"}
	require.Empty(t, cfg.AdvertisedAPIURL())

	cfg.APIUsername, cfg.APIPassword = "me", "secret"
	cfg.APIURL = "http://nas.local:8080/"
	require.Equal(t, "http://nas.local:8080", cfg.AdvertisedAPIURL())
}

func TestCalDAVEnabledWithoutCalendar(t *testing.T) {
	cfg := &Config{CalDAVUsername: "me@icloud.com"}
	require.False(t, cfg.CalDAVEnabled())

	cfg.CalDAVPassword = "app-password"
	require.True(t, cfg.CalDAVEnabled())
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("REMINDERS_CONFIG", "")

	t.Setenv("REMINDERS_TIMEZONE", "Mars/Olympus")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("REMINDERS_TIMEZONE", "UTC")
	t.Setenv("REMINDERS_STORAGE_BACKEND", "s3")
	_, err = Load()
	require.ErrorContains(t, err, "s3_bucket")
}
