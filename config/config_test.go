package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/aura")
	t.Setenv("GATEWAY_SERVICE_TOKEN", "secret")
}

// unset clears key for the duration of the test; t.Setenv restores it afterwards.
func unset(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)
	missing := filepath.Join(t.TempDir(), "missing.env")

	cfg, found, err := Load(missing)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, ":5200", cfg.ListenAddr)
	assert.Equal(t, 2*time.Second, cfg.OnboardingDelay)
	assert.Equal(t, uint(4), cfg.DailyRefreshHour)
	assert.Equal(t, 7, cfg.ActiveWindowDays)
	assert.Equal(t, 3, cfg.RefreshQuestCount)
	assert.Equal(t, "deepseek-chat", cfg.AI.Model)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	assert.False(t, cfg.R2.Enabled())
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_ENV", "development")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("ONBOARDING_DELAY", "500ms")
	t.Setenv("R2_BUCKET_NAME", "archives")
	t.Setenv("CLOUDFLARE_ACCOUNT_ID", "acct")

	cfg, _, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 500*time.Millisecond, cfg.OnboardingDelay)
	assert.True(t, cfg.R2.Enabled())
}

func TestLoad_MissingRequired(t *testing.T) {
	unset(t, "DATABASE_URL")
	t.Setenv("GATEWAY_SERVICE_TOKEN", "secret")

	_, _, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}

func TestLoad_RejectsBadRefreshHour(t *testing.T) {
	setRequired(t)
	t.Setenv("DAILY_REFRESH_HOUR", "24")

	_, _, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DAILY_REFRESH_HOUR")
}

func TestLoad_ReadsDotenv(t *testing.T) {
	unset(t, "DATABASE_URL")
	unset(t, "GATEWAY_SERVICE_TOKEN")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DATABASE_URL=file:aura.db\nGATEWAY_SERVICE_TOKEN=from-file\n"), 0o600))

	cfg, found, err := Load(path)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "file:aura.db", cfg.DatabaseURL)
	assert.Equal(t, "from-file", cfg.GatewayToken)
}
