// Author: tan91
// GitHub: https://github.com/NUDTTAN91
// Blog: https://blog.csdn.net/ZXW_NUDT

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("SESSION_MAX_AGE", "")
	t.Setenv("SEED_TASKS", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("ADMIN_USERNAME", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.Equal(t, 24*time.Hour, cfg.SessionMaxAge)
	assert.True(t, cfg.SeedTasks)
	assert.Empty(t, cfg.CORSOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "HP_TEST_DATABASE_URL=postgres://x\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("DATABASE_URL", "postgres://hack:pw@localhost/hack")
	t.Setenv("SESSION_MAX_AGE", "3600")
	t.Setenv("SEED_TASKS", "false")
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://portal.example.com ,")
	t.Setenv("ENV", "production")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres://x", os.Getenv("HP_TEST_DATABASE_URL"))
	assert.Equal(t, "postgres://hack:pw@localhost/hack", cfg.DatabaseURL)
	assert.Equal(t, time.Hour, cfg.SessionMaxAge)
	assert.False(t, cfg.SeedTasks)
	assert.Equal(t, []string{"http://localhost:3000", "https://portal.example.com"}, cfg.CORSOrigins)
	assert.True(t, cfg.IsProduction())
	os.Unsetenv("HP_TEST_DATABASE_URL")
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("SESSION_MAX_AGE", "-1")
	_, err := Load("")
	require.Error(t, err)

	t.Setenv("SESSION_MAX_AGE", "")
	t.Setenv("SEED_TASKS", "maybe")
	_, err = Load("")
	require.Error(t, err)
}

func TestValidateServe(t *testing.T) {
	cfg := &Config{}
	require.Error(t, cfg.ValidateServe())
	cfg.DatabaseURL = "postgres://x"
	require.Error(t, cfg.ValidateServe())
	cfg.JWTSecret = []byte("secret")
	require.Error(t, cfg.ValidateServe())
	cfg.AdminPassword = "pw"
	require.NoError(t, cfg.ValidateServe())
}
