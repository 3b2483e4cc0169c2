package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_PATH", "PHOTO_DIR", "TEMPLATE_DIR", "SECURE_COOKIE"} {
		t.Setenv(key, "")
	}
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "./data/mymoney.db", cfg.DBPath)
	assert.Equal(t, "./data/photos", cfg.PhotoDir)
	assert.Equal(t, "./web/templates", cfg.TemplateDir)
	assert.False(t, cfg.SecureCookie)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DB_PATH", "/tmp/x.db")
	t.Setenv("SECURE_COOKIE", "true")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.True(t, cfg.SecureCookie)
}

func TestValidate(t *testing.T) {
	cfg := Load()
	cfg.Port = "not-a-number"
	assert.ErrorContains(t, cfg.Validate(), "invalid port")

	cfg = Load()
	cfg.Port = "70000"
	assert.ErrorContains(t, cfg.Validate(), "between 1 and 65535")

	cfg = Load()
	cfg.DBPath = ""
	assert.ErrorContains(t, cfg.Validate(), "database path")

	cfg = Load()
	cfg.AdminUser = "admin"
	assert.ErrorContains(t, cfg.Validate(), "ADMIN_USER requires")

	cfg.AdminEmail = "admin@example.com"
	cfg.AdminPassword = "secret123"
	assert.NoError(t, cfg.Validate())
}

func TestGetEnvBoolBadValue(t *testing.T) {
	t.Setenv("SECURE_COOKIE", "banana")
	cfg := Load()
	assert.False(t, cfg.SecureCookie)
}
