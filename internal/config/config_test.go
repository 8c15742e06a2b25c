package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsAndSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, time.Hour, cfg.JWT.Expiry)
	assert.Equal(t, "s3cret", cfg.Database.Password)
	assert.Equal(t, "redis://cache:6379/1", cfg.Redis.URL)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 365, cfg.Audit.RetentionDays)
	assert.Equal(t, 24*time.Hour, cfg.Reminders.DigestInterval)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Contains(t, cfg.Database.DSN(), "password=s3cret")
}

func TestLoadConfig_RequiresJWTSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "jwt.secret")
}

func TestValidate(t *testing.T) {
	cfg := &Config{JWT: JWTConfig{Secret: "x"}}
	assert.Error(t, cfg.Validate())

	cfg.Server.Port = 8080
	assert.NoError(t, cfg.Validate())
}
