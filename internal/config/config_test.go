package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("AUTH_JWT_KEY", "secret")
	t.Setenv("SCHEDULER_TIMEZONE", "Europe/Berlin")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "unipath", cfg.Mongo.Database)
	assert.Equal(t, "secret", cfg.Auth.JWTKey)
	assert.Equal(t, "Europe/Berlin", cfg.Scheduler.Timezone)
	assert.Equal(t, "0 9 * * *", cfg.Scheduler.SweepSpec)
	assert.Equal(t, "0 0 * * 0", cfg.Scheduler.CleanupSpec)
	assert.Equal(t, 90*24*time.Hour, cfg.Notifications.StatusTTL)
	assert.Equal(t, []int{30, 14, 7, 1}, cfg.Notifications.DefaultOffsets)
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("MONGO_URI", "")
	t.Setenv("AUTH_JWT_KEY", "secret")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MONGO_URI")
}
