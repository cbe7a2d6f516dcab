package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9300, cfg.Server.Port)
	assert.Equal(t, 2*time.Second, cfg.Fetch.HostInterval)
	assert.Equal(t, 30*time.Minute, cfg.Discovery.CacheTTL)
	assert.Equal(t, 450, cfg.Governor.HardLimitMB)
	assert.Equal(t, 3, cfg.Scheduler.BatchSize)
	assert.Equal(t, "prefer", cfg.Database.SSLMode)
	assert.Empty(t, cfg.DLQ.BasePath)
	assert.Equal(t, 720*time.Hour, cfg.DLQ.Retention)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("FETCH_HOST_INTERVAL", "5s")
	t.Setenv("SCHEDULER_INTERVAL", "10m")
	t.Setenv("GOVERNOR_SKIP_HOSTS", "bad.example.com, worse.example.com")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Fetch.HostInterval)
	assert.Equal(t, 10*time.Minute, cfg.Scheduler.Interval)
	assert.Equal(t, []string{"bad.example.com", "worse.example.com"}, cfg.Governor.SkipHosts)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "SERVER_PORT", "not-a-port"},
		{"bad duration", "FETCH_TIMEOUT", "fast"},
		{"port out of range", "SERVER_PORT", "70000"},
		{"zero batch size", "SCHEDULER_BATCH_SIZE", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestValidateConfig_SoftOverHardLimit(t *testing.T) {
	cfg := defaultConfig()
	cfg.Governor.SoftLimitMB = cfg.Governor.HardLimitMB + 1
	assert.Error(t, validateConfig(cfg))
}
