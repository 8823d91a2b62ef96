package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 100, cfg.Server.MaxPageSize)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, "patients.events", cfg.Events.Channel)
	assert.Equal(t, 168*time.Hour, cfg.Outbox.Retention)
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := []byte(`
server:
  port: 9000
database:
  driver: memory
  host: db.internal
cache:
  ttl: 5s
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	t.Setenv("PATIENTS_DB_HOST", "override.internal")
	t.Setenv("PATIENTS_EVENTS_ENABLED", "true")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.Equal(t, "override.internal", cfg.Database.Host)
	assert.Equal(t, 5*time.Second, cfg.Cache.TTL)
	assert.True(t, cfg.Events.Enabled)
	assert.Contains(t, cfg.Database.DSN(), "host=override.internal")
}

func TestLoadConfig_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("PATIENTS_DB_DRIVER", "mysql")

	_, err := LoadConfig(t.TempDir())
	assert.Error(t, err)
}

func TestLoadConfig_RejectsNonPositiveOutboxDurations(t *testing.T) {
	for _, key := range []string{"poll_interval", "visibility_timeout", "retention", "cleanup_interval"} {
		t.Run(key, func(t *testing.T) {
			dir := t.TempDir()
			yaml := []byte("outbox:\n  " + key + ": 0s\n")
			require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

			_, err := LoadConfig(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "outbox."+key)
		})
	}
}

func TestConfig_Conversions(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	broker := cfg.ToBrokerConfig()
	assert.Equal(t, "redis://localhost:6379/0", broker.URL)
	assert.Equal(t, uint32(5), broker.FailureThreshold)
	assert.Equal(t, 30*time.Second, broker.OpenTimeout)

	w := cfg.ToWorkerConfig()
	assert.Equal(t, "patients.events", w.Channel)
	assert.Equal(t, 100, w.BatchSize)
	assert.Equal(t, time.Second, w.PollInterval)
	assert.Equal(t, 5*time.Minute, w.VisibilityTimeout)

	lc := cfg.ToLoggerConfig("patients-api")
	assert.Equal(t, "patients-api", lc.Service)
	assert.Equal(t, "json", lc.Format)
}
