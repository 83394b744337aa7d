package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, 60*time.Second, cfg.Staleness())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
http_addr: ":9000"
db_path: /var/lib/engine/rules.db
mqtt:
  broker: tcp://broker.plant:1883
  staleness_seconds: 120
gpio:
  chip: gpiochip1
  outputs:
    interlock-1: 17
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, "/var/lib/engine/rules.db", cfg.DBPath)
	assert.Equal(t, "tcp://broker.plant:1883", cfg.MQTT.Broker)
	assert.Equal(t, 120*time.Second, cfg.Staleness())
	assert.Equal(t, map[string]int{"interlock-1": 17}, cfg.GPIO.Outputs)

	// Untouched keys keep their defaults.
	assert.Equal(t, "compare-engine", cfg.MQTT.ClientID)
	assert.Equal(t, 64, cfg.RecentCommits)
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := writeConfig(t, "recent_commits: 0\n")
	_, err := Load(path)
	assert.Error(t, err)

	path = writeConfig(t, "mqtt:\n  staleness_seconds: -1\n")
	_, err = Load(path)
	assert.Error(t, err)

	path = writeConfig(t, `db_path: ""`)
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
