// Package config loads the engine's YAML configuration file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// MQTT configures the broker connection for the point store.
type MQTT struct {
	Broker           string `yaml:"broker"`
	ClientID         string `yaml:"client_id"`
	StalenessSeconds int    `yaml:"staleness_seconds"`
}

// GPIO optionally maps output point ids to local GPIO line offsets.
type GPIO struct {
	Chip    string         `yaml:"chip"`
	Outputs map[string]int `yaml:"outputs"`
}

// Config is the engine's full configuration.
type Config struct {
	HTTPAddr      string `yaml:"http_addr"`
	DBPath        string `yaml:"db_path"`
	RecentCommits int    `yaml:"recent_commits"`
	MQTT          MQTT   `yaml:"mqtt"`
	GPIO          GPIO   `yaml:"gpio"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		HTTPAddr:      ":8080",
		DBPath:        "compare-engine.db",
		RecentCommits: 64,
		MQTT: MQTT{
			Broker:           "tcp://127.0.0.1:1883",
			ClientID:         "compare-engine",
			StalenessSeconds: 60,
		},
		GPIO: GPIO{Chip: "gpiochip0"},
	}
}

// Load reads a YAML config file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.check(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) check() error {
	if c.DBPath == "" {
		return fmt.Errorf("db_path must not be empty")
	}
	if c.RecentCommits < 1 {
		return fmt.Errorf("recent_commits must be at least 1, got %d", c.RecentCommits)
	}
	if c.MQTT.StalenessSeconds < 0 {
		return fmt.Errorf("mqtt.staleness_seconds cannot be negative, got %d", c.MQTT.StalenessSeconds)
	}
	return nil
}

// Staleness returns the point-reading staleness window as a duration.
func (c Config) Staleness() time.Duration {
	return time.Duration(c.MQTT.StalenessSeconds) * time.Second
}
