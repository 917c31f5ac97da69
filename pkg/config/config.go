// Package config loads the YAML configuration file, overlaying it on
// built-in defaults so the service runs with no file at all.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"pressurecache/internal/logging"
)

// Config represents the main configuration structure
type Config struct {
	Server   ServerConfig      `yaml:"server"`
	Cache    CacheConfig       `yaml:"cache"`
	Eviction EvictionConfig    `yaml:"eviction"`
	Metrics  MetricsConfig     `yaml:"metrics"`
	Logging  logging.LogConfig `yaml:"logging"`
}

// ServerConfig contains the HTTP listener configuration
type ServerConfig struct {
	BindAddr string `yaml:"bind_addr"`
	Port     int    `yaml:"port"`

	// Workers caps request-serving parallelism via GOMAXPROCS. The
	// WORKERS environment variable overrides it at startup.
	Workers int `yaml:"workers"`
}

// CacheConfig contains store sizing and input limits
type CacheConfig struct {
	MaxEntries    int `yaml:"max_entries"`
	MaxKeyBytes   int `yaml:"max_key_bytes"`
	MaxValueBytes int `yaml:"max_value_bytes"`
}

// EvictionConfig tunes the eviction engine
type EvictionConfig struct {
	Interval           time.Duration `yaml:"interval"`
	MemoryThresholdPct int           `yaml:"memory_threshold_pct"`
	CriticalMemoryPct  int           `yaml:"critical_memory_pct"`
}

// MetricsConfig toggles the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads and parses the configuration file. A missing file is not
// an error; the defaults apply.
func Load(path string) (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			BindAddr: "0.0.0.0",
			Port:     7171,
			Workers:  2,
		},
		Cache: CacheConfig{
			MaxEntries:    100_000,
			MaxKeyBytes:   256,
			MaxValueBytes: 256,
		},
		Eviction: EvictionConfig{
			Interval:           time.Second,
			MemoryThresholdPct: 70,
			CriticalMemoryPct:  95,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Logging: logging.LogConfig{
			Level:         "info",
			EnableConsole: true,
			EnableFile:    false,
			LogDir:        "logs",
			MaxFileSizeMB: 100,
			MaxFiles:      10,
			BufferSize:    1000,
		},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}
	if c.Server.Workers < 1 {
		return fmt.Errorf("server.workers must be >= 1")
	}
	if c.Cache.MaxEntries < 1 {
		return fmt.Errorf("cache.max_entries must be >= 1")
	}
	if c.Cache.MaxKeyBytes < 1 || c.Cache.MaxValueBytes < 1 {
		return fmt.Errorf("cache byte limits must be >= 1")
	}
	if c.Eviction.Interval <= 0 {
		return fmt.Errorf("eviction.interval must be positive")
	}
	if c.Eviction.MemoryThresholdPct < 1 || c.Eviction.MemoryThresholdPct > 99 {
		return fmt.Errorf("eviction.memory_threshold_pct must be between 1 and 99")
	}
	if c.Eviction.CriticalMemoryPct <= c.Eviction.MemoryThresholdPct || c.Eviction.CriticalMemoryPct > 100 {
		return fmt.Errorf("eviction.critical_memory_pct must be between memory_threshold_pct and 100")
	}
	return nil
}
