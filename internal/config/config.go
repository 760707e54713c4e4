// Package config loads navicore configuration: a JSON5 config file, the
// companion persona definition, and a hot-reload watcher.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/titanous/json5"
)

// SyncConfig tunes the sync engine. Zero values take engine defaults.
type SyncConfig struct {
	BackendURL     string        `json:"backendUrl"`
	UserID         string        `json:"userId"`
	DebounceWindow time.Duration `json:"-"`
	DebounceMs     int           `json:"debounceMs"`
	BackoffSeconds int           `json:"backoffSeconds"`
	TickSeconds    int           `json:"tickSeconds"`
	MaxRetries     int           `json:"maxRetries"`
	PushRPM        int           `json:"pushRpm"`
}

// MemoryConfig tunes compaction.
type MemoryConfig struct {
	CompactionThreshold int `json:"compactionThreshold"` // new raw sources before a pass
	ContextBudgetTokens int `json:"contextBudgetTokens"`
}

// TelemetryConfig enables OTLP trace export when an endpoint is set.
type TelemetryConfig struct {
	Endpoint string `json:"endpoint"`
}

// Config is the full application configuration.
type Config struct {
	DataDir     string          `json:"dataDir"`
	PersonaPath string          `json:"personaPath"`
	Sync        SyncConfig      `json:"sync"`
	Memory      MemoryConfig    `json:"memory"`
	Telemetry   TelemetryConfig `json:"telemetry"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DataDir: filepath.Join(home, ".navicore"),
		Sync: SyncConfig{
			UserID: "local-user",
		},
		Memory: MemoryConfig{
			CompactionThreshold: 5,
			ContextBudgetTokens: 4000,
		},
	}
}

// Load reads and parses the config file, applying defaults for missing
// fields. A missing file returns defaults, not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	normalize(cfg)
	return cfg, nil
}

// normalize fills derived fields and re-applies defaults clobbered by
// explicit zero values in the file.
func normalize(cfg *Config) {
	if cfg.DataDir == "" {
		cfg.DataDir = Default().DataDir
	}
	if cfg.Sync.UserID == "" {
		cfg.Sync.UserID = "local-user"
	}
	if cfg.Sync.DebounceMs > 0 {
		cfg.Sync.DebounceWindow = time.Duration(cfg.Sync.DebounceMs) * time.Millisecond
	}
	if cfg.Memory.CompactionThreshold <= 0 {
		cfg.Memory.CompactionThreshold = 5
	}
	if cfg.Memory.ContextBudgetTokens <= 0 {
		cfg.Memory.ContextBudgetTokens = 4000
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".navicore", "config.json5")
}
