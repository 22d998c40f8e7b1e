package pivot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const defaultConfigFile = "config.json"

// SetAuto picks the category set from the detected sub-assembly.
const SetAuto = "auto"

// Config aggregates runtime settings persisted to config.json.
type Config struct {
	Set          string         `json:"set"`
	Mode         EvaluationMode `json:"mode"`
	CatalogPath  string         `json:"catalogPath,omitempty"`
	SpecPath     string         `json:"specPath,omitempty"`
	SpecSheet    string         `json:"specSheet,omitempty"`
	Workers      int            `json:"workers"`
	OutputDir    string         `json:"outputDir"`
	DatabasePath string         `json:"databasePath,omitempty"`
	MetricsFile  string         `json:"metricsFile,omitempty"`
}

// Clone creates a copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	return c
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if strings.TrimSpace(c.Set) == "" {
		c.Set = SetAuto
	}
	if c.Mode == "" {
		c.Mode = EvalAuto
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		c.OutputDir = "output"
	}
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	if _, err := ParseEvaluationMode(string(c.Mode)); err != nil {
		return err
	}
	if c.Workers > 64 {
		return fmt.Errorf("workers %d exceeds 64", c.Workers)
	}
	return nil
}

// LoadConfig loads configuration from the given path or the default config.json.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = defaultConfigFile
	}
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig persists configuration to disk.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		path = defaultConfigFile
	}
	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg.ApplyDefaults()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}
