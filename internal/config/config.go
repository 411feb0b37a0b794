package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Config holds all configurable paths and conversion settings.
type Config struct {
	// Paths
	InputDir  string `json:"input_dir"`
	OutputDir string `json:"output_dir"`

	// Conversion settings
	Preview     bool `json:"preview"`
	PreviewSize int  `json:"preview_size"`
	Supersample int  `json:"supersample"`
	Workers     int  `json:"workers"`
}

// Load reads a JSON config file. Fields not set in the file keep their zero
// values; call Resolve before use.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	InputDir  string
	OutputDir string
	Workers   int
	Preview   bool
}

// Resolve applies flag overrides and fills remaining empty fields with
// defaults.
func (c *Config) Resolve(flags Flags) {
	if flags.InputDir != "" {
		c.InputDir = flags.InputDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Preview {
		c.Preview = true
	}

	if c.OutputDir == "" {
		if c.InputDir != "" {
			c.OutputDir = filepath.Join(c.InputDir, "decompiled")
		} else {
			c.OutputDir = "decompiled"
		}
	}
	if c.PreviewSize <= 0 {
		c.PreviewSize = 256
	}
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}
