// Package config handles uvm.toml tool configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FILENAME is the configuration file looked up by FindAndLoad.
const FILENAME = "uvm.toml"

// Config represents a uvm.toml configuration.
type Config struct {
	Verbose   bool      `toml:"verbose"`
	Assembler Assembler `toml:"assembler"`
	Dump      Dump      `toml:"dump"`
	Batch     Batch     `toml:"batch"`

	// Path is the file the configuration was loaded from (set at load time).
	Path string `toml:"-"`
}

// Assembler configures the assembler.
type Assembler struct {
	Truncate bool              `toml:"truncate"`
	Equates  map[string]string `toml:"equates"`
}

// Dump configures the memory dump written after a run.
type Dump struct {
	Start  int    `toml:"start"`
	End    int    `toml:"end"`
	Format string `toml:"format"`
}

// Batch configures runs of several program images.
type Batch struct {
	Parallel int `toml:"parallel"`
}

// Default returns the configuration used without a uvm.toml.
func Default() *Config {
	return &Config{
		Dump: Dump{
			Start:  0,
			End:    64,
			Format: "json",
		},
		Batch: Batch{
			Parallel: 4,
		},
	}
}

// Load parses a configuration file. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	c := Default()
	if err := toml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	c.Path, err = filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", path, err)
	}

	if c.Batch.Parallel < 1 {
		c.Batch.Parallel = 1
	}

	return c, nil
}

// FindAndLoad walks up from startDir to find a uvm.toml file, then loads
// it. Returns the default configuration if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FILENAME)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}
