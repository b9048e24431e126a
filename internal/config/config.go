// Package config reads the dtable project file.
//
// A project file names the specs directory, the state database and any
// locators a fresh session starts with:
//
//	specs: specs
//	database: state.db
//	backend: sqlite
//	max_steps: 5000
//	locators:
//	  market:
//	    shop: "2"
//
// Relative paths are resolved against the directory holding the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultFile is the project file looked up when no path is given.
const DefaultFile = "dtable.yaml"

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// Config is a parsed project file.
type Config struct {
	Specs    string                       `yaml:"specs"`
	Database string                       `yaml:"database"`
	Backend  string                       `yaml:"backend"`
	MaxSteps int                          `yaml:"max_steps"`
	Locators map[string]map[string]string `yaml:"locators"`
}

// Default returns the configuration used without a project file.
func Default() Config {
	return Config{
		Specs:   "specs",
		Backend: BackendSQLite,
	}
}

// Load reads path. A missing DefaultFile yields Default(); a missing
// explicit path is an error.
func Load(path string) (Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	cfg.resolve(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes a project file. Unknown keys are rejected.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendSQLite, BackendBolt:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendSQLite, BackendBolt)
	}
	if c.MaxSteps < 0 {
		return fmt.Errorf("max_steps must not be negative, got %d", c.MaxSteps)
	}
	return nil
}

func (c *Config) resolve(dir string) {
	if c.Specs != "" && !filepath.IsAbs(c.Specs) {
		c.Specs = filepath.Join(dir, c.Specs)
	}
	if c.Database != "" && !filepath.IsAbs(c.Database) {
		c.Database = filepath.Join(dir, c.Database)
	}
}
