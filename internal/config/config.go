package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	appDir     = ".kaamtamam"
	configFile = "config.yaml"
)

// Config holds the user's settings. Every field has a usable default.
type Config struct {
	// DataFile is the task document path. Defaults to tasks.json (or tasks.db for
	// the sqlite backend) in the app directory.
	DataFile string `yaml:"data_file" toml:"data_file"`
	// Backend is "file" or "sqlite".
	Backend string `yaml:"backend" toml:"backend"`

	LogLevel string `yaml:"log_level" toml:"log_level"`
	LogFile  string `yaml:"log_file,omitempty" toml:"log_file"`
	LogJSON  bool   `yaml:"log_json" toml:"log_json"`
}

// Dir is the directory holding the config and the default data file.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, appDir), nil
}

func GetConfigPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the config at path, picking YAML or TOML by extension. A missing file
// is not an error. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, err
	default:
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config %s: %w", path, err)
		}
	}
	cfg.applyEnvOverrides()
	if err := cfg.fillDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		_, err := toml.Decode(string(data), cfg)
		return err
	default:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err := dec.Decode(cfg)
		if errors.Is(err, io.EOF) {
			return nil // empty file
		}
		return err
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("KAAM_DATA_FILE"); v != "" {
		c.DataFile = v
	}
	if v := os.Getenv("KAAM_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("KAAM_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

func (c *Config) fillDefaults() error {
	if c.Backend == "" {
		c.Backend = "file"
	}
	if c.LogLevel == "" {
		c.LogLevel = "warn"
	}
	if c.DataFile == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		name := "tasks.json"
		if c.Backend == "sqlite" {
			name = "tasks.db"
		}
		c.DataFile = filepath.Join(dir, name)
	}
	return nil
}

// YAML renders the effective config.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c)
}
