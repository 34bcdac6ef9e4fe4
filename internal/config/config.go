// Package config loads the gcff configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/torfstack/gcff/internal/logging"
	"github.com/torfstack/gcff/internal/util"
)

const DefaultRegion = "us-central1"

var (
	configFilePath     = filepath.Join(util.ConfigDir, "config.toml")
	defaultJournalPath = filepath.Join(util.ConfigDir, "gcff.sqlite")
)

type Config struct {
	// Project is the Google Cloud project the functions live in. Empty means
	// the project of the application default credentials.
	Project     string `toml:"project"`
	Region      string `toml:"region"`
	JournalPath string `toml:"journal_path"`
	// MetricsFile receives Prometheus metrics after each command when set.
	MetricsFile string `toml:"metrics_file"`
	// Concurrency caps parallel storage calls; 0 is unlimited.
	Concurrency int `toml:"concurrency"`
}

// Get loads the config file, creating it with defaults on first use.
func Get() (Config, error) {
	c := Config{}
	f, err := os.Open(configFilePath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return initConfig(initialConfig(), false)
	case err != nil:
		return c, fmt.Errorf("could not open config file for reading '%s': %w", configFilePath, err)
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			logging.Debugf("Could not close config file: %s", err)
		}
	}(f)

	if _, err = toml.NewDecoder(f).Decode(&c); err != nil {
		return c, fmt.Errorf("could not decode config file '%s': %w", configFilePath, err)
	}
	c.applyDefaults()
	return c, nil
}

// Init walks the user through every setting, starting from the current
// values, and persists the result.
func Init() (Config, error) {
	c, err := Get()
	if err != nil {
		return c, err
	}
	return initConfig(c, true)
}

// Path returns the location of the config file.
func Path() string {
	return configFilePath
}

func initConfig(c Config, interactive bool) (Config, error) {
	if interactive {
		if err := guidedInitialization(&c); err != nil {
			return c, fmt.Errorf("could not initialize config interactively: %w", err)
		}
	}
	return c, c.persist()
}

func (c *Config) persist() error {
	f, err := util.OpenWithParents(configFilePath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("could not open config file for writing '%s': %w", configFilePath, err)
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			logging.Debugf("Could not close config file: %s", err)
		}
	}(f)

	logging.Debugf("Persisting config file to '%s'", configFilePath)
	if err = toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("could not persist config to file '%s': %w", configFilePath, err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.JournalPath == "" {
		c.JournalPath = defaultJournalPath
	}
	if c.Concurrency < 0 {
		c.Concurrency = 0
	}
}

func initialConfig() Config {
	c := Config{}
	c.applyDefaults()
	return c
}
