// Package config loads crmstore settings from the environment and
// optional .env files.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultEnvFiles are loaded, when present, before parsing the environment.
var DefaultEnvFiles = []string{".env", ".env.local"}

// Config holds the settings of the CRM data layer tooling.
type Config struct {
	// DataDir holds the master registry and one store file per tenant.
	DataDir string `env:"CRM_DATA_DIR" envDefault:"./data"`

	// RegistryName is the fixed identifier of the master registry store.
	RegistryName string `env:"CRM_REGISTRY_NAME" envDefault:"empresa.db"`

	LogLevel    string        `env:"CRM_LOG_LEVEL" envDefault:"info"`
	Environment string        `env:"CRM_ENV" envDefault:"development"`
	BusyTimeout time.Duration `env:"CRM_BUSY_TIMEOUT" envDefault:"5s"`
	BcryptCost  int           `env:"CRM_BCRYPT_COST" envDefault:"12"`
}

// LoadEnv loads the env files that exist and returns how many were loaded.
// Variables already set in the process environment win.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}

	if len(existing) == 0 {
		return 0, nil
	}

	return len(existing), godotenv.Load(existing...)
}

// Load reads env files (DefaultEnvFiles when none are given) and parses
// the environment into a Config.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = DefaultEnvFiles
	}
	if _, err := LoadEnv(envFiles); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}

	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("CRM_DATA_DIR must not be empty"))
	}
	if c.RegistryName == "" {
		errs = append(errs, errors.New("CRM_REGISTRY_NAME must not be empty"))
	}
	if c.BusyTimeout < 0 {
		errs = append(errs, errors.New("CRM_BUSY_TIMEOUT must not be negative"))
	}
	return errors.Join(errs...)
}
