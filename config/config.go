// Package config loads the configuration of the dashboard server from a YAML
// file.
//
// Example file:
//
//	addr: ":5000"
//	data_file: /etc/dashboard/data.yaml
//	watch: true
//	shutdown_timeout: 5s
//	log:
//	  level: debug
//	  format: json
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/paccolamano/dashkit/ctxlog"
)

// ErrInvalidConfig wraps every validation error returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the dashboard server configuration.
type Config struct {
	// Addr is the listen address of the HTTP server.
	Addr string `yaml:"addr"`
	// DataFile is the YAML dataset served by the API. Empty serves the
	// built-in sample dataset.
	DataFile string `yaml:"data_file"`
	// Watch reloads DataFile when it changes.
	Watch bool `yaml:"watch"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// Debug includes stack traces of recovered panics in the logs.
	Debug bool `yaml:"debug"`
	Log   Log  `yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Addr:            ":5000",
		ShutdownTimeout: 10 * time.Second,
		Log: Log{
			Level:  "info",
			Format: string(ctxlog.FormatAuto),
		},
	}
}

// Load reads path and returns its configuration on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr is empty", ErrInvalidConfig)
	}

	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: shutdown_timeout must be positive", ErrInvalidConfig)
	}

	if c.Watch && c.DataFile == "" {
		return fmt.Errorf("%w: watch requires data_file", ErrInvalidConfig)
	}

	if _, err := ctxlog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if _, err := ctxlog.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	return nil
}
