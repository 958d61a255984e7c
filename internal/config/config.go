// Package config loads the demo configuration from an optional YAML file and
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/comalice/safetychart"
	"github.com/comalice/safetychart/internal/logger"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SAFETYCHART_"

// Config is the demo configuration.
type Config struct {
	LogLevel    string   `yaml:"logLevel" env:"LOG_LEVEL"`
	LogFormat   string   `yaml:"logFormat" env:"LOG_FORMAT"`
	JournalDSN  string   `yaml:"journalDSN" env:"JOURNAL_DSN"`
	MetricsAddr string   `yaml:"metricsAddr" env:"METRICS_ADDR"`
	QueueSize   int      `yaml:"queueSize" env:"QUEUE_SIZE"`
	MachineID   string   `yaml:"machineID" env:"MACHINE_ID"`
	Scenario    []string `yaml:"scenario" env:"SCENARIO" envSeparator:","`
	InjectFault bool     `yaml:"injectFault" env:"INJECT_FAULT"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		LogLevel:   string(logger.InfoLevel),
		LogFormat:  string(logger.FormatConsole),
		JournalDSN: ":memory:",
		QueueSize:  64,
		MachineID:  safetychart.ChartID,
		Scenario:   []string{"PowerOn", "StartLoader", "PowerOff"},
	}
}

// Load reads path over the defaults, then applies environment overrides, then
// validates. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv applies SAFETYCHART_* variables to target. Unset variables leave
// their field untouched.
func ParseEnv(target *Config) error {
	if err := env.ParseWithOptions(target, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate checks every field and reports all problems at once.
func (c Config) Validate() error {
	var errs []error
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if _, err := logger.ParseFormat(c.LogFormat); err != nil {
		errs = append(errs, err)
	}
	if c.JournalDSN == "" {
		errs = append(errs, errors.New("journal DSN is required"))
	}
	if c.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("queue size must be positive, got %d", c.QueueSize))
	}
	if c.MachineID == "" {
		errs = append(errs, errors.New("machine ID is required"))
	}
	if _, err := c.Events(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Events resolves the scenario names.
func (c Config) Events() ([]safetychart.Event, error) {
	out := make([]safetychart.Event, 0, len(c.Scenario))
	for i, name := range c.Scenario {
		ev, err := safetychart.ParseEvent(name)
		if err != nil {
			return nil, fmt.Errorf("scenario[%d]: %w", i, err)
		}
		out = append(out, ev)
	}
	return out, nil
}
