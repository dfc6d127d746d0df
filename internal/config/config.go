// Package config provides configuration management for the SP3 converter.
//
// Settings come from a YAML file, are overridden by SP3CONV_* environment
// variables and finally by command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/signalsfoundry/sp3-orbit-converter/internal/logging"
	"github.com/signalsfoundry/sp3-orbit-converter/internal/observability"
	"gopkg.in/yaml.v3"
)

var (
	// ErrNoInputs indicates an empty input list.
	ErrNoInputs = errors.New("no input files")
	// ErrNoOrbitOutput indicates a missing orbit output path.
	ErrNoOrbitOutput = errors.New("orbit output path is required")
	// ErrOutputNotWritable indicates an output directory that cannot be written.
	ErrOutputNotWritable = errors.New("output directory not writable")
	// ErrUnknownModel indicates an unsupported rotation or gravity model name.
	ErrUnknownModel = errors.New("unknown model")
)

// Config represents the converter configuration.
type Config struct {
	Inputs    []string                    `yaml:"inputs" env:"SP3CONV_INPUTS" envSeparator:","`
	Satellite string                      `yaml:"satellite" env:"SP3CONV_SATELLITE"` // id, "<all>" or empty to auto-detect
	Output    OutputConfig                `yaml:"output"`
	Frame     FrameConfig                 `yaml:"frame"`
	Logging   LoggingConfig               `yaml:"logging"`
	Metrics   MetricsConfig               `yaml:"metrics"`
	Tracing   observability.TracingConfig `yaml:"tracing"`
}

// OutputConfig names the output of each series kind. Clock and covariance
// are optional.
type OutputConfig struct {
	Orbit      string `yaml:"orbit" env:"SP3CONV_OUTPUT_ORBIT"`
	Clock      string `yaml:"clock" env:"SP3CONV_OUTPUT_CLOCK"`
	Covariance string `yaml:"covariance" env:"SP3CONV_OUTPUT_COVARIANCE"`
}

// FrameConfig selects the providers of the transform pipeline.
type FrameConfig struct {
	EarthRotation string        `yaml:"earth_rotation" env:"SP3CONV_EARTH_ROTATION"` // none | gmst
	Gravity       GravityConfig `yaml:"gravity"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"SP3CONV_LOG_LEVEL"`
	Format string `yaml:"format" env:"SP3CONV_LOG_FORMAT"`
}

// MetricsConfig controls the metrics textfile written after a run.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" env:"SP3CONV_METRICS_TEXTFILE"`
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Frame: FrameConfig{
			EarthRotation: RotationNone,
			Gravity:       GravityConfig{Model: GravityNone},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Tracing: observability.DefaultTracingConfig(),
	}
}

// Load loads the configuration from a YAML file on top of the defaults.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from SP3CONV_* environment variables.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoggerConfig returns the logging.Config for these settings.
func (c *Config) LoggerConfig() logging.Config {
	return logging.Config{Level: c.Logging.Level, Format: c.Logging.Format}
}

// Validate reports configuration errors that make a conversion impossible.
func (c *Config) Validate() error {
	if len(c.Inputs) == 0 {
		return ErrNoInputs
	}
	if strings.TrimSpace(c.Output.Orbit) == "" {
		return ErrNoOrbitOutput
	}
	for _, path := range []string{c.Output.Orbit, c.Output.Clock, c.Output.Covariance} {
		if path == "" {
			continue
		}
		if err := checkWritableDir(filepath.Dir(path)); err != nil {
			return err
		}
	}
	if _, err := c.Frame.rotationKind(); err != nil {
		return err
	}
	if err := c.Frame.Gravity.validate(); err != nil {
		return err
	}
	return nil
}

func checkWritableDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOutputNotWritable, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrOutputNotWritable, dir)
	}
	f, err := os.CreateTemp(dir, ".sp3conv-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrOutputNotWritable, dir, err)
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return nil
}
