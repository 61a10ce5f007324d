package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jaskrrish/Go-QEC/internal/qec/noise"
	"github.com/jaskrrish/Go-QEC/internal/qec/transcript"
)

// Config holds all service configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
	Simulation SimulationConfig `yaml:"simulation"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig selects the run store
type StorageConfig struct {
	// Driver is "memory" or "sqlite"
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// LoggingConfig configures zap
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// SimulationConfig bounds what API clients may request
type SimulationConfig struct {
	MaxTrials       int           `yaml:"max_trials"`
	DigestMethod    string        `yaml:"digest_method"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
	DefaultNoise    noise.Config  `yaml:"default_noise"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Driver: "memory",
			Path:   "data/qec.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Simulation: SimulationConfig{
			MaxTrials:       1000,
			DigestMethod:    string(transcript.SHA3_256Method),
			CleanupInterval: 10 * time.Minute,
			DefaultNoise: noise.Config{
				DecoherenceRate:         0.001,
				DepolarizingProbability: 0.001,
			},
		},
	}
}

// Load reads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the configuration as YAML
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (c *Config) applyEnvOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Port = port
	}
	if path := os.Getenv("QEC_DB_PATH"); path != "" {
		c.Storage.Driver = "sqlite"
		c.Storage.Path = path
	}
	if level := os.Getenv("QEC_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// Validate checks the configuration for values the service cannot run with
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port not configured")
	}
	switch c.Storage.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("invalid storage driver: %s (valid: memory, sqlite)", c.Storage.Driver)
	}
	if c.Simulation.MaxTrials < 1 {
		return fmt.Errorf("simulation max_trials must be positive, got %d", c.Simulation.MaxTrials)
	}
	if c.Simulation.CleanupInterval <= 0 {
		return fmt.Errorf("simulation cleanup_interval must be positive, got %s", c.Simulation.CleanupInterval)
	}
	if _, err := transcript.NewHasher(transcript.Method(c.Simulation.DigestMethod)); err != nil {
		return fmt.Errorf("simulation digest_method: %w", err)
	}
	if err := c.Simulation.DefaultNoise.Validate(); err != nil {
		return fmt.Errorf("simulation default_noise: %w", err)
	}
	return nil
}
