package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// insecureJWTSecret is the fallback secret; it is only accepted in development.
const insecureJWTSecret = "supersecretkey"

type Config struct {
	Addr           string         `yaml:"addr"`
	JWTSecret      string         `yaml:"jwt_secret"`
	APITimeout     time.Duration  `yaml:"timeout"`
	DatabasePath   string         `yaml:"database_path"`
	TokenDuration  time.Duration  `yaml:"token_duration"`
	MigrateOnStart bool           `yaml:"migrate_on_start"`
	Capacity       CapacityConfig `yaml:"capacity"`
	Metrics        MetricsConfig  `yaml:"metrics"`
}

type CapacityConfig struct {
	// MaxConflictRetries bounds how often a write re-validates after losing a
	// version race with a concurrent writer for the same engineer.
	MaxConflictRetries int `yaml:"max_conflict_retries"`
	// DefaultMaxCapacity is assigned to engineers created without one.
	DefaultMaxCapacity int `yaml:"default_max_capacity"`
}

type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

// LoadConfig builds a Config from environment defaults, an optional .env file
// in the working directory and, when path is set, a YAML file on top.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Addr:          getEnv("CAP_ADDR", ":8080"),
		JWTSecret:     getEnv("CAP_JWT_SECRET", insecureJWTSecret),
		APITimeout:    15 * time.Second,
		DatabasePath:  getEnv("CAP_DATABASE_PATH", "capacity.db"),
		TokenDuration: 24 * time.Hour,
		Capacity: CapacityConfig{
			MaxConflictRetries: 3,
			DefaultMaxCapacity: 100,
		},
		Metrics: MetricsConfig{Namespace: "capacity"},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate rejects configurations the server must not start with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is required")
	}
	if c.DatabasePath == "" {
		return errors.New("database_path is required")
	}
	if c.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}
	if c.JWTSecret == insecureJWTSecret && !IsDevelopment() {
		return errors.New("jwt_secret uses the insecure default; set CAP_JWT_SECRET or CAP_ENV=development")
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.APITimeout)
	}
	if c.TokenDuration <= 0 {
		return fmt.Errorf("token_duration must be positive, got %v", c.TokenDuration)
	}
	if c.Capacity.MaxConflictRetries < 0 {
		return fmt.Errorf("capacity.max_conflict_retries must not be negative, got %d", c.Capacity.MaxConflictRetries)
	}
	if c.Capacity.DefaultMaxCapacity <= 0 || c.Capacity.DefaultMaxCapacity > 100 {
		return fmt.Errorf("capacity.default_max_capacity must be in (0, 100], got %d", c.Capacity.DefaultMaxCapacity)
	}
	return nil
}

// IsDevelopment reports whether CAP_ENV is "development".
func IsDevelopment() bool {
	return os.Getenv("CAP_ENV") == "development"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
