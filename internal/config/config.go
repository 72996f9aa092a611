// Package config provides configuration loading for AgroPower.
// Static settings come from a YAML file; database credentials and the
// signing secret are overlaid from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Run modes. Production suppresses diagnostic payloads on failures.
const (
	RunModeProduction  = "production"
	RunModeDevelopment = "development"
)

// Config holds all AgroPower configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Policy   PolicyConfig   `yaml:"policy"`
	RunMode  string         `yaml:"runMode"`
}

// ServerConfig configures the HTTP listeners.
type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	MetricsPort int      `yaml:"metricsPort"`
	CORSOrigins []string `yaml:"corsOrigins"`

	// Request deadlines per endpoint family.
	RecommendationTimeoutSeconds int `yaml:"recommendationTimeoutSeconds"`
	PowerLossTimeoutSeconds      int `yaml:"powerLossTimeoutSeconds"`
}

// DatabaseConfig carries the DSN components. All fields may be
// overridden by DB_HOST, DB_PORT, DB_NAME, DB_USER, DB_PASS.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslMode"`
	MaxConns int    `yaml:"maxConns"`
}

// AuthConfig configures bearer-token verification.
type AuthConfig struct {
	Secret          string `yaml:"secret"`
	TokenTTLMinutes int    `yaml:"tokenTtlMinutes"`
}

// PolicyConfig points at the runtime-tunable scoring policy file.
type PolicyConfig struct {
	Path string `yaml:"path"`
}

// Load reads configuration from a YAML file, overlays the
// environment, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DB_HOST"); v != "" {
		c.Database.Host = v
	}
	if v := os.Getenv("DB_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Database.Port = p
		}
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.Database.Name = v
	}
	if v := os.Getenv("DB_USER"); v != "" {
		c.Database.User = v
	}
	if v := os.Getenv("DB_PASS"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv("AUTH_TOKEN_TTL"); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			c.Auth.TokenTTLMinutes = m
		}
	}
	if v := os.Getenv("RUN_MODE"); v != "" {
		c.RunMode = v
	}
}

// Validate checks required fields and applies defaults for optional ones.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Server.MetricsPort == 0 {
		c.Server.MetricsPort = c.Server.Port + 1
	}
	if c.Server.RecommendationTimeoutSeconds <= 0 {
		c.Server.RecommendationTimeoutSeconds = 15
	}
	if c.Server.PowerLossTimeoutSeconds <= 0 {
		c.Server.PowerLossTimeoutSeconds = 10
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port <= 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}

	if c.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is required (set AUTH_SECRET)")
	}
	if c.Auth.TokenTTLMinutes <= 0 {
		c.Auth.TokenTTLMinutes = 60
	}

	switch c.RunMode {
	case "":
		c.RunMode = RunModeProduction
	case RunModeProduction, RunModeDevelopment:
	default:
		return fmt.Errorf("runMode must be %q or %q", RunModeProduction, RunModeDevelopment)
	}

	return nil
}

// DSN assembles the Postgres connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode)
}

// RecommendationTimeout returns the recommendation deadline as a duration.
func (s *ServerConfig) RecommendationTimeout() time.Duration {
	return time.Duration(s.RecommendationTimeoutSeconds) * time.Second
}

// PowerLossTimeout returns the power-loss deadline as a duration.
func (s *ServerConfig) PowerLossTimeout() time.Duration {
	return time.Duration(s.PowerLossTimeoutSeconds) * time.Second
}

// TokenTTL returns the token lifetime as a duration.
func (a *AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}
