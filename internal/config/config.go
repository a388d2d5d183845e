// ABOUTME: Configuration loading and parsing for toolgate
// ABOUTME: Supports optional YAML files with env var expansion plus environment overrides

package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultJWTSecret is the placeholder signing secret used when none is
// configured. It is not safe for production; Validate surfaces a warning
// and main prints it at startup.
const DefaultJWTSecret = "insecure-dev-secret-change-me"

// Config represents the complete toolgate configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Aggregate AggregateConfig `yaml:"aggregate"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the gateway listen configuration.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Addr returns the listen address for the gateway HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// AuthConfig holds token signing and handshake configuration.
type AuthConfig struct {
	JWTSecret   string          `yaml:"jwt_secret"`
	TokenTTL    time.Duration   `yaml:"-"`
	UserCodeTTL time.Duration   `yaml:"-"`
	Principals  []SeedPrincipal `yaml:"principals"`

	// Raw string values for YAML unmarshaling
	TokenTTLRaw    string `yaml:"token_ttl"`
	UserCodeTTLRaw string `yaml:"user_code_ttl"`
}

// SeedPrincipal is a verification account loaded at startup. Either
// PasswordHash (bcrypt) or Password (hashed at load, development only)
// must be set.
type SeedPrincipal struct {
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
}

// AggregateConfig holds configuration for the aggrd query service.
type AggregateConfig struct {
	Port         int    `yaml:"port"`
	DatabasePath string `yaml:"database_path"`
	APIKeys      string `yaml:"api_keys"` // user:key pairs, comma-separated
}

// Addr returns the listen address for the aggrd HTTP server.
func (a AggregateConfig) Addr() string {
	return fmt.Sprintf(":%d", a.Port)
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns a Config with all defaults applied: port 3000,
// a 3600s token TTL, a 600s user-code window, and the insecure
// development signing secret.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: 3000},
		Auth: AuthConfig{
			JWTSecret:   DefaultJWTSecret,
			TokenTTL:    time.Hour,
			UserCodeTTL: 10 * time.Minute,
		},
		Aggregate: AggregateConfig{
			Port:         3001,
			DatabasePath: "aggregate.db",
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load builds the configuration. If path is non-empty, the YAML file is
// read first (with ${VAR} expansion); environment variables then
// override file values. An empty path skips the file and uses defaults
// plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		expanded := expandEnvVars(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}

		if err := parseDurations(cfg); err != nil {
			return nil, fmt.Errorf("parsing durations: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables expand to empty strings.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyEnv overrides config values from the process environment.
// Environment always wins over file values.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}

	if v := os.Getenv("JWT_PRIVATE_KEY"); v != "" {
		cfg.Auth.JWTSecret = v
	}

	if v := os.Getenv("TOKEN_TTL_SEC"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing TOKEN_TTL_SEC %q: %w", v, err)
		}
		cfg.Auth.TokenTTL = time.Duration(secs) * time.Second
	}

	if v := os.Getenv("USER_CODE_TTL_SEC"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing USER_CODE_TTL_SEC %q: %w", v, err)
		}
		cfg.Auth.UserCodeTTL = time.Duration(secs) * time.Second
	}

	if v := os.Getenv("AGGREGATE_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing AGGREGATE_PORT %q: %w", v, err)
		}
		cfg.Aggregate.Port = port
	}

	if v := os.Getenv("AGGREGATE_API_KEYS"); v != "" {
		cfg.Aggregate.APIKeys = v
	}

	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.Aggregate.DatabasePath = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	return nil
}

// Validate checks that all required configuration fields are present and
// valid. Returns an error describing the first validation failure.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	if c.Aggregate.Port <= 0 || c.Aggregate.Port > 65535 {
		return fmt.Errorf("aggregate.port %d out of range", c.Aggregate.Port)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret must not be empty")
	}

	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}

	if c.Auth.UserCodeTTL <= 0 {
		return fmt.Errorf("auth.user_code_ttl must be positive")
	}

	for i, p := range c.Auth.Principals {
		if p.Username == "" {
			return fmt.Errorf("auth.principals[%d]: username required", i)
		}
		if p.Password == "" && p.PasswordHash == "" {
			return fmt.Errorf("auth.principals[%d] (%s): password or password_hash required", i, p.Username)
		}
	}

	return nil
}

// InsecureSecret reports whether the signing secret is still the
// built-in development placeholder.
func (c *Config) InsecureSecret() bool {
	return c.Auth.JWTSecret == DefaultJWTSecret
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Auth.TokenTTLRaw != "" {
		cfg.Auth.TokenTTL, err = time.ParseDuration(cfg.Auth.TokenTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing token_ttl %q: %w", cfg.Auth.TokenTTLRaw, err)
		}
	}

	if cfg.Auth.UserCodeTTLRaw != "" {
		cfg.Auth.UserCodeTTL, err = time.ParseDuration(cfg.Auth.UserCodeTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing user_code_ttl %q: %w", cfg.Auth.UserCodeTTLRaw, err)
		}
	}

	return nil
}
