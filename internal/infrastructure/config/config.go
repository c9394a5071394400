package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"xrl-config-agent/internal/domain/constants"
	"xrl-config-agent/internal/domain/errors"
	"xrl-config-agent/internal/domain/interfaces"

	"gopkg.in/yaml.v3"
)

// Config is a struct that holds application configuration
type Config struct {
	LogLevel string         `yaml:"log_level"`
	Server   ServerConfig   `yaml:"server"`
	XRL      XRLConfig      `yaml:"xrl"`
	Dispatch DispatchConfig `yaml:"dispatch"`
	Database DatabaseConfig `yaml:"database"`
	Health   HealthConfig   `yaml:"health"`
}

// ServerConfig holds the operation listener settings
type ServerConfig struct {
	ListenAddr      string        `yaml:"listen_addr"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// LegacyAlwaysOK answers 200 with the echo body even when the operation failed
	LegacyAlwaysOK bool `yaml:"legacy_always_ok"`
}

// XRLConfig holds how call_xrl is launched
type XRLConfig struct {
	CallXRLPath     string        `yaml:"call_xrl_path"`
	Netns           string        `yaml:"netns"`
	WaitSeconds     int           `yaml:"wait_seconds"`
	FinderPrefix    string        `yaml:"finder_prefix"`
	CommandTemplate string        `yaml:"command_template"`
	ShellPath       string        `yaml:"shell_path"`
	CommandTimeout  time.Duration `yaml:"command_timeout"`
}

// DispatchConfig holds operation dispatch behaviour
type DispatchConfig struct {
	CompensateOnFailure bool `yaml:"compensate_on_failure"`
}

// DatabaseConfig is a struct that holds the operation journal database configuration
type DatabaseConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Host         string        `yaml:"host"`
	Port         string        `yaml:"port"`
	User         string        `yaml:"user"`
	Password     string        `yaml:"password"`
	Database     string        `yaml:"name"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	MaxLifetime  time.Duration `yaml:"max_lifetime"`

	// ConnectAttempts bounds the startup connection retries before the journal is dropped
	ConnectAttempts int           `yaml:"connect_attempts"`
	ConnectBackoff  time.Duration `yaml:"connect_backoff"`
}

// HealthConfig is a struct that holds health check configuration
type HealthConfig struct {
	Port string `yaml:"port"`
	// FailureThreshold is the number of consecutive failed operations that marks the agent unhealthy
	FailureThreshold int `yaml:"failure_threshold"`
}

// ConfigLoader is an interface for loading configuration
type ConfigLoader interface {
	Load() (*Config, error)
}

// EnvironmentConfigLoader loads configuration from an optional YAML file named by
// CONFIG_FILE, then applies environment variables on top.
type EnvironmentConfigLoader struct {
	fs interfaces.FileSystem
}

// NewEnvironmentConfigLoader creates a new EnvironmentConfigLoader
func NewEnvironmentConfigLoader(fs interfaces.FileSystem) ConfigLoader {
	return &EnvironmentConfigLoader{fs: fs}
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		LogLevel: constants.DefaultLogLevel,
		Server: ServerConfig{
			ListenAddr:      constants.DefaultListenAddr,
			MaxBodyBytes:    constants.DefaultMaxBodyBytes,
			ShutdownTimeout: 10 * time.Second,
		},
		XRL: XRLConfig{
			CallXRLPath:     constants.DefaultCallXRLPath,
			Netns:           constants.DefaultXRLNetns,
			WaitSeconds:     constants.DefaultXRLWaitSeconds,
			FinderPrefix:    constants.DefaultFinderPrefix,
			CommandTemplate: constants.DefaultCommandTemplate,
			ShellPath:       constants.DefaultShellPath,
			CommandTimeout:  35 * time.Second,
		},
		Database: DatabaseConfig{
			Host:         constants.DefaultDBHost,
			Port:         constants.DefaultDBPort,
			User:         "root",
			Database:     constants.DefaultDBName,
			MaxOpenConns: 4,
			MaxIdleConns: 2,
			MaxLifetime:  5 * time.Minute,

			ConnectAttempts: 3,
			ConnectBackoff:  time.Second,
		},
		Health: HealthConfig{
			Port:             constants.DefaultHealthPort,
			FailureThreshold: 3,
		},
	}
}

// Load loads configuration from the file and environment variables
func (l *EnvironmentConfigLoader) Load() (*Config, error) {
	config := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := l.loadFile(path, config); err != nil {
			return nil, err
		}
	}

	l.applyEnv(config)

	// Validate configuration
	if err := l.validate(config); err != nil {
		return nil, err
	}

	return config, nil
}

func (l *EnvironmentConfigLoader) loadFile(path string, config *Config) error {
	if !l.fs.Exists(path) {
		return errors.NewValidationError(fmt.Sprintf("config file %s not found", path), nil)
	}
	data, err := l.fs.ReadFile(path)
	if err != nil {
		return errors.NewSystemError(fmt.Sprintf("failed to read config file %s", path), err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return errors.NewValidationError(fmt.Sprintf("failed to parse config file %s", path), err)
	}
	return nil
}

func (l *EnvironmentConfigLoader) applyEnv(config *Config) {
	config.LogLevel = getEnvOrDefault("LOG_LEVEL", config.LogLevel)

	config.Server.ListenAddr = getEnvOrDefault("LISTEN_ADDR", config.Server.ListenAddr)
	config.Server.MaxBodyBytes = int64(getEnvIntOrDefault("MAX_BODY_BYTES", int(config.Server.MaxBodyBytes)))
	config.Server.ShutdownTimeout = getEnvDurationOrDefault("SHUTDOWN_TIMEOUT", config.Server.ShutdownTimeout)
	config.Server.LegacyAlwaysOK = getEnvBoolOrDefault("LEGACY_ALWAYS_OK", config.Server.LegacyAlwaysOK)

	config.XRL.CallXRLPath = getEnvOrDefault("CALL_XRL_PATH", config.XRL.CallXRLPath)
	config.XRL.Netns = getEnvOrDefault("XRL_NETNS", config.XRL.Netns)
	config.XRL.WaitSeconds = getEnvIntOrDefault("XRL_WAIT_SECONDS", config.XRL.WaitSeconds)
	config.XRL.FinderPrefix = getEnvOrDefault("XRL_FINDER_PREFIX", config.XRL.FinderPrefix)
	config.XRL.CommandTemplate = getEnvOrDefault("XRL_COMMAND_TEMPLATE", config.XRL.CommandTemplate)
	config.XRL.ShellPath = getEnvOrDefault("SHELL_PATH", config.XRL.ShellPath)
	config.XRL.CommandTimeout = getEnvDurationOrDefault("COMMAND_TIMEOUT", config.XRL.CommandTimeout)

	config.Dispatch.CompensateOnFailure = getEnvBoolOrDefault("COMPENSATE_ON_FAILURE", config.Dispatch.CompensateOnFailure)

	config.Database.Enabled = getEnvBoolOrDefault("JOURNAL_ENABLED", config.Database.Enabled)
	config.Database.Host = getEnvOrDefault("DB_HOST", config.Database.Host)
	config.Database.Port = getEnvOrDefault("DB_PORT", config.Database.Port)
	config.Database.User = getEnvOrDefault("DB_USER", config.Database.User)
	config.Database.Password = getEnvOrDefault("DB_PASSWORD", config.Database.Password)
	config.Database.Database = getEnvOrDefault("DB_NAME", config.Database.Database)
	config.Database.MaxOpenConns = getEnvIntOrDefault("DB_MAX_OPEN_CONNS", config.Database.MaxOpenConns)
	config.Database.MaxIdleConns = getEnvIntOrDefault("DB_MAX_IDLE_CONNS", config.Database.MaxIdleConns)
	config.Database.MaxLifetime = getEnvDurationOrDefault("DB_MAX_LIFETIME", config.Database.MaxLifetime)
	config.Database.ConnectAttempts = getEnvIntOrDefault("DB_CONNECT_ATTEMPTS", config.Database.ConnectAttempts)
	config.Database.ConnectBackoff = getEnvDurationOrDefault("DB_CONNECT_BACKOFF", config.Database.ConnectBackoff)

	config.Health.Port = getEnvOrDefault("HEALTH_PORT", config.Health.Port)
	config.Health.FailureThreshold = getEnvIntOrDefault("HEALTH_FAILURE_THRESHOLD", config.Health.FailureThreshold)
}

// validate validates the configuration
func (l *EnvironmentConfigLoader) validate(config *Config) error {
	if config.Server.ListenAddr == "" {
		return errors.NewValidationError("listen address not configured", nil)
	}
	if config.Server.MaxBodyBytes <= 0 {
		return errors.NewValidationError("invalid max body size", nil)
	}

	if config.XRL.CallXRLPath == "" {
		return errors.NewValidationError("call_xrl path not configured", nil)
	}
	if config.XRL.CommandTemplate == "" {
		return errors.NewValidationError("XRL command template not configured", nil)
	}
	if config.XRL.ShellPath == "" {
		return errors.NewValidationError("shell path not configured", nil)
	}
	if config.XRL.FinderPrefix == "" {
		return errors.NewValidationError("finder prefix not configured", nil)
	}
	if config.XRL.WaitSeconds <= 0 {
		return errors.NewValidationError("invalid call_xrl wait time", nil)
	}
	if config.XRL.CommandTimeout <= 0 {
		return errors.NewValidationError("invalid command timeout", nil)
	}

	// Validate database configuration only when the journal is on
	if config.Database.Enabled {
		if config.Database.Host == "" {
			return errors.NewValidationError("database host not configured", nil)
		}
		if config.Database.Port == "" {
			return errors.NewValidationError("database port not configured", nil)
		}
		if config.Database.User == "" {
			return errors.NewValidationError("database user not configured", nil)
		}
		if config.Database.Database == "" {
			return errors.NewValidationError("database name not configured", nil)
		}
		if config.Database.ConnectAttempts <= 0 {
			return errors.NewValidationError("invalid database connect attempts", nil)
		}
	}

	// Validate health check configuration
	if config.Health.Port == "" {
		return errors.NewValidationError("health check port not configured", nil)
	}
	if config.Health.FailureThreshold <= 0 {
		return errors.NewValidationError("invalid health failure threshold", nil)
	}

	return nil
}

// Environment variable helper functions

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
