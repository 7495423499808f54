package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Sandbox SandboxConfig `mapstructure:"sandbox"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Transport string `mapstructure:"transport"`
	HTTPPort  int    `mapstructure:"http_port"`
}

// SandboxConfig holds sandbox configuration
type SandboxConfig struct {
	Runtime       string `mapstructure:"runtime"`
	Image         string `mapstructure:"image"`
	TimeoutSec    int    `mapstructure:"timeout_sec"`
	MemoryLimit   string `mapstructure:"memory_limit"`
	PidsLimit     int    `mapstructure:"pids_limit"`
	MaxCodeChars  int    `mapstructure:"max_code_chars"`
	WorkspaceRoot string `mapstructure:"workspace_root"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

// New loads and validates the application configuration
func New() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set default values
	viper.SetDefault("server.transport", "http")
	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("sandbox.runtime", "docker")
	viper.SetDefault("sandbox.image", "safe-python-runner:latest")
	viper.SetDefault("sandbox.timeout_sec", 10)
	viper.SetDefault("sandbox.memory_limit", "128m")
	viper.SetDefault("sandbox.pids_limit", 64)
	viper.SetDefault("sandbox.max_code_chars", 5000)
	viper.SetDefault("sandbox.workspace_root", os.TempDir())
	viper.SetDefault("logging.mode", "production")
	viper.SetDefault("logging.level", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// If config file not found, continue with defaults
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Validate configuration
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

// validate ensures the configuration is valid
func (c *Config) validate() error {
	if c.Server.Transport != "http" && c.Server.Transport != "stdio" {
		return fmt.Errorf("invalid server.transport: %s, must be 'http' or 'stdio'", c.Server.Transport)
	}

	if c.Sandbox.Runtime != "docker" && c.Sandbox.Runtime != "podman" {
		return fmt.Errorf("unsupported sandbox.runtime: %s, must be 'docker' or 'podman'", c.Sandbox.Runtime)
	}

	if c.Sandbox.Image == "" {
		return fmt.Errorf("sandbox.image must not be empty")
	}

	if c.Sandbox.TimeoutSec <= 0 {
		return fmt.Errorf("sandbox.timeout_sec must be positive, got: %d", c.Sandbox.TimeoutSec)
	}

	if c.Sandbox.MemoryLimit == "" {
		return fmt.Errorf("sandbox.memory_limit must not be empty")
	}

	if c.Sandbox.PidsLimit <= 0 {
		return fmt.Errorf("sandbox.pids_limit must be positive, got: %d", c.Sandbox.PidsLimit)
	}

	if c.Sandbox.MaxCodeChars <= 0 {
		return fmt.Errorf("sandbox.max_code_chars must be positive, got: %d", c.Sandbox.MaxCodeChars)
	}

	if c.Logging.Mode != "production" && c.Logging.Mode != "development" {
		return fmt.Errorf("invalid logging.mode: %s, must be 'production' or 'development'", c.Logging.Mode)
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
		"dpanic": true, "panic": true, "fatal": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level: %s", c.Logging.Level)
	}

	return nil
}

// GetTimeout returns the execution timeout as a duration
func (c *Config) GetTimeout() time.Duration {
	return time.Duration(c.Sandbox.TimeoutSec) * time.Second
}
