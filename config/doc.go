// Package config provides application configuration management.
//
// The config package loads configuration from YAML files using viper,
// applies sensible defaults for all recognized options, and validates
// the result at startup. Configuration is process-wide and immutable
// once loaded; per-request overrides are not supported.
package config
