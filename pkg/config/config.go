package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the sharecheck configuration.
//
// It covers the appliance under test (address and credential), how the
// scenario matrix is executed, and the ambient logging, metrics and tracing
// settings. The credential is read once and stays immutable for a run.
type Config struct {
	// Appliance identifies the storage appliance under test
	Appliance ApplianceConfig `mapstructure:"appliance" yaml:"appliance"`

	// Runner controls matrix selection and execution
	Runner RunnerConfig `mapstructure:"runner" yaml:"runner"`

	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Metrics controls Prometheus metrics collection
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`
}

// ApplianceConfig holds the management API address and the credential used
// to log in.
type ApplianceConfig struct {
	// APIAddress is the base URL of the management API,
	// e.g. https://10.0.0.5:8080/cgi-bin/ezs3
	APIAddress string `mapstructure:"api_address" validate:"required,url" yaml:"api_address"`

	// UserID is the login user
	// Default: "admin"
	UserID string `mapstructure:"user_id" validate:"required" yaml:"user_id"`

	// Password is the login password. When empty the CLI prompts for it.
	// Override: SHARECHECK_APPLIANCE_PASSWORD
	Password string `mapstructure:"password" yaml:"password,omitempty"`

	// Timeout bounds a single HTTP request to the appliance
	// Default: 30s
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0" yaml:"timeout"`

	// InsecureSkipVerify disables TLS certificate verification.
	// Appliances commonly ship self-signed certificates.
	InsecureSkipVerify bool `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// RunnerConfig controls how the scenario matrix is executed.
type RunnerConfig struct {
	// Workers is the number of cases executed concurrently.
	// Default: 1 (sequential)
	Workers int `mapstructure:"workers" validate:"min=1,max=64" yaml:"workers"`

	// TeardownTimeout bounds the cleanup of a single case, including retries
	// Default: 60s
	TeardownTimeout time.Duration `mapstructure:"teardown_timeout" validate:"gt=0" yaml:"teardown_timeout"`

	// MatrixFile is an optional YAML matrix replacing the built-in one
	MatrixFile string `mapstructure:"matrix_file" yaml:"matrix_file,omitempty"`

	// Filter is an optional regular expression selecting cases by label
	Filter string `mapstructure:"filter" yaml:"filter,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// MetricsConfig controls Prometheus metrics collection.
//
// sharecheck is a batch tool, so metrics are exported in the node_exporter
// textfile format when the run finishes instead of being served over HTTP.
type MetricsConfig struct {
	// Enabled indicates whether metrics are collected
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Textfile is the path the metrics are written to after a run
	Textfile string `mapstructure:"textfile" validate:"required_if=Enabled true" yaml:"textfile,omitempty"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	// Enabled indicates whether tracing is enabled
	// Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint
	// Default: "localhost:4317"
	Endpoint string `mapstructure:"endpoint" validate:"required_if=Enabled true" yaml:"endpoint"`

	// Insecure disables TLS towards the collector
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate is the trace sampling ratio (0.0 to 1.0)
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate" validate:"gte=0,lte=1" yaml:"sample_rate"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (SHARECHECK_*)
//  2. Configuration file
//  3. Default values
//
// A missing configuration file is not an error: the appliance can be fully
// described through environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// SaveConfig saves the configuration to the specified file path in YAML.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: the file may carry the appliance password.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables, defaults and the
// config file location.
func setupViper(v *viper.Viper, configPath string) {
	// Example: SHARECHECK_APPLIANCE_API_ADDRESS=https://10.0.0.5:8080/cgi-bin/ezs3
	v.SetEnvPrefix("SHARECHECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees environment overrides for keys viper knows about.
	registerDefaults(v, GetDefaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

func registerDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("appliance.api_address", cfg.Appliance.APIAddress)
	v.SetDefault("appliance.user_id", cfg.Appliance.UserID)
	v.SetDefault("appliance.password", cfg.Appliance.Password)
	v.SetDefault("appliance.timeout", cfg.Appliance.Timeout.String())
	v.SetDefault("appliance.insecure_skip_verify", cfg.Appliance.InsecureSkipVerify)

	v.SetDefault("runner.workers", cfg.Runner.Workers)
	v.SetDefault("runner.teardown_timeout", cfg.Runner.TeardownTimeout.String())
	v.SetDefault("runner.matrix_file", cfg.Runner.MatrixFile)
	v.SetDefault("runner.filter", cfg.Runner.Filter)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.textfile", cfg.Metrics.Textfile)

	v.SetDefault("telemetry.enabled", cfg.Telemetry.Enabled)
	v.SetDefault("telemetry.endpoint", cfg.Telemetry.Endpoint)
	v.SetDefault("telemetry.insecure", cfg.Telemetry.Insecure)
	v.SetDefault("telemetry.sample_rate", cfg.Telemetry.SampleRate)
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
	)
}

// durationDecodeHook returns a mapstructure decode hook that converts strings
// to time.Duration. This enables config files to use human-readable durations
// like "30s", "5m", "1h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			// Raw integers are nanoseconds
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "sharecheck")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "sharecheck")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}
