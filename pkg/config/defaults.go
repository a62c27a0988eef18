package config

import (
	"strings"
	"time"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values (0, "", false) are replaced with defaults; explicit values are
// preserved.
func ApplyDefaults(cfg *Config) {
	applyApplianceDefaults(&cfg.Appliance)
	applyRunnerDefaults(&cfg.Runner)
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
}

// applyApplianceDefaults sets appliance defaults and normalizes the address.
func applyApplianceDefaults(cfg *ApplianceConfig) {
	cfg.APIAddress = strings.TrimRight(strings.TrimSpace(cfg.APIAddress), "/")

	if cfg.UserID == "" {
		cfg.UserID = "admin"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
}

// applyRunnerDefaults sets runner defaults.
func applyRunnerDefaults(cfg *RunnerConfig) {
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if cfg.TeardownTimeout == 0 {
		cfg.TeardownTimeout = 60 * time.Second
	}
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	// stdout carries the report
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	// Standard OTLP gRPC port
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
// The appliance address has no default and must be configured.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
