package config

import (
	"testing"
	"time"
)

func TestApplyDefaults_Appliance(t *testing.T) {
	cfg := &Config{}
	cfg.Appliance.APIAddress = "  http://appliance.local/cgi-bin/ezs3//  "
	ApplyDefaults(cfg)

	if cfg.Appliance.APIAddress != "http://appliance.local/cgi-bin/ezs3" {
		t.Errorf("Expected normalized address, got %q", cfg.Appliance.APIAddress)
	}
	if cfg.Appliance.UserID != "admin" {
		t.Errorf("Expected default user 'admin', got %q", cfg.Appliance.UserID)
	}
	if cfg.Appliance.Timeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %v", cfg.Appliance.Timeout)
	}
}

func TestApplyDefaults_Runner(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Runner.Workers != 1 {
		t.Errorf("Expected default workers 1, got %d", cfg.Runner.Workers)
	}
	if cfg.Runner.TeardownTimeout != 60*time.Second {
		t.Errorf("Expected default teardown timeout 60s, got %v", cfg.Runner.TeardownTimeout)
	}
}

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected default log level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default log format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Logging.Output != "stderr" {
		t.Errorf("Expected default log output 'stderr', got %q", cfg.Logging.Output)
	}
}

func TestApplyDefaults_Telemetry(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Telemetry.Enabled {
		t.Error("Expected telemetry to be opt-in")
	}
	if cfg.Telemetry.Endpoint != "localhost:4317" {
		t.Errorf("Expected default endpoint 'localhost:4317', got %q", cfg.Telemetry.Endpoint)
	}
	if cfg.Telemetry.SampleRate != 1.0 {
		t.Errorf("Expected default sample rate 1.0, got %v", cfg.Telemetry.SampleRate)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Appliance: ApplianceConfig{UserID: "operator", Timeout: 5 * time.Second},
		Runner:    RunnerConfig{Workers: 6, TeardownTimeout: time.Minute * 3},
		Logging:   LoggingConfig{Level: "debug", Format: "json", Output: "/tmp/sharecheck.log"},
		Telemetry: TelemetryConfig{Endpoint: "collector:4317", SampleRate: 0.25},
	}
	ApplyDefaults(cfg)

	if cfg.Appliance.UserID != "operator" || cfg.Appliance.Timeout != 5*time.Second {
		t.Errorf("Appliance values overwritten: %+v", cfg.Appliance)
	}
	if cfg.Runner.Workers != 6 || cfg.Runner.TeardownTimeout != 3*time.Minute {
		t.Errorf("Runner values overwritten: %+v", cfg.Runner)
	}
	// Level is normalized to uppercase
	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected level 'DEBUG', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Output != "/tmp/sharecheck.log" {
		t.Errorf("Logging values overwritten: %+v", cfg.Logging)
	}
	if cfg.Telemetry.Endpoint != "collector:4317" || cfg.Telemetry.SampleRate != 0.25 {
		t.Errorf("Telemetry values overwritten: %+v", cfg.Telemetry)
	}
}

func TestGetDefaultConfig_NeedsAddress(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Appliance.APIAddress != "" {
		t.Errorf("Expected no default address, got %q", cfg.Appliance.APIAddress)
	}
	if err := Validate(cfg); err == nil {
		t.Error("Expected default config to fail validation until an address is set")
	}
}
