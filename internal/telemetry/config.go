package telemetry

// ServiceName identifies sharecheck in trace backends.
const ServiceName = "sharecheck"

// Config controls span export. Tracing is off unless Enabled is set.
type Config struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string

	// Endpoint is the OTLP gRPC collector address as host:port.
	Endpoint string

	// Insecure dials the collector without TLS.
	Insecure bool

	// SampleRate is the fraction of traces kept. Values at or above 1
	// keep everything, values at or below 0 keep nothing.
	SampleRate float64
}

// DefaultConfig returns a disabled configuration aimed at a collector on
// the local host.
func DefaultConfig() Config {
	return Config{
		ServiceName:    ServiceName,
		ServiceVersion: "dev",
		Endpoint:       "localhost:4317",
		Insecure:       true,
		SampleRate:     1.0,
	}
}
