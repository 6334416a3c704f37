package config

import (
	"os"
	"strings"
	"time"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownTimeoutDefaults(cfg)
	applyDatabaseDefaults(cfg)
	applyAPIDefaults(cfg)
	applyIdentityDefaults(&cfg.Identity)
	applySMBDefaults(&cfg.SMB)
	applyAdminDefaults(&cfg.Admin)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	// Enabled defaults to false (opt-in for telemetry)
	// No need to set, zero value is false

	// Default endpoint is localhost:4317 (standard OTLP gRPC port)
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}

	// Default sample rate is 1.0 (sample all traces)
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	// Apply profiling defaults
	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	// Enabled defaults to false (opt-in for profiling)
	// No need to set, zero value is false

	// Default endpoint is localhost:4040 (standard Pyroscope port)
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}

	// Default profile types include CPU, memory allocation, and goroutines
	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

// applyShutdownTimeoutDefaults sets shutdown timeout defaults.
func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyDatabaseDefaults sets database defaults when the database backend
// is selected. Other backends leave the section untouched so an unused
// sqlite path is not invented.
func applyDatabaseDefaults(cfg *Config) {
	if cfg.Identity.Store == "database" {
		cfg.Database.ApplyDefaults()
	}
}

// applyAPIDefaults sets management API server defaults.
func applyAPIDefaults(cfg *Config) {
	cfg.API.ApplyDefaults()
}

// applyIdentityDefaults sets user store defaults.
func applyIdentityDefaults(cfg *IdentityConfig) {
	// Default backend keeps users inline in the config file
	if cfg.Store == "" {
		cfg.Store = "config"
	}
}

// applySMBDefaults sets SMB security defaults.
func applySMBDefaults(cfg *SMBConfig) {
	if cfg.NetBIOSName == "" {
		cfg.NetBIOSName = defaultNetBIOSName()
	}
	// Dialects default is resolved by DialectList (empty list = all)
	// RequireSigning defaults to true via SigningRequired
}

// defaultNetBIOSName derives a NetBIOS name from the hostname:
// uppercased, truncated to the 15-character NetBIOS limit.
func defaultNetBIOSName() string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		return "SMBSEC"
	}
	// Strip any domain suffix
	if idx := strings.IndexByte(hostname, '.'); idx > 0 {
		hostname = hostname[:idx]
	}
	name := strings.ToUpper(hostname)
	if len(name) > 15 {
		name = name[:15]
	}
	return name
}

// applyAdminDefaults sets admin user defaults.
func applyAdminDefaults(cfg *AdminConfig) {
	// Default username is "admin"
	if cfg.Username == "" {
		cfg.Username = "admin"
	}
	// Email and PasswordHash have no defaults - they're optional or set during init
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Logging: LoggingConfig{},
		Admin: AdminConfig{
			Username: "admin",
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
