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

	"github.com/marmos91/smbsec/internal/bytesize"
	"github.com/marmos91/smbsec/pkg/api"
	"github.com/marmos91/smbsec/pkg/identity"
	"github.com/marmos91/smbsec/pkg/identity/store"
	smbauth "github.com/marmos91/smbsec/pkg/smb/auth"
	"github.com/marmos91/smbsec/pkg/smb/types"
)

// Config represents the smbsec server configuration.
//
// This structure captures static configuration aspects of the server:
//   - Logging configuration
//   - Telemetry/tracing configuration
//   - Server settings (shutdown timeout, metrics, API)
//   - Database connection (persistent user store)
//   - Identity configuration (user store backend, inline users, guest policy)
//   - SMB security settings (dialects, signing, NTLM policy)
//   - Admin user setup (for initial bootstrap)
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (SMBSEC_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Database configures the relational user store (SQLite or PostgreSQL).
	// Only used when identity.store is "database".
	Database store.Config `mapstructure:"database" yaml:"database"`

	// Metrics contains Prometheus metrics configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// API contains management API server configuration
	API api.APIConfig `mapstructure:"api" yaml:"api"`

	// Identity selects the user store backend and its settings
	Identity IdentityConfig `mapstructure:"identity" yaml:"identity"`

	// SMB contains SMB security settings consumed by the session setup
	// and signing layers
	SMB SMBConfig `mapstructure:"smb" yaml:"smb"`

	// Admin contains initial admin user configuration for bootstrap
	// This is used by 'smbsec init' to set up the first admin user
	Admin AdminConfig `mapstructure:"admin" yaml:"admin"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
// When enabled, trace data is exported to an OTLP-compatible collector
// (e.g., Jaeger, Tempo, or any OTLP receiver).
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	// Default: false (opt-in for telemetry)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	// Default: "localhost:4317" (standard OTLP gRPC port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use insecure (non-TLS) connection
	// Default: true (for local development)
	// Set to false in production with a TLS-enabled collector
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	// 1.0 = sample all traces, 0.5 = sample 50%, 0.0 = no sampling
	// Default: 1.0 (sample all)
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
// When enabled, CPU and memory profiles are continuously sent to a Pyroscope server
// for flame graph visualization and performance analysis.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is enabled
	// Default: false (opt-in for profiling)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server endpoint (URL)
	// Default: "http://localhost:4040" (standard Pyroscope port)
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	// Valid values: cpu, alloc_objects, alloc_space, inuse_objects, inuse_space,
	//               goroutines, mutex_count, mutex_duration, block_count, block_duration
	// Default: ["cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines"]
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures Prometheus metrics collection.
// When Enabled is false, no metrics are collected (zero overhead).
// The scrape endpoint is served on the API router at /metrics.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// IdentityConfig selects the user store backend and its settings.
//
// Exactly one backend serves NTLM verification and API user management:
//
//   - "config":   users defined inline in this file (read-only at runtime)
//   - "file":     a watched YAML user file (hot reload via fsnotify)
//   - "badger":   embedded BadgerDB key-value store
//   - "database": relational store configured by the top-level database section
type IdentityConfig struct {
	// Store is the user store backend.
	// Valid values: config, file, badger, database
	// Default: "config"
	Store string `mapstructure:"store" validate:"omitempty,oneof=config file badger database" yaml:"store"`

	// Users lists the accounts for the "config" backend.
	Users []identity.User `mapstructure:"users" yaml:"users,omitempty"`

	// UsersFile is the path to the YAML user file for the "file" backend.
	UsersFile string `mapstructure:"users_file" yaml:"users_file,omitempty"`

	// BadgerPath is the database directory for the "badger" backend.
	BadgerPath string `mapstructure:"badger_path" yaml:"badger_path,omitempty"`

	// Guest controls whether unknown users and anonymous requests are
	// admitted as guest sessions.
	Guest identity.GuestConfig `mapstructure:"guest" yaml:"guest,omitempty"`
}

// SMBConfig contains the SMB security settings consumed by the session
// setup and signing layers.
type SMBConfig struct {
	// NetBIOSName is the server name embedded in NTLM challenge
	// target-info and used as the fallback domain when a client omits
	// one. Default: hostname, uppercased and truncated to 15 characters.
	NetBIOSName string `mapstructure:"netbios_name" yaml:"netbios_name"`

	// Dialects lists the SMB revisions the server accepts.
	// Valid values: "2.0.2", "2.1", "3.0", "3.0.2", "3.1.1"
	// Default: all of them.
	Dialects []string `mapstructure:"dialects" yaml:"dialects,omitempty"`

	// RequireSigning rejects unsigned requests on authenticated,
	// non-guest sessions.
	// Default: true
	// Use a pointer to distinguish "not set" from "explicitly false"
	RequireSigning *bool `mapstructure:"require_signing" yaml:"require_signing"`

	// AllowNTLMv1 accepts legacy 24-byte NTLMv1 responses. Off by
	// default: v1 responses carry no server binding and are crackable
	// offline.
	AllowNTLMv1 bool `mapstructure:"allow_ntlmv1" yaml:"allow_ntlmv1"`

	// AllowGuest admits unknown users and anonymous requests as guest
	// sessions instead of rejecting them.
	AllowGuest bool `mapstructure:"allow_guest" yaml:"allow_guest"`
}

// SigningRequired returns whether message signing is enforced.
// Defaults to true if not explicitly set.
func (c *SMBConfig) SigningRequired() bool {
	if c.RequireSigning == nil {
		return true
	}
	return *c.RequireSigning
}

// AuthConfig builds the authenticator configuration from the SMB section.
func (c *SMBConfig) AuthConfig() smbauth.Config {
	return smbauth.Config{
		NetBIOSName: c.NetBIOSName,
		AllowGuest:  c.AllowGuest,
		AllowNTLMv1: c.AllowNTLMv1,
	}
}

// DialectList resolves the configured dialect names to wire identifiers.
func (c *SMBConfig) DialectList() ([]types.Dialect, error) {
	names := c.Dialects
	if len(names) == 0 {
		return []types.Dialect{
			types.Dialect0202,
			types.Dialect0210,
			types.Dialect0300,
			types.Dialect0302,
			types.Dialect0311,
		}, nil
	}

	dialects := make([]types.Dialect, 0, len(names))
	for _, name := range names {
		d, ok := dialectByName[name]
		if !ok {
			return nil, fmt.Errorf("unknown SMB dialect %q", name)
		}
		dialects = append(dialects, d)
	}
	return dialects, nil
}

var dialectByName = map[string]types.Dialect{
	"2.0.2": types.Dialect0202,
	"2.1":   types.Dialect0210,
	"3.0":   types.Dialect0300,
	"3.0.2": types.Dialect0302,
	"3.1.1": types.Dialect0311,
}

// AdminConfig contains initial admin user configuration for bootstrap.
// This is used by 'smbsec init' to pre-configure the first admin user.
type AdminConfig struct {
	// Username is the admin username
	// Default: "admin"
	Username string `mapstructure:"username" yaml:"username"`

	// Email is the admin user's email address (optional)
	Email string `mapstructure:"email" yaml:"email,omitempty"`

	// PasswordHash is the bcrypt hash of the admin password
	// Generated during 'smbsec init' or can be set manually
	PasswordHash string `mapstructure:"password_hash" yaml:"password_hash,omitempty"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (SMBSEC_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Configure viper
	setupViper(v, configPath)

	// Read configuration file if it exists
	configFileFound, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}

	// If no config file was found, use defaults
	if !configFileFound {
		cfg := GetDefaultConfig()
		return cfg, nil
	}

	// Unmarshal into config struct with custom decode hooks
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply defaults for any missing values
	ApplyDefaults(&cfg)

	// Validate configuration
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
// It checks if the config file exists and provides user-friendly instructions if not.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: User-friendly error with instructions if config not found
func MustLoad(configPath string) (*Config, error) {
	// Determine config path
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  smbsec init\n\n"+
				"Or specify a custom config file:\n"+
				"  smbsec <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  smbsec init --config %s",
				configPath, configPath)
		}
	}

	// Load configuration
	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path.
// The configuration is saved in YAML format using proper yaml tags.
func SaveConfig(cfg *Config, path string) error {
	// Create parent directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Use yaml.Marshal directly to respect yaml tags
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file with restricted permissions (0600 = owner read/write only).
	// This is important because config files contain sensitive data like
	// NT hashes and the JWT secret.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Set up environment variable support
	// Environment variables use SMBSEC_ prefix and underscores
	// Example: SMBSEC_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("SMBSEC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Configure config file search
	if configPath != "" {
		// Use explicitly specified config file
		v.SetConfigFile(configPath)
	} else {
		// Use default location: $XDG_CONFIG_HOME/smbsec/config.{yaml,toml}
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml") // Primary format
	}
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		// Check if error is "config file not found"
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is acceptable - use defaults
			return false, nil
		}
		// Also check for os.PathError when explicit config file doesn't exist
		if os.IsNotExist(err) {
			// Config file not found is acceptable - use defaults
			return false, nil
		}
		// Other errors are problems
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types.
// This includes ByteSize and time.Duration parsing.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

// byteSizeDecodeHook returns a mapstructure decode hook that converts strings
// and integers to bytesize.ByteSize. This enables config files to use human-readable
// sizes like "1Gi", "500Mi", "100MB", or plain numbers.
func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		// Only handle conversion to ByteSize
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			// Parse human-readable string like "1Gi", "500Mi", "100MB"
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

// durationDecodeHook returns a mapstructure decode hook that converts strings
// to time.Duration. This enables config files to use human-readable durations
// like "30s", "5m", "1h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		// Only handle conversion to time.Duration
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			// Parse duration string like "30s", "5m", "1h"
			return time.ParseDuration(v)
		case int:
			// Assume nanoseconds for raw integers
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
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	// Check XDG_CONFIG_HOME
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "smbsec")
	}

	// Fall back to ~/.config
	home, err := os.UserHomeDir()
	if err != nil {
		// If we can't get home dir, use current directory as last resort
		return "."
	}

	return filepath.Join(home, ".config", "smbsec")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	path := GetDefaultConfigPath()
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
