package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marmos91/smbsec/internal/logger"
	"github.com/marmos91/smbsec/internal/telemetry"
	"github.com/marmos91/smbsec/pkg/api"
	"github.com/marmos91/smbsec/pkg/config"
	"github.com/marmos91/smbsec/pkg/identity"
	"github.com/marmos91/smbsec/pkg/metrics"

	// Import prometheus metrics to register init() functions
	_ "github.com/marmos91/smbsec/pkg/metrics/prometheus"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the smbsec server",
	Long: `Start the smbsec server with the specified configuration.

The server loads the configured user store, ensures the admin user exists,
and serves the management API together with the Prometheus metrics endpoint.

Use --config to specify a custom configuration file, or it will use the
default location at $XDG_CONFIG_HOME/smbsec/config.yaml.

Examples:
  # Start with the default config file
  smbsec serve

  # Start with custom config file
  smbsec serve --config /etc/smbsec/config.yaml

  # Start with environment variable overrides
  SMBSEC_LOGGING_LEVEL=DEBUG smbsec serve`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	// Initialize the structured logger
	if err := InitLogger(cfg); err != nil {
		return err
	}

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry (if enabled)
	telemetryCfg := telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "smbsec",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	}
	telemetryShutdown, err := telemetry.Init(ctx, telemetryCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetryShutdown(ctx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}()

	// Initialize Pyroscope profiling (if enabled)
	profilingCfg := telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "smbsec",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
	}
	profilingShutdown, err := telemetry.InitProfiling(profilingCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", "error", err)
		}
	}()

	fmt.Println("smbsec - NTLM authentication and SMB message signing")
	logger.Info("Log level", "level", cfg.Logging.Level, "format", cfg.Logging.Format)
	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))
	if telemetry.IsEnabled() {
		logger.Info("Telemetry enabled", "endpoint", cfg.Telemetry.Endpoint, "sample_rate", cfg.Telemetry.SampleRate)
	} else {
		logger.Info("Telemetry disabled")
	}
	if telemetry.IsProfilingEnabled() {
		logger.Info("Profiling enabled", "endpoint", cfg.Telemetry.Profiling.Endpoint, "profile_types", cfg.Telemetry.Profiling.ProfileTypes)
	} else {
		logger.Info("Profiling disabled")
	}

	// Initialize metrics (if enabled)
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		logger.Info("Metrics collection enabled")
	} else {
		logger.Info("Metrics collection disabled")
	}

	// Initialize the user store backing NTLM verification and the API
	users, err := cfg.CreateUserStore()
	if err != nil {
		return fmt.Errorf("failed to initialize user store: %w", err)
	}
	defer func() {
		if err := users.Close(); err != nil {
			logger.Error("user store close error", "error", err)
		}
	}()
	logger.Info("User store initialized", logger.StoreType(storeType(cfg)))

	// Ensure admin user exists (generates random password on first run).
	// The config-backed store is read-only at runtime: its accounts come
	// from the config file, so bootstrap is skipped there.
	if storeType(cfg) != "config" {
		adminPassword, err := identity.EnsureAdminUser(ctx, users)
		if err != nil {
			return fmt.Errorf("failed to ensure admin user: %w", err)
		}
		if adminPassword != "" {
			logger.Info("Admin user created", "username", identity.AdminUsername)
			fmt.Printf("\n*** IMPORTANT: Admin user created with password: %s ***\n", adminPassword)
			fmt.Println("Please save this password. It will not be shown again.")
			fmt.Println()
		}
	}

	// Log the effective SMB security policy
	logger.Info("SMB security policy",
		"netbios_name", cfg.SMB.NetBIOSName,
		"require_signing", cfg.SMB.SigningRequired(),
		"allow_ntlmv1", cfg.SMB.AllowNTLMv1,
		"allow_guest", cfg.SMB.AllowGuest,
		"dialects", cfg.SMB.Dialects)

	if !cfg.API.IsEnabled() {
		return fmt.Errorf("API server is disabled; nothing to serve (set api.enabled: true)")
	}

	apiServer, err := api.NewServer(cfg.API, users)
	if err != nil {
		return fmt.Errorf("failed to create API server: %w", err)
	}

	// Start API server in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- apiServer.Start(ctx)
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running. Press Ctrl+C to stop.")

	select {
	case <-sigChan:
		signal.Stop(sigChan)
		logger.Info("Shutdown signal received, initiating graceful shutdown")
		cancel()

		// Wait for server to shut down gracefully
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()

		select {
		case err := <-serverDone:
			if err != nil {
				logger.Error("Server shutdown error", "error", err)
				return err
			}
			logger.Info("Server stopped gracefully")
		case <-shutdownCtx.Done():
			logger.Error("Graceful shutdown timed out", "timeout", cfg.ShutdownTimeout)
			return fmt.Errorf("graceful shutdown timed out after %s", cfg.ShutdownTimeout)
		}

	case err := <-serverDone:
		signal.Stop(sigChan)
		if err != nil {
			logger.Error("Server error", "error", err)
			return err
		}
		logger.Info("Server stopped")
	}

	return nil
}

// storeType returns the effective identity store backend name.
func storeType(cfg *config.Config) string {
	if cfg.Identity.Store == "" {
		return "config"
	}
	return cfg.Identity.Store
}
