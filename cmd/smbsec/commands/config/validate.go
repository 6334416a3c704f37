package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/smbsec/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the smbsec configuration file.

Checks for syntax errors, missing required fields, and invalid values.

Examples:
  # Validate default config
  smbsec config validate

  # Validate specific config file
  smbsec config validate --config /etc/smbsec/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	// Get config path from parent's persistent flag
	configPath, _ := cmd.Flags().GetString("config")

	// Load and validate configuration
	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	// Determine path for display
	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	// Additional validation checks
	var warnings []string

	// Check JWT secret is configured
	if cfg.API.IsEnabled() && cfg.API.JWT.Secret == "" {
		warnings = append(warnings, "JWT secret not configured - API authentication will fail")
	}

	// Check signing policy
	if !cfg.SMB.SigningRequired() {
		warnings = append(warnings, "Message signing not required - sessions may go unsigned")
	}
	if cfg.SMB.AllowNTLMv1 {
		warnings = append(warnings, "NTLMv1 enabled - legacy responses are crackable offline")
	}
	if cfg.SMB.AllowGuest {
		warnings = append(warnings, "Guest access enabled - unknown users are admitted without credentials")
	}

	// Check the config-backed store has users
	if (cfg.Identity.Store == "config" || cfg.Identity.Store == "") && len(cfg.Identity.Users) == 0 {
		warnings = append(warnings, "No users defined - add accounts with 'smbsec user add'")
	}

	// Print results
	fmt.Printf("Configuration file: %s\n", displayPath)
	fmt.Println("Validation: OK")

	if len(warnings) > 0 {
		fmt.Println("\nWarnings:")
		for _, w := range warnings {
			fmt.Printf("  - %s\n", w)
		}
	}

	identityStore := cfg.Identity.Store
	if identityStore == "" {
		identityStore = "config"
	}

	fmt.Printf("\nConfiguration summary:\n")
	fmt.Printf("  Identity store:  %s\n", identityStore)
	fmt.Printf("  API port:        %d\n", cfg.API.Port)
	fmt.Printf("  Log level:       %s\n", cfg.Logging.Level)

	return nil
}
