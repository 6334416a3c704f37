// Package user implements user management subcommands.
//
// The "config" identity store is read-only at runtime, so account changes
// are written back to the configuration file. All other backends (file,
// badger, database) are mutated through the store itself.
package user

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/smbsec/pkg/config"
	"github.com/marmos91/smbsec/pkg/identity"
)

// Cmd is the user subcommand.
var Cmd = &cobra.Command{
	Use:   "user",
	Short: "User management",
	Long: `Manage smbsec user accounts.

Accounts carry both a bcrypt hash (API login) and an NT hash (NTLM
authentication); both are derived from the same password on add/passwd.

Subcommands:
  add      Add a new user (prompts for password)
  list     List all users
  delete   Delete a user
  passwd   Change a user's password
  enable   Enable a user account
  disable  Disable a user account`,
}

func init() {
	Cmd.AddCommand(addCmd)
	Cmd.AddCommand(listCmd)
	Cmd.AddCommand(deleteCmd)
	Cmd.AddCommand(passwdCmd)
	Cmd.AddCommand(enableCmd)
	Cmd.AddCommand(disableCmd)
}

// loadConfig loads the configuration and resolves the path used to save
// config-store changes back.
func loadConfig(cmd *cobra.Command) (*config.Config, string, error) {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return nil, "", err
	}

	savePath := configPath
	if savePath == "" {
		savePath = config.GetDefaultConfigPath()
	}
	return cfg, savePath, nil
}

// usesConfigStore reports whether accounts live in the config file.
func usesConfigStore(cfg *config.Config) bool {
	return cfg.Identity.Store == "" || cfg.Identity.Store == "config"
}

// findConfigUser returns the index of a user in the inline account list,
// or -1 if not present.
func findConfigUser(cfg *config.Config, username string) int {
	for i := range cfg.Identity.Users {
		if cfg.Identity.Users[i].Username == username {
			return i
		}
	}
	return -1
}

// openStore builds the user store for backends that support mutation.
func openStore(cfg *config.Config) (identity.UserStore, error) {
	store, err := cfg.CreateUserStore()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize user store: %w", err)
	}
	return store, nil
}
