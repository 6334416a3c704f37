package user

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/smbsec/pkg/config"
	"github.com/marmos91/smbsec/pkg/identity"
)

var enableCmd = &cobra.Command{
	Use:   "enable <username>",
	Short: "Enable a user account",
	Long: `Enable a user account so it can authenticate again.

Examples:
  smbsec user enable alice`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(cmd, args[0], true)
	},
}

var disableCmd = &cobra.Command{
	Use:   "disable <username>",
	Short: "Disable a user account",
	Long: `Disable a user account. Disabled accounts are rejected by both
NTLM authentication and API login.

Examples:
  smbsec user disable alice`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setEnabled(cmd, args[0], false)
	},
}

func setEnabled(cmd *cobra.Command, username string, enabled bool) error {
	if !enabled && identity.IsAdminUsername(username) {
		return fmt.Errorf("the %q account cannot be disabled", username)
	}

	cfg, savePath, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if usesConfigStore(cfg) {
		idx := findConfigUser(cfg, username)
		if idx < 0 {
			return fmt.Errorf("user %q not found", username)
		}
		cfg.Identity.Users[idx].Enabled = enabled
		if err := config.SaveConfig(cfg, savePath); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
	} else {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		ctx := context.Background()
		u, err := store.GetUser(ctx, username)
		if err != nil {
			return fmt.Errorf("failed to load user: %w", err)
		}
		u.Enabled = enabled
		if err := store.UpdateUser(ctx, u); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
	}

	state := "enabled"
	if !enabled {
		state = "disabled"
	}
	fmt.Printf("User %q %s\n", username, state)
	return nil
}
