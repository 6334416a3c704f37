package user

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/smbsec/internal/cli/prompt"
	"github.com/marmos91/smbsec/pkg/config"
	"github.com/marmos91/smbsec/pkg/identity"
)

var passwdCmd = &cobra.Command{
	Use:     "passwd <username>",
	Aliases: []string{"password"},
	Short:   "Change a user's password",
	Long: `Change a user's password.

Replaces both the bcrypt hash and the NT hash so the new password works
for API login and NTLM authentication.

Examples:
  smbsec user passwd alice`,
	Args: cobra.ExactArgs(1),
	RunE: runPasswd,
}

func runPasswd(cmd *cobra.Command, args []string) error {
	username := args[0]

	cfg, savePath, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	password, err := prompt.PasswordWithConfirmation("New password", "Confirm password", identity.MinPasswordLength)
	if err != nil {
		return err
	}

	passwordHash, ntHashHex, err := identity.HashPasswordWithNT(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if usesConfigStore(cfg) {
		idx := findConfigUser(cfg, username)
		if idx < 0 {
			return fmt.Errorf("user %q not found", username)
		}
		cfg.Identity.Users[idx].PasswordHash = passwordHash
		cfg.Identity.Users[idx].NTHash = ntHashHex
		cfg.Identity.Users[idx].MustChangePassword = false
		if err := config.SaveConfig(cfg, savePath); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
	} else {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		if err := store.UpdatePassword(context.Background(), username, passwordHash, ntHashHex); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}
	}

	fmt.Printf("Password changed for user %q\n", username)
	return nil
}
