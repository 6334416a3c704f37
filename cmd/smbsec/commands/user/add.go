package user

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/marmos91/smbsec/internal/cli/prompt"
	"github.com/marmos91/smbsec/pkg/config"
	"github.com/marmos91/smbsec/pkg/identity"
)

var (
	addRole        string
	addDisplayName string
	addEmail       string
)

var addCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Add a new user",
	Long: `Add a new user account.

Prompts for a password and stores both the bcrypt hash and the NT hash
so the same credential works for API login and NTLM authentication.

Examples:
  # Add a regular user
  smbsec user add alice

  # Add an administrator
  smbsec user add bob --role admin`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addRole, "role", "user", "User role (user|admin)")
	addCmd.Flags().StringVar(&addDisplayName, "display-name", "", "Human-readable display name")
	addCmd.Flags().StringVar(&addEmail, "email", "", "Email address")
}

func runAdd(cmd *cobra.Command, args []string) error {
	username := args[0]

	role := identity.UserRole(addRole)
	if !role.IsValid() {
		return fmt.Errorf("invalid role %q (valid: user, admin)", addRole)
	}

	cfg, savePath, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	password, err := prompt.NewPassword()
	if err != nil {
		return err
	}

	passwordHash, ntHashHex, err := identity.HashPasswordWithNT(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	newUser := identity.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: passwordHash,
		NTHash:       ntHashHex,
		Enabled:      true,
		Role:         role,
		DisplayName:  addDisplayName,
		Email:        addEmail,
		CreatedAt:    time.Now(),
	}

	if usesConfigStore(cfg) {
		if findConfigUser(cfg, username) >= 0 {
			return fmt.Errorf("user %q already exists", username)
		}
		cfg.Identity.Users = append(cfg.Identity.Users, newUser)
		if err := config.SaveConfig(cfg, savePath); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
	} else {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		if err := store.CreateUser(context.Background(), &newUser); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
	}

	fmt.Printf("User %q created (role: %s)\n", username, role)
	return nil
}
