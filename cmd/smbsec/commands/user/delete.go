package user

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/smbsec/internal/cli/prompt"
	"github.com/marmos91/smbsec/pkg/config"
	"github.com/marmos91/smbsec/pkg/identity"
)

var deleteForce bool

var deleteCmd = &cobra.Command{
	Use:     "delete <username>",
	Aliases: []string{"remove", "rm"},
	Short:   "Delete a user",
	Long: `Delete a user account.

Examples:
  # Delete a user (asks for confirmation)
  smbsec user delete alice

  # Delete without confirmation
  smbsec user delete alice --force`,
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "Skip confirmation prompt")
}

func runDelete(cmd *cobra.Command, args []string) error {
	username := args[0]

	if identity.IsAdminUsername(username) {
		return fmt.Errorf("the %q account cannot be deleted", username)
	}

	cfg, savePath, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ok, err := prompt.ConfirmWithForce(fmt.Sprintf("Delete user %q?", username), deleteForce)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("Aborted")
		return nil
	}

	if usesConfigStore(cfg) {
		idx := findConfigUser(cfg, username)
		if idx < 0 {
			return fmt.Errorf("user %q not found", username)
		}
		cfg.Identity.Users = append(cfg.Identity.Users[:idx], cfg.Identity.Users[idx+1:]...)
		if err := config.SaveConfig(cfg, savePath); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
	} else {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		if err := store.DeleteUser(context.Background(), username); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
	}

	fmt.Printf("User %q deleted\n", username)
	return nil
}
