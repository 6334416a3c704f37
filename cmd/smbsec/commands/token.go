package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/smbsec/internal/cli/prompt"
	"github.com/marmos91/smbsec/pkg/api/auth"
	"github.com/marmos91/smbsec/pkg/config"
)

var tokenCmd = &cobra.Command{
	Use:   "token <username>",
	Short: "Issue a JWT token pair for API access",
	Long: `Issue a JWT access/refresh token pair for the management API.

Validates the user's password against the configured user store and
prints the signed tokens. This is useful for scripting API calls
without going through the /api/v1/auth/login endpoint.

Examples:
  # Issue tokens for the admin user
  smbsec token admin

  # Use a custom config file
  smbsec token alice --config /etc/smbsec/config.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runToken,
}

func runToken(cmd *cobra.Command, args []string) error {
	username := args[0]

	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return err
	}

	users, err := cfg.CreateUserStore()
	if err != nil {
		return fmt.Errorf("failed to initialize user store: %w", err)
	}
	defer func() { _ = users.Close() }()

	password, err := prompt.Password(fmt.Sprintf("Password for %s", username))
	if err != nil {
		return err
	}

	ctx := context.Background()
	user, err := users.ValidateCredentials(ctx, username, password)
	if err != nil {
		return fmt.Errorf("authentication failed: %w", err)
	}

	cfg.API.ApplyDefaults()
	jwtService, err := auth.NewJWTService(cfg.API.JWT)
	if err != nil {
		return fmt.Errorf("invalid JWT configuration: %w", err)
	}

	pair, err := jwtService.GenerateTokenPair(user)
	if err != nil {
		return fmt.Errorf("failed to generate tokens: %w", err)
	}

	fmt.Printf("Access token (expires in %ds):\n%s\n\n", pair.ExpiresIn, pair.AccessToken)
	fmt.Printf("Refresh token (valid for %s):\n%s\n", jwtService.GetRefreshTokenDuration(), pair.RefreshToken)

	return nil
}
