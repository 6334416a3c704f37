// Package commands implements the CLI commands for smbsec server management.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	configcmd "github.com/marmos91/smbsec/cmd/smbsec/commands/config"
	usercmd "github.com/marmos91/smbsec/cmd/smbsec/commands/user"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "smbsec",
	Short: "smbsec - NTLM authentication and SMB message signing",
	Long: `smbsec is the authentication and message-signing subsystem of an SMB
file server. It verifies NTLM/NTLMv2 credentials, derives session and
per-channel signing keys, and signs/verifies SMB PDUs across the legacy,
HMAC-SHA256 and AES-CMAC signing generations.

The smbsec binary manages the user store, serves the admin API and the
Prometheus metrics endpoint, and provides configuration tooling.

Use "smbsec [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/smbsec/config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(configcmd.Cmd)
	rootCmd.AddCommand(usercmd.Cmd)
	rootCmd.AddCommand(completionCmd)

	// Hide the default completion command (we provide our own)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
	os.Exit(1)
}
