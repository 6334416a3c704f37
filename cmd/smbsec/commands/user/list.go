package user

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/smbsec/internal/cli/output"
	"github.com/marmos91/smbsec/internal/cli/timeutil"
)

var listOutput string

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List all users",
	Long: `List all user accounts in the configured store.

Examples:
  # List users as a table
  smbsec user list

  # List users as JSON
  smbsec user list --output json`,
	RunE: runList,
}

func init() {
	listCmd.Flags().StringVarP(&listOutput, "output", "o", "table", "Output format (table|json|yaml)")
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	users, err := store.ListUsers(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}

	format, err := output.ParseFormat(listOutput)
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, users)
	case output.FormatYAML:
		return output.PrintYAML(os.Stdout, users)
	}

	if len(users) == 0 {
		fmt.Println("No users configured")
		return nil
	}

	table := output.NewTableData("USERNAME", "ROLE", "ENABLED", "NTLM", "LAST LOGIN")
	for _, u := range users {
		enabled := "yes"
		if !u.Enabled {
			enabled = "no"
		}
		ntlm := "yes"
		if u.NTHash == "" {
			ntlm = "no"
		}
		lastLogin := "never"
		if !u.LastLogin.IsZero() {
			lastLogin = u.LastLogin.Local().Format(timeutil.LocalTimeFormat)
		}
		table.AddRow(u.Username, string(u.Role), enabled, ntlm, lastLogin)
	}

	return output.PrintTable(os.Stdout, table)
}
