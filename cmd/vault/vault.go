package vaultcmd

import "github.com/spf13/cobra"

// VaultCmd is the root for `kanri vault` commands.
var VaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Manage secrets in the OS keychain",
}
