package cmd

import (
	configcmd "github.com/miraijuku/kanri/cmd/config"
	restorecmd "github.com/miraijuku/kanri/cmd/restore"
	srvcmd "github.com/miraijuku/kanri/cmd/server"
	snapcmd "github.com/miraijuku/kanri/cmd/snapshot"
	vaultcmd "github.com/miraijuku/kanri/cmd/vault"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "kanri",
	Short: "Operations backend for the kanri school administration system",
	Long:  "kanri manages database snapshots for the school administration system: listing snapshot slots, running dependency-ordered restores, and serving the admin restore API.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(srvcmd.ServerCmd)
	rootCmd.AddCommand(restorecmd.RestoreCmd)
	rootCmd.AddCommand(snapcmd.SnapshotCmd)
	rootCmd.AddCommand(configcmd.ConfigCmd)
	rootCmd.AddCommand(vaultcmd.VaultCmd)
}
