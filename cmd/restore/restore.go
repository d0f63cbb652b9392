package restore

import "github.com/spf13/cobra"

// RestoreCmd is the root for `kanri restore` commands.
var RestoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Run and inspect destructive snapshot restores",
}
