package snapshot

import "github.com/spf13/cobra"

// SnapshotCmd is the root for `kanri snapshot` commands.
var SnapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Inspect snapshot blobs in the object store",
}
