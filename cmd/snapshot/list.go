package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/miraijuku/kanri/internal/blob"
	cfgpkg "github.com/miraijuku/kanri/internal/config"
	vpkg "github.com/miraijuku/kanri/internal/vault"
)

var flagListJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshot objects in the bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cfgpkg.Load()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		vpkg.ApplyToConfig(ctx, &cfg)
		blobs, err := blob.NewS3Store(cfg.Storage)
		if err != nil {
			return err
		}
		items, err := blobs.List(ctx, "backup_")
		if err != nil {
			return err
		}
		if flagListJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		}
		tw := tablewriter.NewWriter(os.Stdout)
		tw.SetHeader([]string{"NAME", "SIZE", "LAST_MODIFIED"})
		for _, it := range items {
			tw.Append([]string{
				it.Name,
				fmt.Sprintf("%d", it.Size),
				it.LastModified.Format(time.RFC3339),
			})
		}
		tw.Render()
		return nil
	},
}

func init() {
	SnapshotCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&flagListJSON, "json", false, "Output JSON")
}
