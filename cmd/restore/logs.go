package restore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	cfgpkg "github.com/miraijuku/kanri/internal/config"
	"github.com/miraijuku/kanri/internal/dao/postgres"
	vpkg "github.com/miraijuku/kanri/internal/vault"
)

var (
	flagLogsLimit int
	flagLogsJSON  bool
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "List past restore runs from the audit trail",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cfgpkg.Load()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		vpkg.ApplyToConfig(ctx, &cfg)
		db, err := postgres.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		items, err := postgres.NewRestoreLogDAO(db).ListRestoreLogs(ctx, flagLogsLimit)
		if err != nil {
			return err
		}
		if flagLogsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		}
		tw := tablewriter.NewWriter(os.Stdout)
		tw.SetHeader([]string{"ID", "FILE", "STATUS", "TABLES", "ROWS", "MS", "CREATED_AT", "ERROR"})
		for _, it := range items {
			errMsg := it.ErrorMessage
			if len(errMsg) > 60 {
				errMsg = errMsg[:57] + "..."
			}
			tw.Append([]string{
				it.ID,
				it.FileName,
				it.Status,
				fmt.Sprintf("%d", it.TablesCount),
				fmt.Sprintf("%d", it.TotalRows),
				fmt.Sprintf("%d", it.DurationMs),
				it.CreatedAt.Format(time.RFC3339),
				errMsg,
			})
		}
		tw.Render()
		return nil
	},
}

func init() {
	RestoreCmd.AddCommand(logsCmd)
	logsCmd.Flags().IntVar(&flagLogsLimit, "limit", 20, "Maximum number of runs to show")
	logsCmd.Flags().BoolVar(&flagLogsJSON, "json", false, "Output JSON")
}
