package restore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/miraijuku/kanri/internal/blob"
	cfgpkg "github.com/miraijuku/kanri/internal/config"
	"github.com/miraijuku/kanri/internal/dao/postgres"
	"github.com/miraijuku/kanri/internal/logging"
	restoresvc "github.com/miraijuku/kanri/internal/restore"
	"github.com/miraijuku/kanri/internal/schema"
	vpkg "github.com/miraijuku/kanri/internal/vault"
)

var flagRunYes bool

var runCmd = &cobra.Command{
	Use:   "run <file-name>",
	Short: "Destructively replace all live data with a snapshot",
	Long:  "Downloads the named weekly snapshot, takes a best-effort safety backup, empties every table in dependency order and replays the snapshot. Progress events are streamed to stdout as JSON lines.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fileName := strings.TrimSpace(args[0])
		if !flagRunYes {
			if err := confirmDestructive(fileName); err != nil {
				return err
			}
		}
		if err := schema.CheckOrders(); err != nil {
			return err
		}
		cfg, err := cfgpkg.Load()
		if err != nil {
			return err
		}
		log := logging.New(cfg.Logging)
		// A full run normally finishes within a minute; leave plenty of headroom.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		vpkg.ApplyToConfig(ctx, &cfg)

		db, err := postgres.Open(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.EnsureRestoreLogSchema(ctx, db); err != nil {
			return err
		}
		blobs, err := blob.NewS3Store(cfg.Storage)
		if err != nil {
			return err
		}
		svc := restoresvc.New(postgres.NewTableClient(db), blobs, postgres.NewRestoreLogDAO(db), restoresvc.Options{
			Logger:              log,
			ChunkSize:           cfg.Restore.ChunkSize,
			DisableSafetyBackup: !cfg.SafetyBackupEnabled(),
		})

		sum, err := svc.StartRestore(ctx, fileName, restoresvc.NewStreamReporter(os.Stdout))
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "restore %s: %d tables, %d rows, %dms\n",
			sum.Status, sum.TablesCount, sum.TotalRows, sum.DurationMs)
		if sum.Status != restoresvc.StatusRestored {
			return fmt.Errorf("restore finished with status %s", sum.Status)
		}
		return nil
	},
}

// confirmDestructive makes the operator retype the snapshot name. Piped
// stdin is refused: scripts must pass --yes explicitly.
func confirmDestructive(fileName string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return errors.New("refusing to run a destructive restore without a terminal; pass --yes to confirm")
	}
	fmt.Fprintf(os.Stderr, "This will DELETE all live data and replace it with %q.\nType the snapshot name to continue: ", fileName)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return err
	}
	if strings.TrimSpace(line) != fileName {
		return errors.New("confirmation did not match; aborting")
	}
	return nil
}

func init() {
	RestoreCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&flagRunYes, "yes", false, "Skip the interactive confirmation")
}
