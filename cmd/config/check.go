package configcmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/miraijuku/kanri/internal/blob"
	cfgpkg "github.com/miraijuku/kanri/internal/config"
	"github.com/miraijuku/kanri/internal/dao/postgres"
	"github.com/miraijuku/kanri/internal/schema"
	vpkg "github.com/miraijuku/kanri/internal/vault"
)

var flagVerify bool

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check configuration and report issues",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cfgpkg.Load()
		if err != nil {
			return err
		}
		var problems []string

		if cfg.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
		if cfg.Postgres.Host == "" {
			problems = append(problems, "postgres.host is required")
		}
		if cfg.Postgres.Port <= 0 {
			problems = append(problems, "postgres.port must be > 0")
		}
		if cfg.Postgres.DBName == "" {
			problems = append(problems, "postgres.dbname is required")
		}
		if cfg.Storage.Endpoint == "" {
			problems = append(problems, "storage.endpoint is required")
		}
		if cfg.Storage.Bucket == "" {
			problems = append(problems, "storage.bucket is required")
		}
		if cfg.Restore.ChunkSize < 0 {
			problems = append(problems, "restore.chunk_size must not be negative")
		}
		if err := schema.CheckOrders(); err != nil {
			problems = append(problems, fmt.Sprintf("table catalog: %v", err))
		}

		if flagVerify {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			vpkg.ApplyToConfig(ctx, &cfg)
			if db, err := postgres.Open(ctx, cfg); err != nil {
				fmt.Fprintf(os.Stderr, "verify: cannot connect to postgres: %v\n", err)
			} else {
				db.Close()
				fmt.Fprintln(os.Stderr, "verify: postgres reachable")
			}
			if blobs, err := blob.NewS3Store(cfg.Storage); err != nil {
				fmt.Fprintf(os.Stderr, "verify: cannot build object store client: %v\n", err)
			} else if _, err := blobs.List(ctx, "backup_"); err != nil {
				fmt.Fprintf(os.Stderr, "verify: cannot list snapshot bucket: %v\n", err)
			} else {
				fmt.Fprintln(os.Stderr, "verify: snapshot bucket reachable")
			}
		}

		if len(problems) > 0 {
			fmt.Fprintln(os.Stderr, "Configuration issues:")
			for _, p := range problems {
				fmt.Fprintf(os.Stderr, "- %s\n", p)
			}
			return errors.New(strings.Join(problems, "; "))
		}
		fmt.Fprintln(os.Stderr, "Configuration looks valid.")
		return nil
	},
}

func init() {
	ConfigCmd.AddCommand(checkCmd)
	checkCmd.Flags().BoolVar(&flagVerify, "verify", false, "Also verify postgres and object store connectivity")
}
