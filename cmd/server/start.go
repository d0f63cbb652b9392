package server

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/miraijuku/kanri/internal/blob"
	cfgpkg "github.com/miraijuku/kanri/internal/config"
	"github.com/miraijuku/kanri/internal/dao/postgres"
	"github.com/miraijuku/kanri/internal/httpapi"
	"github.com/miraijuku/kanri/internal/logging"
	"github.com/miraijuku/kanri/internal/restore"
	"github.com/miraijuku/kanri/internal/schema"
	srv "github.com/miraijuku/kanri/internal/server"
	vpkg "github.com/miraijuku/kanri/internal/vault"
)

var (
	flagDetach bool
	flagAddr   string
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the local server",
	RunE: func(cmd *cobra.Command, args []string) error {
		exe, err := os.Executable()
		if err != nil {
			return err
		}

		pidPath := srv.DefaultPIDPath()
		if flagDetach {
			// Spawn a detached child running in foreground mode
			args := []string{"server", "start", "--no-detach"}
			if flagAddr != "" {
				args = append(args, "--addr", flagAddr)
			}
			child := exec.Command(exe, args...)
			// Best-effort: redirect output to a basic log file next to pid
			logPath := filepath.Join(filepath.Dir(pidPath), "server.log")
			_ = os.MkdirAll(filepath.Dir(pidPath), 0o755)
			lf, _ := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if lf != nil {
				defer lf.Close()
				child.Stdout = lf
				child.Stderr = lf
			}
			if runtime.GOOS != "windows" {
				child.SysProcAttr = srv.DetachAttr()
			}
			if err := child.Start(); err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "server started in background (pid=%d)\n", child.Process.Pid)
			return nil
		}

		cfg, err := cfgpkg.Load()
		if err != nil {
			return err
		}
		addr := flagAddr
		if addr == "" {
			addr = fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
		}
		handler, cleanup, err := buildHandler(cfg)
		if err != nil {
			return err
		}
		defer cleanup()
		return srv.RunForeground(addr, pidPath, handler.Router())
	},
}

func buildHandler(cfg cfgpkg.Config) (*httpapi.Handler, func(), error) {
	// A half-updated catalog must fail loudly at startup, not mid-restore.
	if err := schema.CheckOrders(); err != nil {
		return nil, nil, err
	}
	log := logging.New(cfg.Logging)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	vpkg.ApplyToConfig(ctx, &cfg)

	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := postgres.EnsureRestoreLogSchema(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}
	blobs, err := blob.NewS3Store(cfg.Storage)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("open object store: %w", err)
	}
	logDAO := postgres.NewRestoreLogDAO(db)
	svc := restore.New(postgres.NewTableClient(db), blobs, logDAO, restore.Options{
		Logger:              log,
		ChunkSize:           cfg.Restore.ChunkSize,
		DisableSafetyBackup: !cfg.SafetyBackupEnabled(),
	})
	return httpapi.New(svc, logDAO, log), db.Close, nil
}

func init() {
	startCmd.Flags().BoolVar(&flagDetach, "detach", false, "Run in background")
	// Hidden internal flag to prevent loop when re-execing for detach
	startCmd.Flags().Bool("no-detach", false, "internal")
	_ = startCmd.Flags().MarkHidden("no-detach")
	startCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address override (defaults to config)")
}
