package configcmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cfgpkg "github.com/miraijuku/kanri/internal/config"
	"github.com/miraijuku/kanri/internal/paths"
)

var (
	flagOverwrite bool
	flagDryRun    bool
	// Server
	flagServerPort int
	// Postgres
	flagPGHost     string
	flagPGPort     int
	flagPGUser     string
	flagPGPassword string
	flagPGDBName   string
	flagPGSSLMode  string
	// Storage
	flagStEndpoint  string
	flagStRegion    string
	flagStBucket    string
	flagStAccessKey string
	flagStUseSSL    bool
	// Restore
	flagChunkSize    int
	flagSafetyBackup bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create or update the global config.yaml",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := paths.EnsureHome(); err != nil {
			return err
		}
		path := cfgpkg.Path()
		if !flagOverwrite && !flagDryRun {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("config already exists at %s (use --overwrite to replace)", path)
			}
		}

		// Start from existing config (or defaults if missing) to preserve secrets
		cfg, _ := cfgpkg.Load()

		if cmd.Flags().Changed("server-port") {
			cfg.Server.Port = flagServerPort
		}

		if cmd.Flags().Changed("pg-host") {
			cfg.Postgres.Host = flagPGHost
		}
		if cmd.Flags().Changed("pg-port") {
			cfg.Postgres.Port = flagPGPort
		}
		if cmd.Flags().Changed("pg-user") {
			cfg.Postgres.User = flagPGUser
		}
		if cmd.Flags().Changed("pg-password") {
			cfg.Postgres.Password = flagPGPassword
		}
		if cmd.Flags().Changed("pg-dbname") {
			cfg.Postgres.DBName = flagPGDBName
		}
		if cmd.Flags().Changed("pg-sslmode") {
			cfg.Postgres.SSLMode = flagPGSSLMode
		}

		if cmd.Flags().Changed("storage-endpoint") {
			cfg.Storage.Endpoint = flagStEndpoint
		}
		if cmd.Flags().Changed("storage-region") {
			cfg.Storage.Region = flagStRegion
		}
		if cmd.Flags().Changed("storage-bucket") {
			cfg.Storage.Bucket = flagStBucket
		}
		if cmd.Flags().Changed("storage-access-key") {
			cfg.Storage.AccessKey = flagStAccessKey
		}
		if cmd.Flags().Changed("storage-use-ssl") {
			cfg.Storage.UseSSL = flagStUseSSL
		}

		if cmd.Flags().Changed("restore-chunk-size") {
			cfg.Restore.ChunkSize = flagChunkSize
		}
		if cmd.Flags().Changed("restore-safety-backup") {
			v := flagSafetyBackup
			cfg.Restore.SafetyBackup = &v
		}

		b, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		if flagDryRun {
			os.Stdout.Write(b)
			if len(b) == 0 || b[len(b)-1] != '\n' {
				fmt.Fprintln(os.Stdout)
			}
			fmt.Fprintf(os.Stderr, "dry-run: not writing %s\n", path)
			return nil
		}
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "wrote config to %s\n", path)
		return nil
	},
}

func init() {
	ConfigCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&flagOverwrite, "overwrite", false, "Overwrite existing config.yaml if present")
	initCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Print merged config to stdout without writing")

	initCmd.Flags().IntVar(&flagServerPort, "server-port", cfgpkg.DefaultServerPort, "Server port")

	initCmd.Flags().StringVar(&flagPGHost, "pg-host", "127.0.0.1", "Postgres host")
	initCmd.Flags().IntVar(&flagPGPort, "pg-port", cfgpkg.DefaultPostgresPort, "Postgres port")
	initCmd.Flags().StringVar(&flagPGUser, "pg-user", "kanri", "Postgres user")
	initCmd.Flags().StringVar(&flagPGPassword, "pg-password", "", "Postgres password (prefer the vault)")
	initCmd.Flags().StringVar(&flagPGDBName, "pg-dbname", "kanri", "Postgres database name")
	initCmd.Flags().StringVar(&flagPGSSLMode, "pg-sslmode", "disable", "Postgres SSL mode")

	initCmd.Flags().StringVar(&flagStEndpoint, "storage-endpoint", "127.0.0.1:9000", "Object store endpoint")
	initCmd.Flags().StringVar(&flagStRegion, "storage-region", "ap-northeast-1", "Object store region")
	initCmd.Flags().StringVar(&flagStBucket, "storage-bucket", "kanri-backups", "Snapshot bucket")
	initCmd.Flags().StringVar(&flagStAccessKey, "storage-access-key", "", "Object store access key")
	initCmd.Flags().BoolVar(&flagStUseSSL, "storage-use-ssl", false, "Use TLS for the object store")

	initCmd.Flags().IntVar(&flagChunkSize, "restore-chunk-size", cfgpkg.DefaultChunkSize, "Rows per insert chunk")
	initCmd.Flags().BoolVar(&flagSafetyBackup, "restore-safety-backup", true, "Take a pre-restore safety backup")
}
