package configcmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	cfgpkg "github.com/miraijuku/kanri/internal/config"
)

var printCmd = &cobra.Command{
	Use:   "print",
	Short: "Print the merged configuration to stdout",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cfgpkg.Load()
		if err != nil {
			return err
		}
		// Never echo credentials, even when set in the file.
		if cfg.Postgres.Password != "" {
			cfg.Postgres.Password = "********"
		}
		if cfg.Storage.SecretKey != "" {
			cfg.Storage.SecretKey = "********"
		}
		b, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		os.Stdout.Write(b)
		if len(b) == 0 || b[len(b)-1] != '\n' {
			fmt.Fprintln(os.Stdout)
		}
		return nil
	},
}

func init() {
	ConfigCmd.AddCommand(printCmd)
}
