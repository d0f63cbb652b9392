package vaultcmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	vpkg "github.com/miraijuku/kanri/internal/vault"
)

var unsetCmd = &cobra.Command{
	Use:   "unset <name>",
	Short: "Delete a secret from the vault",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.TrimSpace(args[0])
		if name == "" {
			return errors.New("name must not be empty")
		}
		dao, err := vpkg.NewVaultDAO("")
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := dao.UnsetSecret(ctx, name); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "secret %q removed\n", name)
		return nil
	},
}

func init() {
	VaultCmd.AddCommand(unsetCmd)
}
