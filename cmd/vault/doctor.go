package vaultcmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	vpkg "github.com/miraijuku/kanri/internal/vault"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostics for the vault backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		dao, err := vpkg.NewVaultDAO("")
		if err != nil {
			fmt.Fprintf(os.Stderr, "status: ERROR (%v)\n", err)
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		items, err := dao.ListSecrets(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "status: ERROR (%v)\n", err)
			return err
		}
		fmt.Fprintf(os.Stderr, "keychain access: ok\n")
		fmt.Fprintf(os.Stderr, "secrets present: %d\n", len(items))
		for _, name := range []string{vpkg.SecretPostgresPassword, vpkg.SecretStorageSecretKey} {
			ok, err := dao.HasSecret(ctx, name)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: ERROR (%v)\n", name, err)
				continue
			}
			status := "unset"
			if ok {
				status = "set"
			}
			fmt.Fprintf(os.Stderr, "%s: %s\n", name, status)
		}
		fmt.Fprintf(os.Stderr, "status: OK\n")
		return nil
	},
}

func init() {
	VaultCmd.AddCommand(doctorCmd)
}
