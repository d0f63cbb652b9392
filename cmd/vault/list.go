package vaultcmd

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	vpkg "github.com/miraijuku/kanri/internal/vault"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List secrets stored in the vault (no values)",
	RunE: func(cmd *cobra.Command, args []string) error {
		dao, err := vpkg.NewVaultDAO("")
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		items, err := dao.ListSecrets(ctx)
		if err != nil {
			return err
		}
		sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })
		for _, it := range items {
			status := "unset"
			if it.IsSet {
				status = "set"
			}
			fmt.Fprintf(os.Stdout, "%s\t[%s]\t%s\n", strings.TrimSpace(it.Name), status, it.Backend)
		}
		return nil
	},
}

func init() {
	VaultCmd.AddCommand(listCmd)
}
