package vaultcmd

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

	vpkg "github.com/miraijuku/kanri/internal/vault"
)

var setCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Set or update a secret value in the vault",
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
		secret, err := promptSecret(fmt.Sprintf("Enter secret for %q: ", name))
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := dao.SetSecret(ctx, name, secret); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "secret %q stored\n", name)
		return nil
	},
}

func init() {
	VaultCmd.AddCommand(setCmd)
}

func promptSecret(prompt string) ([]byte, error) {
	// No-echo input on a terminal; plain read otherwise (piped input).
	if term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprint(os.Stderr, prompt)
		b, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, err
		}
		return []byte(strings.TrimRight(string(b), "\r\n")), nil
	}
	fmt.Fprintln(os.Stderr, "warning: reading secret from stdin; input will not be masked")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !strings.Contains(err.Error(), "EOF") {
		return nil, err
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}
