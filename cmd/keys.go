package cmd

import (
	"fmt"
	"os"

	"oracle-node/crypto"

	"github.com/spf13/cobra"
)

func init() {
	KeysCmd.AddCommand(keysNewCmd)
	KeysCmd.AddCommand(keysShowCmd)
}

var KeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage account keys",
}

var keysNewCmd = &cobra.Command{
	Use:   "new <name>",
	Short: "Generate a secp256k1 key and print its address",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(keysDir(), 0700); err != nil {
			return err
		}
		address, err := newKey(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), address)
		return nil
	},
}

var keysShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print the address of a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, pubKey, err := crypto.LoadKey(keyFile(args[0]))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), crypto.Address(pubKey))
		return nil
	},
}
