package cmd

import (
	"path/filepath"

	"oracle-node/config"

	"github.com/spf13/cobra"
)

var rootDir string

func init() {
	RootCmd.AddCommand(InitCmd)
	RootCmd.AddCommand(RunCmd)
	RootCmd.AddCommand(KeysCmd)
	RootCmd.AddCommand(TxCmd)
	RootCmd.PersistentFlags().StringVar(&rootDir, "home", "./tmhome", "Home directory of the oracle node")
}

var RootCmd = cobra.Command{
	Use:          "oracle-node",
	Short:        "Optimistic oracle node",
	SilenceUsage: true,
}

func oracleConfigFile() string {
	return filepath.Join(rootDir, "config", config.FileName)
}

func keysDir() string {
	return filepath.Join(rootDir, "keys")
}

func keyFile(name string) string {
	return filepath.Join(keysDir(), name+".key")
}
