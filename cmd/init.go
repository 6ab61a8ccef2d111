package cmd

import (
	"fmt"
	"os"
	"time"

	"oracle-node/config"
	"oracle-node/crypto"

	"github.com/spf13/cobra"
	tmconfig "github.com/tendermint/tendermint/config"
	"github.com/tendermint/tendermint/p2p"
	"github.com/tendermint/tendermint/privval"
)

var (
	initChainID    string
	initAllocation int64
)

func init() {
	InitCmd.Flags().StringVar(&initChainID, "chain-id", config.DefaultOracleConfig().ChainID, "Chain id of the new network")
	InitCmd.Flags().Int64Var(&initAllocation, "allocation", 1000000000, "Genesis balance of the operator and admin accounts, in the first registry asset")
}

var InitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize config files, keys and genesis",
	RunE:  initialize,
}

func initialize(cmd *cobra.Command, args []string) error {
	configuration := tmconfig.DefaultConfig()
	configuration.SetRoot(rootDir)
	tmconfig.EnsureRoot(configuration.RootDir)

	configuration.LogLevel = "consensus:error,*:info"
	configuration.RPC.CORSAllowedOrigins = []string{"*"}
	configuration.P2P.AllowDuplicateIP = true
	configuration.Consensus.CreateEmptyBlocksInterval = time.Duration(10) * time.Second
	if err := configuration.ValidateBasic(); err != nil {
		return err
	}
	tmconfig.WriteConfigFile(configuration.RootDir+"/config/config.toml", configuration)

	privVal := privval.LoadOrGenFilePV(configuration.PrivValidatorKeyFile(), configuration.PrivValidatorStateFile())
	if _, err := p2p.LoadOrGenNodeKey(configuration.NodeKeyFile()); err != nil {
		return err
	}

	if err := os.MkdirAll(keysDir(), 0700); err != nil {
		return err
	}
	operator, err := newKey("operator")
	if err != nil {
		return err
	}
	admin, err := newKey("admin")
	if err != nil {
		return err
	}

	oracleConfig := config.DefaultOracleConfig()
	oracleConfig.ChainID = initChainID
	oracleConfig.Arbiter.Operator = operator
	oracleConfig.Governance.Admin = admin
	if initAllocation > 0 && len(oracleConfig.Registry.Assets) > 0 {
		asset := oracleConfig.Registry.Assets[0].Name
		for _, address := range []string{operator, admin} {
			oracleConfig.Genesis.Allocations = append(oracleConfig.Genesis.Allocations, config.Allocation{
				Address: address,
				Asset:   asset,
				Amount:  initAllocation,
			})
		}
	}
	if err := oracleConfig.Validate(); err != nil {
		return err
	}
	if err := config.Save(oracleConfigFile(), oracleConfig); err != nil {
		return err
	}

	genDoc := genesisDoc(oracleConfig.ChainID, privVal)
	if err := genDoc.SaveAs(configuration.GenesisFile()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "initialized %s in %s\noperator %s\nadmin    %s\n", oracleConfig.ChainID, rootDir, operator, admin)
	return nil
}

// newKey generates a secp256k1 key saved under the keys directory and returns
// its address.
func newKey(name string) (string, error) {
	file := keyFile(name)
	if _, err := os.Stat(file); err == nil {
		return "", fmt.Errorf("key %s already exists", name)
	}
	privKey, pubKey, err := crypto.GenerateKey()
	if err != nil {
		return "", err
	}
	if err := crypto.SaveKey(file, privKey); err != nil {
		return "", err
	}
	return crypto.Address(pubKey), nil
}
