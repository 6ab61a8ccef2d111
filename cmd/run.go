package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"oracle-node/api"
	"oracle-node/app"
	"oracle-node/config"
	"oracle-node/store"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	tmconfig "github.com/tendermint/tendermint/config"
	"github.com/tendermint/tendermint/libs/cli/flags"
	"github.com/tendermint/tendermint/libs/log"
	"github.com/tendermint/tendermint/node"
	"github.com/tendermint/tendermint/p2p"
	"github.com/tendermint/tendermint/privval"
	"github.com/tendermint/tendermint/proxy"
)

var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run node",
	RunE:  run,
}

func run(cmd *cobra.Command, args []string) error {
	configuration := tmconfig.DefaultConfig()
	viper.SetConfigFile(rootDir + "/config/config.toml")
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read node config: %w", err)
	}
	if err := viper.Unmarshal(configuration); err != nil {
		return fmt.Errorf("failed to parse node config: %w", err)
	}
	configuration.SetRoot(rootDir)
	if err := configuration.ValidateBasic(); err != nil {
		return err
	}

	oracleConfig, err := config.Load(oracleConfigFile())
	if err != nil {
		return err
	}

	logger := log.NewTMLogger(log.NewSyncWriter(os.Stdout))
	logger, err = flags.ParseLogLevel(configuration.LogLevel, logger, tmconfig.DefaultLogLevel())
	if err != nil {
		return err
	}

	db, err := node.DefaultDBProvider(&node.DBContext{ID: "oracle", Config: configuration})
	if err != nil {
		return fmt.Errorf("failed to open oracle db: %w", err)
	}
	defer db.Close()
	oracleStore := store.New(db)

	oracleChain, err := app.NewOracleChain(oracleConfig, oracleStore, logger)
	if err != nil {
		return err
	}

	pv := privval.LoadFilePV(
		configuration.PrivValidatorKeyFile(),
		configuration.PrivValidatorStateFile(),
	)

	nodeKey, err := p2p.LoadNodeKey(configuration.NodeKeyFile())
	if err != nil {
		return err
	}

	oracleNode, err := node.NewNode(
		configuration,
		pv,
		nodeKey,
		proxy.NewLocalClientCreator(oracleChain),
		node.DefaultGenesisDocProviderFunc(configuration),
		node.DefaultDBProvider,
		node.DefaultMetricsProvider(configuration.Instrumentation),
		logger)
	if err != nil {
		return fmt.Errorf("failed to create node: %w", err)
	}

	if err := oracleNode.Start(); err != nil {
		return fmt.Errorf("failed to start node: %w", err)
	}
	defer func() {
		oracleNode.Stop()
		oracleNode.Wait()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if oracleConfig.API.Listen != "" {
		gin.SetMode(gin.ReleaseMode)
		explorer := api.NewServer(oracleStore, api.WallClock, logger)
		go func() {
			if err := explorer.Serve(ctx, oracleConfig.API.Listen); err != nil && err != http.ErrServerClosed {
				logger.Error("Explorer stopped", "err", err)
			}
		}()
	}

	sign := make(chan os.Signal, 1)
	signal.Notify(sign, syscall.SIGINT, syscall.SIGTERM)
	<-sign
	return nil
}
