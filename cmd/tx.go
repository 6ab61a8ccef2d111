package cmd

import (
	"fmt"
	"time"

	"oracle-node/crypto"
	"oracle-node/messages"
	"oracle-node/modules"

	"github.com/spf13/cobra"
	rpchttp "github.com/tendermint/tendermint/rpc/client/http"
	"github.com/tendermint/tendermint/types"
)

// txFlags holds every field a transaction may carry; each type reads the
// ones it needs.
var txFlags struct {
	key       string
	nonce     uint64
	broadcast string

	topic     string
	metadata  string
	timestamp int64
	liveness  time.Duration
	expiresIn time.Duration
	refund    string

	query    string
	claim    string
	asset    string
	amount   int64
	address  string
	resolver string
}

func init() {
	flags := TxCmd.PersistentFlags()
	flags.StringVar(&txFlags.key, "key", "", "Name of the signing key")
	flags.Uint64Var(&txFlags.nonce, "nonce", 0, "Account nonce")
	flags.StringVar(&txFlags.broadcast, "broadcast", "", "Tendermint RPC address to broadcast to, e.g. tcp://127.0.0.1:26657; prints the transaction when empty")
	flags.StringVar(&txFlags.query, "query", "", "Query id")
	flags.StringVar(&txFlags.claim, "claim", "", "Claim")
	flags.StringVar(&txFlags.asset, "asset", "", "Asset")
	flags.Int64Var(&txFlags.amount, "amount", 0, "Amount")
	flags.StringVar(&txFlags.address, "address", "", "Receiving or refund address")
	flags.StringVar(&txFlags.resolver, "resolver", "", "Resolver identity, the node's arbiter when empty")
	_ = TxCmd.MarkPersistentFlagRequired("key")

	create := txCreateCmd.Flags()
	create.StringVar(&txFlags.topic, "topic", "", "Query topic")
	create.StringVar(&txFlags.metadata, "metadata", "", "Query metadata")
	create.Int64Var(&txFlags.timestamp, "timestamp", 0, "Historical instant the query asks about, in ms")
	create.DurationVar(&txFlags.liveness, "liveness", time.Hour, "Challenge window after submission")
	create.DurationVar(&txFlags.expiresIn, "expires-in", 24*time.Hour, "Time until the query stops accepting claims")
	create.StringVar(&txFlags.refund, "refund", "", "Refund address for the reward on dispute")

	for _, command := range []*cobra.Command{
		txCreateCmd,
		txCommand("reward", "Add a reward to a query", messages.TxAddReward),
		txCommand("refund", "Set the refund address of a query", messages.TxSetRefundAddress),
		txCommand("submit", "Submit a bonded claim", messages.TxSubmitClaim),
		txCommand("challenge", "Challenge a claim with an equal bond", messages.TxChallengeClaim),
		txCommand("resolve", "Resolve a dispute as the arbiter operator", messages.TxResolve),
		txCommand("settle", "Settle a query", messages.TxSettleQuery),
		txCommand("transfer", "Transfer funds", messages.TxTransfer),
		txCommand("enable-resolver", "Enable a resolver as governance admin", messages.TxEnableResolver),
		txCommand("disable-resolver", "Disable a resolver as governance admin", messages.TxDisableResolver),
		txCommand("claim-fees", "Claim the arbiter's collected fees", messages.TxClaimFees),
	} {
		TxCmd.AddCommand(command)
	}
}

var TxCmd = &cobra.Command{
	Use:   "tx",
	Short: "Sign transactions and print or broadcast them",
}

var txCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a query",
	RunE: func(cmd *cobra.Command, args []string) error {
		now := time.Now()
		create := &messages.CreateQuery{
			Topic:         txFlags.topic,
			Metadata:      txFlags.metadata,
			Bond:          modules.Coin{Asset: txFlags.asset, Amount: txFlags.amount},
			Liveness:      txFlags.liveness.Milliseconds(),
			Expiration:    now.Add(txFlags.expiresIn).UnixNano() / int64(time.Millisecond),
			RefundAddress: txFlags.refund,
			Resolver:      modules.AuthType(txFlags.resolver),
		}
		if cmd.Flags().Changed("timestamp") {
			timestamp := txFlags.timestamp
			create.Timestamp = &timestamp
		}
		return sendTx(cmd, messages.Transaction{TxType: messages.TxCreateQuery, Create: create})
	},
}

func txCommand(use, short string, txType messages.TransactionType) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return sendTx(cmd, buildTx(txType))
		},
	}
}

func buildTx(txType messages.TransactionType) messages.Transaction {
	transaction := messages.Transaction{
		TxType:   txType,
		QueryID:  txFlags.query,
		Address:  txFlags.address,
		Resolver: modules.AuthType(txFlags.resolver),
		Asset:    txFlags.asset,
	}
	if txFlags.claim != "" {
		transaction.Claim = []byte(txFlags.claim)
	}
	if txFlags.amount != 0 {
		transaction.Coin = &modules.Coin{Asset: txFlags.asset, Amount: txFlags.amount}
	}
	return transaction
}

func sendTx(cmd *cobra.Command, transaction messages.Transaction) error {
	privKey, _, err := crypto.LoadKey(keyFile(txFlags.key))
	if err != nil {
		return fmt.Errorf("failed to load key %s: %w", txFlags.key, err)
	}
	transaction.Nonce = txFlags.nonce
	if err := transaction.Sign(privKey); err != nil {
		return err
	}
	encoded, err := transaction.Encode()
	if err != nil {
		return err
	}
	if txFlags.broadcast == "" {
		fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
		return nil
	}

	client, err := rpchttp.New(txFlags.broadcast, "/websocket")
	if err != nil {
		return err
	}
	result, err := client.BroadcastTxCommit(types.Tx(encoded))
	if err != nil {
		return err
	}
	if result.CheckTx.Code != 0 {
		return fmt.Errorf("rejected by check: code %d %s: %s", result.CheckTx.Code, result.CheckTx.Codespace, result.CheckTx.Log)
	}
	if result.DeliverTx.Code != 0 {
		return fmt.Errorf("rejected at height %d: code %d %s: %s", result.Height, result.DeliverTx.Code, result.DeliverTx.Codespace, result.DeliverTx.Log)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "committed %X at height %d\n", result.Hash, result.Height)
	return nil
}
