package app

import (
	"encoding/json"
	"errors"
	"fmt"

	"oracle-node/config"
	"oracle-node/messages"
	"oracle-node/modules"
	"oracle-node/store"

	tendermint "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	Version    = "V1"
	AppVersion = 1

	// historySize is how many committed heights stay queryable.
	historySize = 100
)

// Witness types. Values of these types are only created in this package,
// which makes them the node's authorization tokens towards the oracle.
type (
	creator    struct{}
	arbiter    struct{}
	governance struct{}
)

var (
	arbiterIdentity    = modules.AuthTypeOf(arbiter{})
	governanceIdentity = modules.AuthTypeOf(governance{})
)

// ArbiterIdentity is the resolver identity of the node's built-in arbiter.
func ArbiterIdentity() modules.AuthType { return arbiterIdentity }

type OracleChain struct {
	Height    int64
	Confirmed map[int64]*modules.Oracle // committed states still queryable
	Committed *modules.Oracle           // written at commit
	New       *modules.Oracle           // written at deliverTx

	now      int64
	config   *config.OracleConfig
	registry modules.Registry
	store    *store.Store
	logger   log.Logger
}

var _ tendermint.Application = (*OracleChain)(nil)

// NewOracleChain builds the application, resuming from the last state kept
// in db when there is one. db may be nil to run without persistence.
func NewOracleChain(cfg *config.OracleConfig, db *store.Store, logger log.Logger) (*OracleChain, error) {
	registry := config.NewRegistry(cfg.Registry)
	chain := &OracleChain{
		Confirmed: make(map[int64]*modules.Oracle),
		New:       modules.NewOracle(registry, governanceIdentity),
		config:    cfg,
		registry:  registry,
		store:     db,
		logger:    logger.With("module", "oracle"),
	}
	if db == nil {
		return chain, nil
	}
	meta, state, err := db.Load()
	if errors.Is(err, store.ErrNotFound) {
		return chain, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load oracle state: %w", err)
	}
	state.SetRegistry(registry)
	chain.Height = meta.Height
	chain.Committed = state
	chain.Confirmed[meta.Height] = state
	chain.New = state.Copy()
	chain.logger.Info("Resumed oracle state", "height", meta.Height, "queries", len(state.Queries))
	return chain, nil
}

func (chain *OracleChain) stateAtHeight(height int64) (*modules.Oracle, error) {
	if height == 0 {
		height = chain.Height
	}
	state, ok := chain.Confirmed[height]
	if !ok {
		return nil, ErrNoState
	}
	return state, nil
}

func (chain *OracleChain) appHash() []byte {
	if chain.Committed == nil {
		return nil
	}
	return chain.Committed.Hash()
}

func (chain *OracleChain) Info(requestInfo tendermint.RequestInfo) tendermint.ResponseInfo {
	return tendermint.ResponseInfo{
		Data:             "optimistic oracle node",
		Version:          Version,
		AppVersion:       AppVersion,
		LastBlockHeight:  chain.Height,
		LastBlockAppHash: chain.appHash(),
	}
}

func (chain *OracleChain) SetOption(requestSetOption tendermint.RequestSetOption) tendermint.ResponseSetOption {
	return tendermint.ResponseSetOption{}
}

func (chain *OracleChain) Query(requestQuery tendermint.RequestQuery) tendermint.ResponseQuery {
	value, err := chain.query(requestQuery)
	code, codespace := resultCode(err)
	responseQuery := tendermint.ResponseQuery{
		Code:      code,
		Index:     -1,
		Key:       requestQuery.Data,
		Value:     value,
		Height:    chain.Height,
		Codespace: codespace,
	}
	if err != nil {
		responseQuery.Log = err.Error()
	}
	return responseQuery
}

func (chain *OracleChain) query(requestQuery tendermint.RequestQuery) ([]byte, error) {
	query, err := messages.DecodeQuery(requestQuery.Data)
	if err != nil {
		return nil, err
	}
	state, err := chain.stateAtHeight(requestQuery.Height)
	if err != nil {
		return nil, err
	}
	switch query.QrType {
	case messages.QueryState:
		return json.Marshal(state)
	case messages.QueryQuery:
		record, err := state.Query(query.QueryID)
		if err != nil {
			return nil, err
		}
		return json.Marshal(messages.QueryRecord{Query: record, Status: record.Status(chain.now).String()})
	case messages.QueryQueries:
		var records []messages.QueryRecord
		for _, record := range state.QueryList() {
			records = append(records, messages.QueryRecord{Query: record, Status: record.Status(chain.now).String()})
		}
		return json.Marshal(records)
	case messages.QueryAccount:
		return json.Marshal(messages.Account{
			Address:  query.Address,
			Balances: state.Bank.Account(query.Address),
			Nonce:    state.Bank.Nonce(query.Address),
		})
	case messages.QueryResolver:
		identity := query.Resolver
		if identity == "" {
			identity = arbiterIdentity
		}
		resolver, err := state.Resolver(identity)
		if err != nil {
			return nil, err
		}
		return json.Marshal(resolver)
	}
	return nil, ErrUnknownQuery
}

// CheckTx only admits well formed, correctly signed transactions whose nonce
// has not been used by a committed block.
func (chain *OracleChain) CheckTx(requestCheckTx tendermint.RequestCheckTx) tendermint.ResponseCheckTx {
	err := chain.checkTx(requestCheckTx.Tx)
	code, codespace := resultCode(err)
	responseCheckTx := tendermint.ResponseCheckTx{Code: code, Codespace: codespace}
	if err != nil {
		responseCheckTx.Log = err.Error()
	}
	return responseCheckTx
}

func (chain *OracleChain) checkTx(data []byte) error {
	transaction, err := messages.DecodeTransaction(data)
	if err != nil {
		return err
	}
	if err := transaction.Verify(); err != nil {
		return err
	}
	if chain.Committed != nil && transaction.Nonce < chain.Committed.Bank.Nonce(transaction.SenderAddress()) {
		return ErrBadNonce
	}
	return nil
}

// InitChain funds the genesis allocations and registers the arbiter.
func (chain *OracleChain) InitChain(requestInitChain tendermint.RequestInitChain) tendermint.ResponseInitChain {
	ctx := modules.Context{Now: toMillis(requestInitChain.Time)}
	err := chain.New.Execute(ctx, func(tx *modules.Tx) error {
		for _, allocation := range chain.config.Genesis.Allocations {
			if err := tx.Mint(allocation.Address, modules.Coin{Asset: allocation.Asset, Amount: allocation.Amount}); err != nil {
				return err
			}
		}
		if _, err := tx.CreateResolver(arbiter{}); err != nil {
			return err
		}
		if chain.config.Arbiter.Enabled {
			return tx.EnableResolver(governance{}, arbiterIdentity)
		}
		return nil
	})
	if err != nil {
		panic(fmt.Sprintf("oracle genesis failed: %v", err))
	}
	chain.logger.Info("Initialized oracle", "chain", requestInitChain.ChainId, "allocations", len(chain.config.Genesis.Allocations))
	return tendermint.ResponseInitChain{}
}

// BeginBlock takes the block time as the oracle clock for every transaction
// of the block.
func (chain *OracleChain) BeginBlock(requestBeginBlock tendermint.RequestBeginBlock) tendermint.ResponseBeginBlock {
	chain.now = toMillis(requestBeginBlock.Header.Time)
	return tendermint.ResponseBeginBlock{}
}

func (chain *OracleChain) DeliverTx(requestDeliverTx tendermint.RequestDeliverTx) tendermint.ResponseDeliverTx {
	events, err := chain.deliverTx(requestDeliverTx.Tx)
	code, codespace := resultCode(err)
	responseDeliverTx := tendermint.ResponseDeliverTx{
		Code:      code,
		Events:    events,
		Codespace: codespace,
	}
	if err != nil {
		responseDeliverTx.Log = err.Error()
		chain.logger.Debug("Rejected transaction", "code", code, "codespace", codespace, "err", err)
	}
	return responseDeliverTx
}

func (chain *OracleChain) deliverTx(data []byte) ([]tendermint.Event, error) {
	transaction, err := messages.DecodeTransaction(data)
	if err != nil {
		return nil, err
	}
	if err := transaction.Verify(); err != nil {
		return nil, err
	}
	sender := transaction.SenderAddress()
	if transaction.Nonce != chain.New.Bank.Nonce(sender) {
		return nil, ErrBadNonce
	}
	// the nonce is spent even when the oracle rejects the transaction
	chain.New.Bank.IncrementNonce(sender)

	var events []tendermint.Event
	ctx := modules.Context{Sender: sender, Now: chain.now}
	err = chain.New.Execute(ctx, func(tx *modules.Tx) error {
		var err error
		events, err = chain.dispatch(tx, transaction)
		return err
	})
	if err != nil {
		return nil, err
	}
	chain.logger.Info("Executed transaction", "type", transaction.TxType, "sender", sender)
	return events, nil
}

func (chain *OracleChain) EndBlock(requestEndBlock tendermint.RequestEndBlock) tendermint.ResponseEndBlock {
	return tendermint.ResponseEndBlock{}
}

func (chain *OracleChain) Commit() tendermint.ResponseCommit {
	previous := chain.Committed
	chain.Committed = chain.New
	chain.New = chain.Committed.Copy()
	chain.Height++
	chain.Confirmed[chain.Height] = chain.Committed
	delete(chain.Confirmed, chain.Height-historySize)

	appHash := chain.Committed.Hash()
	if chain.store != nil {
		meta := store.Meta{Height: chain.Height, AppHash: appHash}
		if err := chain.store.Save(meta, previous, chain.Committed); err != nil {
			chain.logger.Error("Failed to persist oracle state", "height", chain.Height, "err", err)
		}
	}
	return tendermint.ResponseCommit{Data: appHash}
}
