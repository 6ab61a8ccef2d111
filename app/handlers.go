package app

import (
	"encoding/hex"
	"strconv"
	"time"

	"oracle-node/messages"
	"oracle-node/modules"

	tendermint "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/libs/kv"
)

const (
	EventCreate    = "oracle_create"
	EventReward    = "oracle_reward"
	EventSubmit    = "oracle_submit"
	EventChallenge = "oracle_challenge"
	EventResolve   = "oracle_resolve"
	EventSettle    = "oracle_settle"
	EventTransfer  = "oracle_transfer"
	EventResolver  = "oracle_resolver"
	EventFees      = "oracle_fees"

	AttributeQueryID = "query_id"
)

func toMillis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}

func event(kind string, attributes ...modules.Attribute) tendermint.Event {
	pairs := make([]kv.Pair, 0, len(attributes))
	for _, attribute := range attributes {
		pairs = append(pairs, kv.Pair{Key: []byte(attribute.Key), Value: []byte(attribute.Value)})
	}
	return tendermint.Event{Type: kind, Attributes: pairs}
}

func attribute(key, value string) modules.Attribute {
	return modules.Attribute{Key: key, Value: value}
}

func coinAttribute(key string, coin modules.Coin) modules.Attribute {
	return attribute(key, strconv.FormatInt(coin.Amount, 10)+coin.Asset)
}

// notified consumes a notification addressed to the node as query creator
// and turns it into an event.
func notified(kind string, notification *modules.Notification) (tendermint.Event, error) {
	attributes, err := notification.Consume(creator{})
	if err != nil {
		return tendermint.Event{}, err
	}
	attributes = append([]modules.Attribute{attribute(AttributeQueryID, notification.QueryID)}, attributes...)
	return event(kind, attributes...), nil
}

// resolverToken returns the token the node holds for a resolver identity.
func resolverToken(identity modules.AuthType) (interface{}, bool) {
	if identity == arbiterIdentity {
		return arbiter{}, true
	}
	return nil, false
}

func (chain *OracleChain) dispatch(tx *modules.Tx, transaction *messages.Transaction) ([]tendermint.Event, error) {
	switch transaction.TxType {
	case messages.TxCreateQuery:
		return chain.createQuery(tx, transaction)
	case messages.TxAddReward:
		return chain.addReward(tx, transaction)
	case messages.TxSetRefundAddress:
		return chain.setRefundAddress(tx, transaction)
	case messages.TxSubmitClaim:
		return chain.submitClaim(tx, transaction)
	case messages.TxChallengeClaim:
		return chain.challengeClaim(tx, transaction)
	case messages.TxResolve:
		return chain.resolve(tx, transaction)
	case messages.TxSettleQuery:
		return chain.settleQuery(tx, transaction)
	case messages.TxTransfer:
		return chain.transfer(tx, transaction)
	case messages.TxEnableResolver, messages.TxDisableResolver:
		return chain.setResolverEnabled(tx, transaction)
	case messages.TxClaimFees:
		return chain.claimFees(tx, transaction)
	}
	return nil, ErrUnknownTx
}

func (chain *OracleChain) createQuery(tx *modules.Tx, transaction *messages.Transaction) ([]tendermint.Event, error) {
	create := transaction.Create
	if create == nil {
		return nil, ErrMissingField
	}
	resolver := create.Resolver
	if resolver == "" {
		resolver = arbiterIdentity
	}
	if _, ok := resolverToken(resolver); !ok {
		return nil, ErrUnknownResolver
	}
	query, err := tx.CreateQuery(modules.CreateQueryRequest{
		Topic:            create.Topic,
		Metadata:         create.Metadata,
		Timestamp:        create.Timestamp,
		Bond:             create.Bond,
		Liveness:         create.Liveness,
		Expiration:       create.Expiration,
		RefundAddress:    create.RefundAddress,
		ResolverIdentity: resolver,
		CreatorAuth:      creator{},
	})
	if err != nil {
		return nil, err
	}
	chain.logger.Info("Created query", "query", query.ID, "topic", query.Topic, "creator", query.Creator)
	return []tendermint.Event{event(EventCreate,
		attribute(AttributeQueryID, query.ID),
		attribute("creator", query.Creator),
		attribute("topic", query.Topic),
		coinAttribute("bond", create.Bond),
		attribute("expiration", strconv.FormatInt(query.Expiration, 10)),
	)}, nil
}

// ownQuery checks that the sender created the query. Every query made through
// the node shares the node's creator token, so the address decides.
func ownQuery(tx *modules.Tx, id string) error {
	query, err := tx.Query(id)
	if err != nil {
		return err
	}
	if query.Creator != tx.Sender() {
		return modules.ErrNotCreator
	}
	return nil
}

func (chain *OracleChain) addReward(tx *modules.Tx, transaction *messages.Transaction) ([]tendermint.Event, error) {
	if transaction.Coin == nil {
		return nil, ErrMissingField
	}
	if err := ownQuery(tx, transaction.QueryID); err != nil {
		return nil, err
	}
	if err := tx.AddReward(creator{}, transaction.QueryID, *transaction.Coin); err != nil {
		return nil, err
	}
	return []tendermint.Event{event(EventReward,
		attribute(AttributeQueryID, transaction.QueryID),
		coinAttribute("reward", *transaction.Coin),
	)}, nil
}

func (chain *OracleChain) setRefundAddress(tx *modules.Tx, transaction *messages.Transaction) ([]tendermint.Event, error) {
	if err := ownQuery(tx, transaction.QueryID); err != nil {
		return nil, err
	}
	return nil, tx.SetRefundAddress(creator{}, transaction.QueryID, transaction.Address)
}

func (chain *OracleChain) submitClaim(tx *modules.Tx, transaction *messages.Transaction) ([]tendermint.Event, error) {
	if transaction.Coin == nil {
		return nil, ErrMissingField
	}
	notification, err := tx.SubmitClaimNotify(transaction.QueryID, transaction.Claim, *transaction.Coin)
	if err != nil {
		return nil, err
	}
	submitted, err := notified(EventSubmit, notification)
	if err != nil {
		return nil, err
	}
	chain.logger.Info("Submitted claim", "query", transaction.QueryID, "submitter", tx.Sender())
	return []tendermint.Event{submitted}, nil
}

// challengeClaim disputes a claim and hands the challenge to the resolver the
// query names, in the same transaction.
func (chain *OracleChain) challengeClaim(tx *modules.Tx, transaction *messages.Transaction) ([]tendermint.Event, error) {
	if transaction.Coin == nil {
		return nil, ErrMissingField
	}
	challenge, notification, err := tx.ChallengeClaimNotify(transaction.QueryID, *transaction.Coin)
	if err != nil {
		return nil, err
	}
	token, ok := resolverToken(challenge.ResolverIdentity())
	if !ok {
		return nil, ErrUnknownResolver
	}
	if err := tx.AcceptChallenge(token, challenge); err != nil {
		return nil, err
	}
	challenged, err := notified(EventChallenge, notification)
	if err != nil {
		return nil, err
	}
	chain.logger.Info("Challenged claim", "query", transaction.QueryID, "challenger", tx.Sender(), "fee", challenge.Fee().Amount)
	return []tendermint.Event{challenged}, nil
}

// resolve lets the arbiter operator answer a dispute and settles the query
// with that answer.
func (chain *OracleChain) resolve(tx *modules.Tx, transaction *messages.Transaction) ([]tendermint.Event, error) {
	if tx.Sender() != chain.config.Arbiter.Operator {
		return nil, ErrUnauthorized
	}
	resolution, err := tx.MakeResolution(arbiter{}, transaction.QueryID, transaction.Claim)
	if err != nil {
		return nil, err
	}
	resolved := event(EventResolve,
		attribute(AttributeQueryID, resolution.QueryID()),
		attribute("claim", hex.EncodeToString(resolution.Claim())),
		attribute("resolved_at", strconv.FormatInt(resolution.ResolvedAt(), 10)),
	)
	events, err := chain.settle(tx, transaction.QueryID, resolution)
	if err != nil {
		return nil, err
	}
	return append([]tendermint.Event{resolved}, events...), nil
}

func (chain *OracleChain) settleQuery(tx *modules.Tx, transaction *messages.Transaction) ([]tendermint.Event, error) {
	return chain.settle(tx, transaction.QueryID, nil)
}

func (chain *OracleChain) settle(tx *modules.Tx, id string, resolution *modules.Resolution) ([]tendermint.Event, error) {
	settlement, notification, err := tx.SettleQueryNotify(id, resolution)
	if err != nil {
		return nil, err
	}
	settled, err := notified(EventSettle, notification)
	if err != nil {
		return nil, err
	}
	chain.logger.Info("Settled query", "query", id, "winner", settlement.Winner, "bond", settlement.Bond.Amount)
	return []tendermint.Event{settled}, nil
}

func (chain *OracleChain) transfer(tx *modules.Tx, transaction *messages.Transaction) ([]tendermint.Event, error) {
	if transaction.Coin == nil {
		return nil, ErrMissingField
	}
	if err := tx.Transfer(transaction.Address, *transaction.Coin); err != nil {
		return nil, err
	}
	return []tendermint.Event{event(EventTransfer,
		attribute("sender", tx.Sender()),
		attribute("receiver", transaction.Address),
		coinAttribute("amount", *transaction.Coin),
	)}, nil
}

func (chain *OracleChain) setResolverEnabled(tx *modules.Tx, transaction *messages.Transaction) ([]tendermint.Event, error) {
	if chain.config.Governance.Admin == "" || tx.Sender() != chain.config.Governance.Admin {
		return nil, ErrUnauthorized
	}
	identity := transaction.Resolver
	if identity == "" {
		identity = arbiterIdentity
	}
	enabled := transaction.TxType == messages.TxEnableResolver
	var err error
	if enabled {
		err = tx.EnableResolver(governance{}, identity)
	} else {
		err = tx.DisableResolver(governance{}, identity)
	}
	if err != nil {
		return nil, err
	}
	chain.logger.Info("Changed resolver", "resolver", identity, "enabled", enabled)
	return []tendermint.Event{event(EventResolver,
		attribute("resolver", string(identity)),
		attribute("enabled", strconv.FormatBool(enabled)),
	)}, nil
}

func (chain *OracleChain) claimFees(tx *modules.Tx, transaction *messages.Transaction) ([]tendermint.Event, error) {
	if tx.Sender() != chain.config.Arbiter.Operator {
		return nil, ErrUnauthorized
	}
	fees, err := tx.ClaimFees(arbiter{}, transaction.Asset)
	if err != nil {
		return nil, err
	}
	return []tendermint.Event{event(EventFees,
		attribute("operator", tx.Sender()),
		coinAttribute("fees", fees),
	)}, nil
}
