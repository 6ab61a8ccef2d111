package messages

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"

	"oracle-node/crypto"
	"oracle-node/modules"
)

var (
	ErrMalformed    = errors.New("malformed message")
	ErrBadSignature = errors.New("invalid signature")
)

type TransactionType string

const (
	TxCreateQuery      TransactionType = "TxCreateQuery"
	TxAddReward        TransactionType = "TxAddReward"
	TxSetRefundAddress TransactionType = "TxSetRefundAddress"
	TxSubmitClaim      TransactionType = "TxSubmitClaim"
	TxChallengeClaim   TransactionType = "TxChallengeClaim"
	TxResolve          TransactionType = "TxResolve"
	TxSettleQuery      TransactionType = "TxSettleQuery"
	TxTransfer         TransactionType = "TxTransfer"
	TxEnableResolver   TransactionType = "TxEnableResolver"
	TxDisableResolver  TransactionType = "TxDisableResolver"
	TxClaimFees        TransactionType = "TxClaimFees"
)

// CreateQuery holds the parameters of a new query. An empty Resolver selects
// the node's arbiter.
type CreateQuery struct {
	Topic         string
	Metadata      string
	Timestamp     *int64 `json:",omitempty"`
	Bond          modules.Coin
	Liveness      int64
	Expiration    int64
	RefundAddress string           `json:",omitempty"`
	Resolver      modules.AuthType `json:",omitempty"`
}

// Transaction is signed by Sender, a compressed secp256k1 public key, over
// its JSON encoding with an empty Signature.
type Transaction struct {
	TxType    TransactionType
	Sender    []byte
	Nonce     uint64
	Signature []byte `json:",omitempty"`

	Create   *CreateQuery     `json:",omitempty"`
	QueryID  string           `json:",omitempty"`
	Claim    []byte           `json:",omitempty"`
	Coin     *modules.Coin    `json:",omitempty"`
	Address  string           `json:",omitempty"`
	Resolver modules.AuthType `json:",omitempty"`
	Asset    string           `json:",omitempty"`
}

func (transaction *Transaction) SignBytes() ([]byte, error) {
	unsigned := *transaction
	unsigned.Signature = nil
	return json.Marshal(unsigned)
}

func (transaction *Transaction) Sign(privKey []byte) error {
	transaction.Sender = crypto.PubKey(privKey)
	message, err := transaction.SignBytes()
	if err != nil {
		return err
	}
	signature, err := crypto.Sign(privKey, message)
	if err != nil {
		return err
	}
	transaction.Signature = signature
	return nil
}

func (transaction *Transaction) Verify() error {
	message, err := transaction.SignBytes()
	if err != nil {
		return err
	}
	if !crypto.Verify(transaction.Sender, message, transaction.Signature) {
		return ErrBadSignature
	}
	return nil
}

// SenderAddress is the account address of the signer.
func (transaction *Transaction) SenderAddress() string {
	return crypto.Address(transaction.Sender)
}

// Encode returns the base64 JSON form broadcast to the node.
func (transaction *Transaction) Encode() ([]byte, error) {
	return encode(transaction)
}

func DecodeTransaction(data []byte) (*Transaction, error) {
	transaction := &Transaction{}
	if err := decode(data, transaction); err != nil {
		return nil, err
	}
	if transaction.TxType == "" {
		return nil, ErrMalformed
	}
	return transaction, nil
}

type QueryType string

const (
	QueryState    QueryType = "QueryState"
	QueryQuery    QueryType = "QueryQuery"
	QueryQueries  QueryType = "QueryQueries"
	QueryAccount  QueryType = "QueryAccount"
	QueryResolver QueryType = "QueryResolver"
)

type Query struct {
	QrType   QueryType
	QueryID  string           `json:",omitempty"`
	Address  string           `json:",omitempty"`
	Resolver modules.AuthType `json:",omitempty"`
}

func (query *Query) Encode() ([]byte, error) {
	return encode(query)
}

func DecodeQuery(data []byte) (*Query, error) {
	query := &Query{}
	if err := decode(data, query); err != nil {
		return nil, err
	}
	return query, nil
}

// QueryRecord is a query together with its status at the time of reading.
type QueryRecord struct {
	Query  *modules.Query
	Status string
}

// Account is the answer to QueryAccount.
type Account struct {
	Address  string
	Balances map[string]int64
	Nonce    uint64
}

func encode(value interface{}) ([]byte, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	encoded := make([]byte, base64.StdEncoding.EncodedLen(len(raw)))
	base64.StdEncoding.Encode(encoded, raw)
	return encoded, nil
}

func decode(data []byte, value interface{}) error {
	raw := make([]byte, base64.StdEncoding.DecodedLen(len(data)))
	n, err := base64.StdEncoding.Decode(raw, bytes.TrimSpace(data))
	if err != nil {
		return ErrMalformed
	}
	if err := json.Unmarshal(raw[:n], value); err != nil {
		return ErrMalformed
	}
	return nil
}
