package messages

import (
	"testing"

	"oracle-node/crypto"
	"oracle-node/modules"

	"github.com/btcsuite/btcd/btcec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedTransaction(t *testing.T) {
	privKey, pubKey, err := crypto.GenerateKey()
	require.NoError(t, err)

	transaction := &Transaction{
		TxType:  TxSubmitClaim,
		Nonce:   3,
		QueryID: "bafk",
		Claim:   []byte("100"),
		Coin:    &modules.Coin{Asset: "ORCL", Amount: 1000},
	}
	require.NoError(t, transaction.Sign(privKey))
	assert.Equal(t, pubKey, transaction.Sender)
	assert.Equal(t, crypto.Address(pubKey), transaction.SenderAddress())

	encoded, err := transaction.Encode()
	require.NoError(t, err)
	decoded, err := DecodeTransaction(encoded)
	require.NoError(t, err)
	require.NoError(t, decoded.Verify())
	assert.Equal(t, transaction, decoded)

	decoded.Coin.Amount = 1
	assert.Equal(t, ErrBadSignature, decoded.Verify())
}

func TestUncompressedSender(t *testing.T) {
	privKey, pubKey, err := crypto.GenerateKey()
	require.NoError(t, err)
	_, key := btcec.PrivKeyFromBytes(btcec.S256(), privKey)

	transaction := &Transaction{TxType: TxTransfer, Sender: key.SerializeUncompressed(), Address: "02aa"}
	message, err := transaction.SignBytes()
	require.NoError(t, err)
	transaction.Signature, err = crypto.Sign(privKey, message)
	require.NoError(t, err)

	require.NoError(t, transaction.Verify())
	assert.Equal(t, crypto.Address(pubKey), transaction.SenderAddress())
}

func TestDecodeMalformed(t *testing.T) {
	_, err := DecodeTransaction([]byte("not base64!"))
	assert.Equal(t, ErrMalformed, err)

	encoded, err := encode(map[string]string{"Nonce": "x"})
	require.NoError(t, err)
	_, err = DecodeTransaction(encoded)
	assert.Equal(t, ErrMalformed, err)

	encoded, err = encode(map[string]int{"Nonce": 1})
	require.NoError(t, err)
	_, err = DecodeTransaction(encoded)
	assert.Equal(t, ErrMalformed, err)
}

func TestQueryEncoding(t *testing.T) {
	query := &Query{QrType: QueryAccount, Address: "02aa"}
	encoded, err := query.Encode()
	require.NoError(t, err)
	decoded, err := DecodeQuery(encoded)
	require.NoError(t, err)
	assert.Equal(t, query, decoded)
}
