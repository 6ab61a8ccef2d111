package crypto

import (
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/btcec"
	lorem "github.com/drhodes/golorem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignature(t *testing.T) {
	privKey, pubKey, err := GenerateKey()
	require.NoError(t, err)
	require.NoError(t, CheckPubKey(pubKey))

	message := []byte(lorem.Sentence(5, 10))
	signature, err := Sign(privKey, message)
	require.NoError(t, err)
	assert.True(t, Verify(pubKey, message, signature))
	assert.False(t, Verify(pubKey, append(message, '!'), signature))

	_, otherPubKey, err := GenerateKey()
	require.NoError(t, err)
	assert.False(t, Verify(otherPubKey, message, signature))
	assert.False(t, Verify([]byte("not a key"), message, signature))
}

func TestPubKey(t *testing.T) {
	privKey, pubKey, err := GenerateKey()
	require.NoError(t, err)
	assert.Equal(t, pubKey, PubKey(privKey))
	assert.Equal(t, 66, len(Address(pubKey)))
}

func TestAddressOfUncompressedKey(t *testing.T) {
	privKey, pubKey, err := GenerateKey()
	require.NoError(t, err)
	_, key := btcec.PrivKeyFromBytes(btcec.S256(), privKey)
	uncompressed := key.SerializeUncompressed()
	require.NoError(t, CheckPubKey(uncompressed))

	assert.Equal(t, Address(pubKey), Address(uncompressed))
	assert.Equal(t, "6e6f742061206b6579", Address([]byte("not a key")))
}

func TestContentID(t *testing.T) {
	first, err := ContentID([]byte("query-1"))
	require.NoError(t, err)
	again, err := ContentID([]byte("query-1"))
	require.NoError(t, err)
	other, err := ContentID([]byte("query-2"))
	require.NoError(t, err)

	assert.Equal(t, first, again)
	assert.NotEqual(t, first, other)
	assert.Equal(t, "b", first[:1])
}

func TestKeyFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "key")
	privKey, pubKey, err := GenerateKey()
	require.NoError(t, err)
	require.NoError(t, SaveKey(file, privKey))

	loadedPriv, loadedPub, err := LoadKey(file)
	require.NoError(t, err)
	assert.Equal(t, privKey, loadedPriv)
	assert.Equal(t, pubKey, loadedPub)

	_, _, err = LoadKey(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
